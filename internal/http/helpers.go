package http

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/i18n"
)

const (
	themeCookie = "theme"
	langCookie  = "lang"

	themeLight = "light"
	themeDark  = "dark"

	prefsMaxAge = 365 * 24 * 60 * 60
)

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// Prefs are the per-browser display choices kept in cookies.
type Prefs struct {
	Theme string
	Lang  string
	Dir   string
}

func readPrefs(r *http.Request) Prefs {
	p := Prefs{Theme: themeLight}
	if c, err := r.Cookie(themeCookie); err == nil && c.Value == themeDark {
		p.Theme = themeDark
	}
	if c, err := r.Cookie(langCookie); err == nil {
		p.Lang = i18n.Normalize(c.Value)
	} else {
		p.Lang = i18n.FromAcceptLanguage(r.Header.Get("Accept-Language"))
	}
	p.Dir = i18n.Dir(p.Lang)
	return p
}

func setPrefCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   prefsMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeReturnPath keeps redirects on this site.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string, args ...any) string {
			return s.i18n.T(lang, key, args...)
		},
		"money": func(m core.Money, currency string) string {
			return core.FormatMoney(m, currency)
		},
		"date": core.FormatDate,
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(s.loc).Format(core.DateLayout)
		},
		"isIncome":    func(m core.Money) bool { return m.Cents > 0 },
		"languages":   i18n.Languages,
		"pageURL":     pageURL,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"ellipsis":    func(n int) bool { return n == core.Ellipsis },
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

// pageURL links to base with f applied at page. Typed as a URL so the
// query separators survive html/template escaping.
func pageURL(base string, f core.Filters, page int) template.URL {
	if q := FilterQuery(f, page); q != "" {
		return template.URL(base + "?" + q)
	}
	return template.URL(base)
}
