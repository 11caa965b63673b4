// Package i18n holds the UI strings for every supported language. Catalogs
// are flat JSON maps of dotted keys embedded in the binary; values may carry
// {name} placeholders.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	English = "en"
	Arabic  = "ar"

	Default = English
)

type Language struct {
	Code  string
	Label string
	RTL   bool
}

var languages = []Language{
	{Code: English, Label: "English"},
	{Code: Arabic, Label: "العربية", RTL: true},
}

// matcher lists the tags in the same order as languages, so a match index
// points straight into it.
var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

type Bundle struct {
	catalogs map[string]map[string]string
}

// Load reads every embedded catalog and checks they define the same keys.
func Load() (*Bundle, error) {
	b := &Bundle{catalogs: make(map[string]map[string]string)}
	for _, l := range languages {
		data, err := localeFS.ReadFile(path.Join("locales", l.Code+".json"))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", l.Code, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", l.Code, err)
		}
		b.catalogs[l.Code] = m
	}

	if missing := b.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("catalogs disagree on keys: %s", strings.Join(missing, ", "))
	}
	return b, nil
}

func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) missing() []string {
	var out []string
	base := b.catalogs[Default]
	for code, cat := range b.catalogs {
		for k := range base {
			if _, ok := cat[k]; !ok {
				out = append(out, code+":"+k)
			}
		}
		for k := range cat {
			if _, ok := base[k]; !ok {
				out = append(out, Default+":"+k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// T translates key into lang. args are name/value pairs substituted into
// {name} placeholders. Unknown languages fall back to English and unknown
// keys render as the key itself.
func (b *Bundle) T(lang, key string, args ...any) string {
	msg, ok := b.catalogs[Normalize(lang)][key]
	if !ok {
		if msg, ok = b.catalogs[Default][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+fmt.Sprint(args[i])+"}", fmt.Sprint(args[i+1]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Has reports whether key exists in the default catalog.
func (b *Bundle) Has(key string) bool {
	_, ok := b.catalogs[Default][key]
	return ok
}

// Normalize maps tags such as "ar-SD" or "EN" onto a supported code.
func Normalize(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return Default
	}
	return match(tag)
}

func match(tags ...language.Tag) string {
	_, i, conf := matcher.Match(tags...)
	if conf == language.No || i < 0 || i >= len(languages) {
		return Default
	}
	return languages[i].Code
}

// Dir is the text direction for lang: "rtl" or "ltr".
func Dir(lang string) string {
	if Lookup(lang).RTL {
		return "rtl"
	}
	return "ltr"
}

func Lookup(lang string) Language {
	code := Normalize(lang)
	for _, l := range languages {
		if l.Code == code {
			return l
		}
	}
	return languages[0]
}

func Languages() []Language {
	return append([]Language(nil), languages...)
}

// FromAcceptLanguage picks the best supported language for an
// Accept-Language header, honouring quality weights.
func FromAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	return match(tags...)
}
