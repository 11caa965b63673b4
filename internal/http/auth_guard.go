package http

import (
	"context"
	"net/http"
	"net/url"

	"bankdash/internal/auth"
	"bankdash/internal/core"
	"bankdash/internal/middleware/security"
)

type contextKey string

const userContextKey contextKey = "user"

// currentUser resolves the session cookie, if any, to its user.
func (s *Server) currentUser(r *http.Request) (core.User, bool) {
	c, err := r.Cookie(auth.CookieName)
	if err != nil || c.Value == "" {
		return core.User{}, false
	}
	u, err := s.auth.Authenticate(r.Context(), c.Value)
	if err != nil {
		return core.User{}, false
	}
	return u, true
}

func userFromContext(ctx context.Context) core.User {
	u, _ := ctx.Value(userContextKey).(core.User)
	return u
}

// requireAPIUser answers an empty 401 when the session is missing or unknown.
func (s *Server) requireAPIUser(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok {
			writeEmpty(w, http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	}))
}

// requirePageUser sends anonymous visitors to /login, remembering where they
// were headed.
func (s *Server) requirePageUser(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok {
			target := "/login"
			if p := r.URL.RequestURI(); p != "/" && !isHTMX(r) {
				target += "?next=" + url.QueryEscape(p)
			}
			redirect(w, r, target)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	}))
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// endSession drops the server-side session and clears the cookie.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		s.auth.Logout(c.Value)
	}
	s.clearSessionCookie(w)
}
