// This file holds the JSON API handlers under /api.

package http

import (
	"errors"
	"net/http"

	"bankdash/internal/auth"
	"bankdash/internal/core"
	applog "bankdash/internal/log"
)

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := p.Get("email")

	user, sess, err := s.auth.Login(ctx, email, p.GetRaw("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.ObserveLogin(false)
		s.access.LogLogin(ctx, "", email, false)
		writeEmpty(w, http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.metrics.ObserveLogin(false)
		logger.ErrorContext(ctx, "Login failed", applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.metrics.ObserveLogin(true)
	s.access.LogLogin(ctx, user.ID, user.Email, true)
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAPIMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

// handleAPILogout is idempotent: it succeeds with or without a session.
func (s *Server) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	writeEmpty(w, http.StatusNoContent)
}

func (s *Server) handleAPIForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reset, err := s.auth.RequestPasswordReset(ctx, p.Get("email"))
	switch {
	case errors.Is(err, core.ErrInvalidEmail):
		s.metrics.ObserveReset(false)
		writeJSONError(w, http.StatusBadRequest, core.ErrInvalidEmail.Error())
		return
	case err != nil:
		s.metrics.ObserveReset(false)
		s.access.LogError(ctx, "Password reset failed", err, applog.ComponentAuth, applog.OpReset, nil)
		writeJSONError(w, http.StatusInternalServerError, "could not process the request")
		return
	}

	s.metrics.ObserveReset(true)
	applog.FromContext(ctx).InfoContext(ctx, "Password reset accepted", "reset_id", reset.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := ParseFilters(r.URL.Query(), s.loc)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, core.ErrInvalidDate.Error())
		return
	}

	page, err := s.txs.List(ctx, f)
	if err != nil {
		s.access.LogError(ctx, "List transactions failed", err, applog.ComponentAPI, applog.OpList, nil)
		writeJSONError(w, http.StatusInternalServerError, "could not load transactions")
		return
	}
	applog.FromContext(ctx).DebugContext(ctx, "Transactions listed",
		applog.NewFields().WithQuery(f.Merchant, f.DateParam(), f.Page, len(page.Items)).ToSlice()...)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAPITransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tx, err := s.txs.Get(ctx, r.PathValue("id"))
	if errors.Is(err, core.ErrNotFound) {
		writeEmpty(w, http.StatusNotFound)
		return
	}
	if err != nil {
		s.access.LogError(ctx, "Get transaction failed", err, applog.ComponentAPI, applog.OpRead, nil)
		writeJSONError(w, http.StatusInternalServerError, "could not load transaction")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleAPIDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		s.access.LogError(ctx, "Dashboard stats failed", err, applog.ComponentAPI, applog.OpStats, nil)
		writeJSONError(w, http.StatusInternalServerError, "could not load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
