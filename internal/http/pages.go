// This file holds the server-rendered pages and their htmx partials.

package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"bankdash/internal/auth"
	"bankdash/internal/core"
	"bankdash/internal/i18n"
	applog "bankdash/internal/log"
)

type viewData struct {
	Prefs
	Title    string
	Nav      string
	User     *core.User
	Currency string
	Next     string

	// auth forms
	Email string
	Error string
	Sent  bool

	Greeting     string
	GreetingIcon string
	Stats        *core.DashboardStats

	Filters     core.Filters
	Results     *core.Page[core.Transaction]
	PageNumbers []int
	From, To    int

	Transaction *core.Transaction
}

func (s *Server) view(r *http.Request, title, nav string) viewData {
	v := viewData{
		Prefs:    readPrefs(r),
		Title:    title,
		Nav:      nav,
		Currency: s.currency,
	}
	if u := userFromContext(r.Context()); u.ID != "" {
		v.User = &u
	}
	return v
}

func (s *Server) execute(r *http.Request, name string, data viewData) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.access.LogError(r.Context(), "Template render failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": name})
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data viewData) {
	body, err := s.execute(r, name, data)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// renderFormError re-renders a form with its error. htmx gets the fragment
// (status 200 so it swaps) plus a toast; plain posts get the full page.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, status int, page, fragment string, data viewData) {
	if !isHTMX(r) {
		s.render(w, r, status, page, data)
		return
	}
	body, err := s.execute(r, fragment, data)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().
		Header("Content-Type", "text/html; charset=utf-8").
		TriggerErrorNotification(s.i18n.T(data.Lang, data.Error)).
		Body(body).
		Write(w)
}

// fail reports an unexpected error: a toast for htmx, an error page otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, key string) {
	lang := readPrefs(r).Lang
	if isHTMX(r) {
		ErrorResponse(status, s.i18n.T(lang, key)).Write(w)
		return
	}
	data := s.view(r, "common.appName", "")
	data.Error = key
	s.render(w, r, status, "error.html", data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeReturnPath(r.URL.Query().Get("next"))
	if _, ok := s.currentUser(r); ok {
		redirect(w, r, next)
		return
	}
	data := s.view(r, "login.title", "")
	data.Next = next
	s.render(w, r, http.StatusOK, "login.html", data)
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "errors.badRequest")
		return
	}
	creds := core.Credentials{Email: p.Get("email"), Password: p.GetRaw("password")}

	data := s.view(r, "login.title", "")
	data.Email = creds.Email
	data.Next = safeReturnPath(p.Get("next"))

	if err := creds.Validate(); err != nil {
		data.Error = validationKey(err)
		s.renderFormError(w, r, http.StatusUnprocessableEntity, "login.html", "login_form", data)
		return
	}

	user, sess, err := s.auth.Login(ctx, creds.Email, creds.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.ObserveLogin(false)
		s.access.LogLogin(ctx, "", creds.Email, false)
		data.Error = "login.error"
		s.renderFormError(w, r, http.StatusUnauthorized, "login.html", "login_form", data)
		return
	}
	if err != nil {
		s.metrics.ObserveLogin(false)
		s.access.LogError(ctx, "Login failed", err, applog.ComponentAuth, applog.OpLogin, nil)
		s.fail(w, r, http.StatusInternalServerError, "errors.serverError")
		return
	}

	s.metrics.ObserveLogin(true)
	s.access.LogLogin(ctx, user.ID, user.Email, true)
	s.setSessionCookie(w, sess)
	redirect(w, r, data.Next)
}

func validationKey(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidEmail):
		return "validation.emailInvalid"
	case errors.Is(err, core.ErrEmptyPassword):
		return "validation.passwordRequired"
	default:
		return "errors.badRequest"
	}
}

func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot_password.html", s.view(r, "forgotPassword.title", ""))
}

func (s *Server) handleForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "errors.badRequest")
		return
	}

	data := s.view(r, "forgotPassword.title", "")
	data.Email = p.Get("email")

	_, err := s.auth.RequestPasswordReset(ctx, data.Email)
	switch {
	case errors.Is(err, core.ErrInvalidEmail):
		s.metrics.ObserveReset(false)
		data.Error = "validation.emailInvalid"
		s.renderFormError(w, r, http.StatusBadRequest, "forgot_password.html", "forgot_form", data)
		return
	case err != nil:
		s.metrics.ObserveReset(false)
		s.access.LogError(ctx, "Password reset failed", err, applog.ComponentAuth, applog.OpReset, nil)
		s.fail(w, r, http.StatusInternalServerError, "errors.serverError")
		return
	}

	s.metrics.ObserveReset(true)
	data.Sent = true
	name := "forgot_password.html"
	if isHTMX(r) {
		name = "forgot_form"
	}
	s.render(w, r, http.StatusOK, name, data)
}

func (s *Server) handleLogoutPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "logout.html", s.view(r, "common.logoutTitle", ""))
}

func (s *Server) handleLogoutSubmit(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	redirect(w, r, "/login")
}

func (s *Server) dashboardView(r *http.Request) (viewData, error) {
	data := s.view(r, "dashboard.title", "dashboard")
	stats, err := s.dashboard.Stats(r.Context())
	if err != nil {
		return data, err
	}
	data.Stats = &stats

	g := core.GreetingFor(s.now().In(s.loc).Hour())
	data.GreetingIcon = g.Icon
	if data.User != nil {
		data.Greeting = s.i18n.T(data.Lang, "dashboard.greeting",
			"greeting", s.i18n.T(data.Lang, g.Key),
			"firstName", data.User.FirstName)
	}
	return data, nil
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.dashboardView(r)
	if err != nil {
		s.access.LogError(r.Context(), "Dashboard stats failed", err, applog.ComponentHTTP, applog.OpStats, nil)
		data.Error = "dashboard.error"
		s.render(w, r, http.StatusInternalServerError, "dashboard.html", data)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", data)
}

// handleDashboardPartial refreshes the stats panel in place.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	data, err := s.dashboardView(r)
	if err != nil {
		s.access.LogError(r.Context(), "Dashboard stats failed", err, applog.ComponentHTTP, applog.OpStats, nil)
		s.fail(w, r, http.StatusInternalServerError, "dashboard.error")
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_stats", data)
}

// transactionsView loads one page of results. A bad date is reported as
// core.ErrInvalidDate with the other filters still applied to data.
func (s *Server) transactionsView(r *http.Request) (viewData, error) {
	data := s.view(r, "transactions.title", "transactions")

	f, err := ParseFilters(r.URL.Query(), s.loc)
	if err != nil {
		data.Filters = core.Filters{Merchant: sanitizeInput(r.URL.Query().Get("merchant")), Page: 1}
		return data, err
	}
	data.Filters = f

	page, err := s.txs.List(r.Context(), f)
	if err != nil {
		return data, err
	}
	data.Results = &page
	data.PageNumbers = core.PageNumbers(page.Pagination.Page, page.Pagination.TotalPages)
	if n := len(page.Items); n > 0 {
		data.From = (page.Pagination.Page-1)*page.Pagination.PageSize + 1
		data.To = data.From + n - 1
	}
	return data, nil
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.transactionsView(r)
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		data.Error = "errors.badRequest"
		s.render(w, r, http.StatusBadRequest, "transactions.html", data)
		return
	case err != nil:
		s.access.LogError(r.Context(), "List transactions failed", err, applog.ComponentHTTP, applog.OpList, nil)
		data.Error = "transactions.error"
		s.render(w, r, http.StatusInternalServerError, "transactions.html", data)
		return
	}
	s.render(w, r, http.StatusOK, "transactions.html", data)
}

// handleTransactionsPartial swaps the results table and keeps the address
// bar in step with the filters.
func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	data, err := s.transactionsView(r)
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		s.fail(w, r, http.StatusBadRequest, "errors.badRequest")
		return
	case err != nil:
		s.access.LogError(r.Context(), "List transactions failed", err, applog.ComponentHTTP, applog.OpList, nil)
		s.fail(w, r, http.StatusInternalServerError, "transactions.error")
		return
	}

	body, err := s.execute(r, "transactions_results", data)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	push := "/transactions"
	if q := FilterQuery(data.Filters, data.Filters.Page); q != "" {
		push += "?" + q
	}
	NewHTMXResponse().
		Header("Content-Type", "text/html; charset=utf-8").
		Header("HX-Push-Url", push).
		Body(body).
		Write(w)
}

func (s *Server) handleTransactionDetailPage(w http.ResponseWriter, r *http.Request) {
	data := s.view(r, "transactions.detailTitle", "transactions")

	tx, err := s.txs.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, core.ErrNotFound):
		data.Error = "transactions.detailError"
		s.render(w, r, http.StatusNotFound, "transaction_detail.html", data)
		return
	case err != nil:
		s.access.LogError(r.Context(), "Get transaction failed", err, applog.ComponentHTTP, applog.OpRead,
			applog.LogFields{applog.FieldTransactionID: r.PathValue("id")})
		data.Error = "errors.serverError"
		s.render(w, r, http.StatusInternalServerError, "transaction_detail.html", data)
		return
	}
	data.Transaction = &tx
	s.render(w, r, http.StatusOK, "transaction_detail.html", data)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := themeDark
	if readPrefs(r).Theme == themeDark {
		next = themeLight
	}
	setPrefCookie(w, themeCookie, next)
	s.back(w, r)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "errors.badRequest")
		return
	}
	setPrefCookie(w, langCookie, i18n.Normalize(p.Get("lang")))
	s.back(w, r)
}

// back reloads the page the preference was changed from.
func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Refresh", "true").Write(w)
		return
	}
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		target = safeReturnPath(ref.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
