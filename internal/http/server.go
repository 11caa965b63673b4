package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"bankdash/internal/auth"
	"bankdash/internal/core"
	"bankdash/internal/i18n"
	applog "bankdash/internal/log"
	"bankdash/internal/metrics"
	"bankdash/internal/middleware/ratelimit"
	"bankdash/internal/middleware/security"
	"bankdash/internal/middleware/trace"
	"bankdash/internal/services"
	appweb "bankdash/web"
)

// Deps wires the server to the rest of the application.
type Deps struct {
	Auth         *auth.Service
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	I18n         *i18n.Bundle
	Metrics      *metrics.Metrics
	Logger       *applog.Logger

	Currency           string
	RateLimitPerMinute int
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
	// Ready is probed by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	auth      *auth.Service
	txs       *services.TransactionService
	dashboard *services.DashboardService
	i18n      *i18n.Bundle
	metrics   *metrics.Metrics
	logger    *applog.Logger
	access    *applog.StructuredLogger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	loc           *time.Location
	currency      string
	secureCookies bool
	ready         func(ctx context.Context) error
	now           func() time.Time
	started       time.Time
}

func NewServer(addr string, d Deps) (*Server, error) {
	if d.Auth == nil || d.Transactions == nil || d.Dashboard == nil {
		return nil, errors.New("http server: auth, transactions and dashboard are required")
	}
	if d.I18n == nil {
		b, err := i18n.Load()
		if err != nil {
			return nil, fmt.Errorf("load translations: %w", err)
		}
		d.I18n = b
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = applog.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Currency == "" {
		d.Currency = core.DefaultCurrency
	}

	logger := d.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		auth:          d.Auth,
		txs:           d.Transactions,
		dashboard:     d.Dashboard,
		i18n:          d.I18n,
		metrics:       d.Metrics,
		logger:        logger,
		access:        applog.NewStructuredLogger(logger),
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: d.RateLimitPerMinute, Window: time.Minute}),
		loc:           d.Transactions.Location(),
		currency:      d.Currency,
		secureCookies: d.SecureCookies,
		ready:         d.Ready,
		now:           d.Now,
		started:       d.Now(),
	}
	s.tracer = trace.NewMiddleware(d.Logger, s.detector.ExtractClientIP)

	tmpl, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = tmpl

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	// Metrics wraps the mux directly so r.Pattern is visible to it.
	var h http.Handler = s.metrics.Middleware(mux)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(logger)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(http.StripPrefix("/static/", http.FileServerFS(static))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	apiLimit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusTooManyRequests, "too many requests")
	})
	pageLimit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, s.i18n.T(readPrefs(r).Lang, "errors.tooManyRequests")).Write(w)
	})

	// JSON API
	api := applog.ComponentMiddleware(applog.ComponentAPI)
	mux.Handle("POST /api/auth/login", api(apiLimit(http.HandlerFunc(s.handleAPILogin))))
	mux.Handle("POST /api/auth/forgot-password", api(apiLimit(http.HandlerFunc(s.handleAPIForgotPassword))))
	mux.Handle("POST /api/auth/logout", api(http.HandlerFunc(s.handleAPILogout)))
	mux.Handle("GET /api/auth/me", api(s.requireAPIUser(s.handleAPIMe)))
	mux.Handle("GET /api/transactions", api(s.requireAPIUser(s.handleAPITransactions)))
	mux.Handle("GET /api/transactions/{id}", api(s.requireAPIUser(s.handleAPITransaction)))
	mux.Handle("GET /api/dashboard/stats", api(s.requireAPIUser(s.handleAPIDashboardStats)))
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) { writeEmpty(w, http.StatusNotFound) })

	// Pages
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", pageLimit(http.HandlerFunc(s.handleLoginSubmit)))
	mux.HandleFunc("GET /forgot-password", s.handleForgotPasswordPage)
	mux.Handle("POST /forgot-password", pageLimit(http.HandlerFunc(s.handleForgotPasswordSubmit)))
	mux.Handle("GET /logout", s.requirePageUser(s.handleLogoutPage))
	mux.HandleFunc("POST /logout", s.handleLogoutSubmit)
	mux.HandleFunc("POST /prefs/theme", s.handleToggleTheme)
	mux.HandleFunc("POST /prefs/lang", s.handleSetLanguage)

	mux.Handle("GET /{$}", s.requirePageUser(s.handleDashboardPage))
	mux.Handle("GET /transactions", s.requirePageUser(s.handleTransactionsPage))
	mux.Handle("GET /transactions/{id}", s.requirePageUser(s.handleTransactionDetailPage))
	mux.Handle("GET /ui/dashboard", s.requirePageUser(s.handleDashboardPartial))
	mux.Handle("GET /ui/transactions", s.requirePageUser(s.handleTransactionsPartial))

	// Anything else lands on the dashboard, which sends strangers to /login.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		redirect(w, r, "/")
	})
	return nil
}

// Shutdown stops background work then drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	checks["sessions"] = s.auth.Sessions().Len()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"blocked":        s.limiter.Blocked(),
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
