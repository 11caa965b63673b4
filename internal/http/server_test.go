package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bankdash/internal/auth"
	"bankdash/internal/core"
	"bankdash/internal/ledger/memory"
	applog "bankdash/internal/log"
	"bankdash/internal/services"
)

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

// fixture holds 12 transactions, one per day, alternating between a coffee
// shop expense and a salary credit.
func fixture() []core.Transaction {
	txs := make([]core.Transaction, 0, 12)
	for i := 0; i < 12; i++ {
		tx := core.Transaction{
			ID:       fmt.Sprintf("t%d", i+1),
			Date:     testNow.AddDate(0, 0, -i),
			Merchant: "Coffee Shop",
			Amount:   core.Money{Cents: -450},
			Type:     core.TypeDebit,
			Category: "Food",
		}
		if i%2 == 1 {
			tx.Merchant = "Acme Payroll"
			tx.Amount = core.Money{Cents: 100000}
			tx.Type = core.TypeCredit
			tx.Category = "Income"
		}
		txs = append(txs, tx)
	}
	txs[0].Description = "Flat white"
	txs[0].ReferenceNumber = "REF-0001"
	return txs
}

func newTestServer(t *testing.T, rate int, opts ...func(*Deps)) *Server {
	t.Helper()
	ctx := context.Background()

	store := memory.New(fixture())
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.NewService(store, auth.NewSessionStore(time.Hour), auth.WithHashCost(4), auth.WithLogger(quiet))
	if _, err := authSvc.EnsureUser(ctx, core.User{ID: "u1", FirstName: "John", LastName: "Doe", Email: "user@test.com"}, "password"); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	deps := Deps{
		Auth:               authSvc,
		Transactions:       services.NewTransactionService(store, time.UTC, time.Minute),
		Dashboard:          services.NewDashboardService(store, "USD", time.Minute),
		RateLimitPerMinute: rate,
		Now:                func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	srv, err := NewServer(":0", deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target, body string, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func login(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	rr := serve(srv, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"user@test.com","password":"password"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", rr.Code)
	}
	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("login did not set a session cookie")
	}
	return c
}

func authed(c *http.Cookie, req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return req
}

func TestAPILogin(t *testing.T) {
	srv := newTestServer(t, 100)

	t.Run("valid credentials", func(t *testing.T) {
		rr := serve(srv, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"user@test.com","password":"password"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var got core.User
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := core.User{ID: "u1", FirstName: "John", LastName: "Doe", Email: "user@test.com"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
		if strings.Contains(rr.Body.String(), "password") {
			t.Errorf("response leaks password material: %s", rr.Body.String())
		}

		c := sessionCookie(rr)
		if c == nil {
			t.Fatal("no sessionId cookie")
		}
		if c.Path != "/" || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Value == "" {
			t.Errorf("cookie = %+v, want Path=/ HttpOnly SameSite=Lax", c)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"user@test.com","password":"nope"}`},
		{"unknown email", `{"email":"other@test.com","password":"password"}`},
		{"missing fields", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, jsonRequest(http.MethodPost, "/api/auth/login", tt.body))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			if rr.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rr.Body.String())
			}
			if sessionCookie(rr) != nil {
				t.Error("failed login set a session cookie")
			}
		})
	}

	if got := srv.auth.Sessions().Len(); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, path := range []string{"/api/auth/me", "/api/transactions", "/api/transactions/t1", "/api/dashboard/stats"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			if rr.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rr.Body.String())
			}
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-session"})
		if rr := serve(srv, req); rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
	})
}

func TestAPIMeAndLogout(t *testing.T) {
	srv := newTestServer(t, 100)
	c := login(t, srv)

	rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"firstName":"John"`) {
		t.Errorf("me body = %s", rr.Body.String())
	}

	rr = serve(srv, authed(c, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rr.Code)
	}
	if cleared := sessionCookie(rr); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("logout cookie = %+v, want cleared", cleared)
	}

	rr = serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", rr.Code)
	}

	// Logging out twice is harmless.
	if rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)); rr.Code != http.StatusNoContent {
		t.Errorf("anonymous logout = %d, want 204", rr.Code)
	}
}

func TestAPIForgotPassword(t *testing.T) {
	srv := newTestServer(t, 100)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"known address", `{"email":"user@test.com"}`, http.StatusAccepted},
		{"unknown address", `{"email":"nobody@example.com"}`, http.StatusAccepted},
		{"invalid address", `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"empty", `{"email":""}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, jsonRequest(http.MethodPost, "/api/auth/forgot-password", tt.body))
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusBadRequest && !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("body = %s, want error field", rr.Body.String())
			}
		})
	}
}

func TestAPITransactions(t *testing.T) {
	srv := newTestServer(t, 100)
	c := login(t, srv)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantItems int
		wantPage  int
		wantTotal int
		wantPages int
		wantFirst string
	}{
		{"first page", "", 200, 10, 1, 12, 2, "t1"},
		{"second page", "page=2", 200, 2, 2, 12, 2, "t11"},
		{"past the end", "page=9", 200, 0, 9, 12, 2, ""},
		{"non-numeric page", "page=abc", 200, 10, 1, 12, 2, "t1"},
		{"negative page", "page=-3", 200, 10, 1, 12, 2, "t1"},
		{"merchant filter", "merchant=COFFEE", 200, 6, 1, 6, 1, "t1"},
		{"date filter", "date=2024-05-31", 200, 1, 1, 1, 1, "t2"},
		{"no match", "merchant=zzz", 200, 0, 1, 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/transactions?"+tt.query, nil)))
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			var page core.Page[core.Transaction]
			if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := page.Pagination
			want := core.Pagination{TotalItems: tt.wantTotal, TotalPages: tt.wantPages, Page: tt.wantPage, PageSize: core.PageSize}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("pagination mismatch (-want +got):\n%s", diff)
			}
			if len(page.Items) != tt.wantItems {
				t.Fatalf("items = %d, want %d", len(page.Items), tt.wantItems)
			}
			if tt.wantFirst != "" && page.Items[0].ID != tt.wantFirst {
				t.Errorf("first item = %s, want %s", page.Items[0].ID, tt.wantFirst)
			}
		})
	}

	t.Run("invalid date", func(t *testing.T) {
		rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/transactions?date=yesterday", nil)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid date") {
			t.Errorf("body = %s", rr.Body.String())
		}
	})
}

func TestAPITransactionByID(t *testing.T) {
	srv := newTestServer(t, 100)
	c := login(t, srv)

	rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/transactions/t1", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var tx core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.ID != "t1" || tx.Amount.Cents != -450 || tx.ReferenceNumber != "REF-0001" {
		t.Errorf("transaction = %+v", tx)
	}
	if !strings.Contains(rr.Body.String(), `"amount":-4.50`) {
		t.Errorf("amount not serialised with two decimals: %s", rr.Body.String())
	}

	rr = serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/transactions/missing", nil)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("404 body = %q, want empty", rr.Body.String())
	}
}

func TestAPIDashboardStats(t *testing.T) {
	srv := newTestServer(t, 100)
	c := login(t, srv)

	rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got core.DashboardStats
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 6 credits of 1000.00 and 6 debits of 4.50.
	if got.QuickStats.Income.Amount.Cents != 600000 {
		t.Errorf("income = %d", got.QuickStats.Income.Amount.Cents)
	}
	if got.QuickStats.Expenses.Amount.Cents != 2700 {
		t.Errorf("expenses = %d", got.QuickStats.Expenses.Amount.Cents)
	}
	if got.AccountBalance.Amount.Cents != 597300 || got.AccountBalance.Currency != "USD" {
		t.Errorf("balance = %+v", got.AccountBalance)
	}
	var ids []string
	for _, r := range got.MostRecentTransactions {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"t1", "t2", "t3", "t4", "t5"}, ids); diff != "" {
		t.Errorf("recent mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownAPIPath(t *testing.T) {
	srv := newTestServer(t, 100)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rr.Code != http.StatusNotFound || rr.Body.Len() != 0 {
		t.Errorf("status = %d body = %q, want empty 404", rr.Code, rr.Body.String())
	}
}

func TestAPIRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	srv := newTestServer(t, 100, func(d *Deps) {
		d.Logger = applog.New(applog.Config{Format: "json", Output: &buf, Level: slog.LevelDebug})
	})
	c := login(t, srv)
	buf.Reset()

	rr := serve(srv, authed(c, httptest.NewRequest(http.MethodGet, "/api/transactions?merchant=coffee", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	id := rr.Header().Get("X-Request-ID")

	var line map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			t.Fatalf("log line %q: %v", raw, err)
		}
		if entry["msg"] == "Transactions listed" {
			line = entry
		}
	}
	if line == nil {
		t.Fatalf("no handler log line in:\n%s", buf.String())
	}
	if line["component"] != applog.ComponentAPI {
		t.Errorf("component = %v, want %s", line["component"], applog.ComponentAPI)
	}
	if line["request_id"] != id {
		t.Errorf("request_id = %v, want %s", line["request_id"], id)
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)

	var last int
	for i := 0; i < 3; i++ {
		rr := serve(srv, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"user@test.com","password":"nope"}`))
		last = rr.Code
		if i == 2 && rr.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After header")
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt = %d, want 429", last)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing X-Request-ID", path)
		}
	}

	serve(srv, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	want := `bankdash_http_requests_total{code="401",method="GET",route="GET /api/auth/me"} 1`
	if !strings.Contains(rr.Body.String(), want) {
		t.Errorf("metrics output missing %q", want)
	}
}

func TestReadyzReportsBackendFailure(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.ready = func(context.Context) error { return fmt.Errorf("database is locked") }

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, 100)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/login", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}
