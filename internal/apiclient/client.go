// Package apiclient talks to the bankdash JSON API. It keeps the session in a
// cookie jar, caches reads per query, retries a failed read once, and maps
// failures to messages fit for a person.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bankdash/internal/cache"
	"bankdash/internal/core"
)

const (
	DefaultStaleTime     = 30 * time.Second
	DefaultUserStaleTime = 5 * time.Minute
	DefaultRetryDelay    = time.Second

	maxCachedQueries = 128
	userKey          = "user"
	statsKey         = "dashboard|stats"
)

type Options struct {
	BaseURL string
	// HTTPClient is used as is when set; a client with a fresh cookie jar
	// is created otherwise.
	HTTPClient    *http.Client
	StaleTime     time.Duration
	UserStaleTime time.Duration
	RetryDelay    time.Duration
	Logger        *slog.Logger
}

type Client struct {
	base       *url.URL
	http       *http.Client
	retryDelay time.Duration
	logger     *slog.Logger

	user    *cache.Query[core.User]
	pages   *cache.Query[core.Page[core.Transaction]]
	records *cache.Query[core.Transaction]
	stats   *cache.Query[core.DashboardStats]
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.UserStaleTime <= 0 {
		opts.UserStaleTime = DefaultUserStaleTime
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	} else if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		base:       base,
		http:       hc,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		user:       cache.NewQuery[core.User](1, opts.UserStaleTime),
		pages:      cache.NewQuery[core.Page[core.Transaction]](maxCachedQueries, opts.StaleTime),
		records:    cache.NewQuery[core.Transaction](maxCachedQueries, opts.StaleTime),
		stats:      cache.NewQuery[core.DashboardStats](1, opts.StaleTime),
	}, nil
}

// Login opens a session; the cookie stays in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (core.User, error) {
	var u core.User
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, core.Credentials{Email: email, Password: password}, &u, false)
	if err != nil {
		return core.User{}, err
	}
	c.Invalidate()
	c.user.Set(userKey, u)
	return u, nil
}

// Logout ends the session. Cached data is dropped even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.Invalidate()
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, false)
}

// Me returns the signed-in user. It is never retried: a 401 simply means
// nobody is signed in.
func (c *Client) Me(ctx context.Context) (core.User, error) {
	return c.user.Get(ctx, userKey, func(ctx context.Context) (core.User, error) {
		var u core.User
		err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &u, false)
		return u, err
	})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", nil, map[string]string{"email": email}, nil, false)
}

func (c *Client) Transactions(ctx context.Context, f core.Filters) (core.Page[core.Transaction], error) {
	f = f.Normalized()
	key := cache.Key("transactions", strings.ToLower(f.Merchant), f.DateParam(), f.Page)
	return c.pages.Get(ctx, key, func(ctx context.Context) (core.Page[core.Transaction], error) {
		var p core.Page[core.Transaction]
		err := c.do(ctx, http.MethodGet, "/api/transactions", filterValues(f), nil, &p, true)
		return p, err
	})
}

func (c *Client) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	return c.records.Get(ctx, cache.Key("transaction", id), func(ctx context.Context) (core.Transaction, error) {
		var tx core.Transaction
		err := c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(id), nil, nil, &tx, true)
		return tx, err
	})
}

func (c *Client) DashboardStats(ctx context.Context) (core.DashboardStats, error) {
	return c.stats.Get(ctx, statsKey, func(ctx context.Context) (core.DashboardStats, error) {
		var s core.DashboardStats
		err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &s, true)
		return s, err
	})
}

// Overview is what the dashboard home needs in one go.
type Overview struct {
	User  core.User           `json:"user"`
	Stats core.DashboardStats `json:"stats"`
}

// Overview fetches the user and the dashboard stats concurrently.
func (c *Client) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := c.Me(ctx)
		o.User = u
		return err
	})
	g.Go(func() error {
		s, err := c.DashboardStats(ctx)
		o.Stats = s
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return o, nil
}

// Invalidate forgets every cached answer.
func (c *Client) Invalidate() {
	c.user.Purge()
	c.pages.Purge()
	c.records.Purge()
	c.stats.Purge()
}

func filterValues(f core.Filters) url.Values {
	v := url.Values{}
	if f.Merchant != "" {
		v.Set("merchant", f.Merchant)
	}
	if d := f.DateParam(); d != "" {
		v.Set("date", d)
	}
	v.Set("page", strconv.Itoa(f.Page))
	return v
}

// do performs one call, and one retry when retry is set and the failure is
// neither a 401 nor a 404. A 401 anywhere drops the cached user, since the
// session it came from is gone.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, retry bool) error {
	err := c.attempt(ctx, method, path, query, in, out, retry)
	if IsUnauthorized(err) {
		c.user.Invalidate(userKey)
	}
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, in, out any, retry bool) error {
	err := c.once(ctx, method, path, query, in, out)
	if err == nil || !retry || !retryable(err) {
		return err
	}

	c.logger.DebugContext(ctx, "Retrying API call", "method", method, "path", path, "error", err)
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return c.once(ctx, method, path, query, in, out)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusNotFound:
		return false
	}
	return true
}

func (c *Client) once(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		se.Message = body.Message
		if se.Message == "" {
			se.Message = body.Error
		}
	}
	return se
}
