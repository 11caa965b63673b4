package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads a transactions ledger from a Google Sheet. The sheet is read
// in one range request and the parsed rows are cached for cacheTTL.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	loc           *time.Location

	rows  *cache.Query[[]core.Transaction]
	fetch func(ctx context.Context) ([][]interface{}, error)
}

var _ ledger.TransactionReader = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	Location        *time.Location
	CacheTTL        time.Duration
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.SheetName) == "" {
		opts.SheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := newClient(opts)
	c.svc = svc
	c.fetch = c.readValues
	return c, nil
}

func newClient(opts Options) *Client {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Client{
		spreadsheetID: opts.SpreadsheetID,
		sheet:         opts.SheetName,
		loc:           loc,
		rows:          cache.NewQuery[[]core.Transaction](1, ttl),
	}
}

// newSheetsService builds a read-only Sheets service from service account
// credentials, inline JSON first, then a file.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	var creds []byte
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		creds = []byte(credentialsJSON)
	case strings.TrimSpace(credentialsFile) != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", credentialsFile, "size", len(b))
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) readValues(ctx context.Context) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:K", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) load(ctx context.Context) ([]core.Transaction, error) {
	return c.rows.Get(ctx, "ledger", func(ctx context.Context) ([]core.Transaction, error) {
		values, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		txs, skipped, err := parseTransactions(values, c.loc)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			slog.WarnContext(ctx, "Skipped unparseable ledger rows", "sheet", c.sheet, "skipped", skipped)
		}
		ledger.SortNewestFirst(txs)
		return txs, nil
	})
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]core.Transaction(nil), txs...), nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := c.load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// Refresh drops the cached rows so the next read goes to the sheet.
func (c *Client) Refresh() {
	c.rows.Purge()
}
