package google

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bankdash/internal/core"
)

func fakeClient(values [][]interface{}, calls *atomic.Int32) *Client {
	c := newClient(Options{SpreadsheetID: "sheet", SheetName: "Transactions", CacheTTL: time.Minute})
	c.fetch = func(context.Context) ([][]interface{}, error) {
		calls.Add(1)
		return values, nil
	}
	return c
}

func TestClientReadsAndCaches(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Date", "Merchant", "Amount"},
		{"old", "2024-01-10", "Grocer", "-20"},
		{"new", "2024-01-12", "Payroll", "1000"},
	}
	var calls atomic.Int32
	c := fakeClient(values, &calls)
	ctx := context.Background()

	txs, err := c.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", txs)
	}

	tx, err := c.GetTransaction(ctx, "old")
	if err != nil || tx.Merchant != "Grocer" {
		t.Fatalf("GetTransaction = %+v, %v", tx, err)
	}
	if _, err := c.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("sheet read %d times, want 1", calls.Load())
	}

	c.Refresh()
	if _, err := c.ListTransactions(ctx); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("Refresh should force a new read")
	}
}

func TestClientPropagatesFetchErrors(t *testing.T) {
	c := newClient(Options{SpreadsheetID: "sheet"})
	boom := errors.New("quota exceeded")
	c.fetch = func(context.Context) ([][]interface{}, error) { return nil, boom }
	if _, err := c.ListTransactions(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(context.Background(), Options{SpreadsheetID: "x"}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
