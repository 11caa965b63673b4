package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestStoreOrdersNewestFirst(t *testing.T) {
	s := New([]core.Transaction{
		{ID: "old", Merchant: "a", Date: now.Add(-48 * time.Hour)},
		{ID: "new", Merchant: "b", Date: now},
		{ID: "mid", Merchant: "c", Date: now.Add(-24 * time.Hour)},
	})
	txs, err := s.ListTransactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if txs[0].ID != "new" || txs[1].ID != "mid" || txs[2].ID != "old" {
		t.Fatalf("unexpected order: %v %v %v", txs[0].ID, txs[1].ID, txs[2].ID)
	}

	txs[0].Merchant = "mutated"
	again, _ := s.ListTransactions(context.Background())
	if again[0].Merchant == "mutated" {
		t.Fatalf("ListTransactions must return a copy")
	}
}

func TestGetTransaction(t *testing.T) {
	s := New([]core.Transaction{{ID: "t1", Merchant: "CAFE Laila", Date: now}})
	tx, err := s.GetTransaction(context.Background(), "t1")
	if err != nil || tx.Merchant != "CAFE Laila" {
		t.Fatalf("unexpected get: %+v %v", tx, err)
	}
	if _, err := s.GetTransaction(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	s := New(nil)
	acct := core.Account{User: core.User{ID: "u1", FirstName: "Jane", Email: "User@Test.com"}, PasswordHash: "h"}
	if err := s.UpsertUser(context.Background(), acct); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetUserByEmail(context.Background(), "user@test.com")
	if err != nil || got.ID != "u1" || got.PasswordHash != "h" {
		t.Fatalf("unexpected user: %+v %v", got, err)
	}
	if u, err := s.GetUserByID(context.Background(), "u1"); err != nil || u.FirstName != "Jane" {
		t.Fatalf("unexpected user by id: %+v %v", u, err)
	}
	if _, err := s.GetUserByEmail(context.Background(), "nobody@test.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpsertUser(context.Background(), core.Account{User: core.User{Email: "bad"}}); err == nil {
		t.Fatalf("expected invalid email error")
	}
}

func TestRecordPasswordResetUpdatesByID(t *testing.T) {
	s := New(nil)
	r := ledger.PasswordReset{ID: "r1", Email: "user@test.com", Status: ledger.ResetRequested, RequestedAt: now}
	_ = s.RecordPasswordReset(context.Background(), r)
	r.Status = ledger.ResetDelivered
	_ = s.RecordPasswordReset(context.Background(), r)

	got := s.PasswordResets()
	if len(got) != 1 || got[0].Status != ledger.ResetDelivered {
		t.Fatalf("unexpected resets: %+v", got)
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromDir(dir, 30, now)
	if err != nil {
		t.Fatal(err)
	}
	txs, _ := s.ListTransactions(context.Background())
	if len(txs) != 30 {
		t.Fatalf("expected generated dataset of 30, got %d", len(txs))
	}

	data := `[
		{"id":"a","date":"2024-01-15T10:30:00Z","merchant":"CAFE Laila","amount":-4.5,"category":"Food"},
		{"id":"b","date":"2024-01-16T09:00:00Z","merchant":"Payroll","amount":2500,"type":"credit","category":"Salary"}
	]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromDir(dir, 30, now)
	if err != nil {
		t.Fatal(err)
	}
	txs, _ = s.ListTransactions(context.Background())
	if len(txs) != 2 || txs[0].ID != "b" {
		t.Fatalf("expected file dataset newest first, got %+v", txs)
	}
	if txs[1].Type != core.TypeDebit || txs[1].Amount.Cents != -450 {
		t.Fatalf("type should be derived from amount: %+v", txs[1])
	}

	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromDir(dir, 30, now); err == nil {
		t.Fatalf("expected decode error")
	}
}
