package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "bankdash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeedAndListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := ledger.GenerateTransactions(25, now, 3)

	n, err := repo.SeedIfEmpty(ctx, seed)
	if err != nil || n != 25 {
		t.Fatalf("SeedIfEmpty = %d, %v", n, err)
	}
	if n, err := repo.SeedIfEmpty(ctx, seed); err != nil || n != 0 {
		t.Fatalf("second SeedIfEmpty = %d, %v; want 0", n, err)
	}

	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(seed, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tx := core.Transaction{
		ID:       "t1",
		Date:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Merchant: "CAFE Laila",
		Amount:   core.Money{Cents: -450},
		Category: "Food & Drink",
	}
	if _, err := repo.SeedIfEmpty(ctx, []core.Transaction{tx}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != core.TypeDebit || got.Merchant != "CAFE Laila" || !got.Date.Equal(tx.Date) {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if _, err := repo.GetTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acct := core.Account{
		User:         core.User{ID: "u1", FirstName: "John", LastName: "Doe", Email: "user@test.com"},
		PasswordHash: "hash-1",
	}
	if err := repo.UpsertUser(ctx, acct); err != nil {
		t.Fatal(err)
	}
	acct.ID = "u2"
	acct.PasswordHash = "hash-2"
	if err := repo.UpsertUser(ctx, acct); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetUserByEmail(ctx, "USER@test.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "u1" || got.PasswordHash != "hash-2" {
		t.Fatalf("upsert should keep id and replace hash: %+v", got)
	}
	if u, err := repo.GetUserByID(ctx, "u1"); err != nil || u.FirstName != "John" {
		t.Fatalf("GetUserByID = %+v, %v", u, err)
	}
	if _, err := repo.GetUserByID(ctx, "u2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPasswordReset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	r := ledger.PasswordReset{ID: "r1", Email: "user@test.com", Status: ledger.ResetRequested, RequestedAt: at}
	if err := repo.RecordPasswordReset(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Status = ledger.ResetDelivered
	if err := repo.RecordPasswordReset(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListPasswordResets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != ledger.ResetDelivered || !got[0].RequestedAt.Equal(at) {
		t.Fatalf("unexpected resets %+v", got)
	}
}
