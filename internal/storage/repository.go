package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width and always UTC so that stored timestamps sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedIfEmpty inserts txs in one transaction when the table has no rows and
// reports how many were written.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, txs []core.Transaction) (int, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, t := range txs {
		if err := q.InsertTransaction(ctx, toTransactionRow(t)); err != nil {
			return 0, fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded transactions into SQLite", "count", len(txs))
	return len(txs), nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromTransactionRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return fromTransactionRow(row)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.Account, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get user by email: %w", err)
	}
	return toAccount(u), nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return toAccount(u).User, nil
}

// UpsertUser keeps an existing row's id when the email is already present.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, a core.Account) error {
	if err := core.ValidateEmail(a.Email); err != nil {
		return err
	}
	err := r.queries.UpsertUser(ctx, UserRow{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		PasswordHash: a.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecordPasswordReset(ctx context.Context, pr ledger.PasswordReset) error {
	err := r.queries.UpsertPasswordReset(ctx, PasswordResetRow{
		ID:          pr.ID,
		Email:       pr.Email,
		UserID:      pr.UserID,
		Status:      pr.Status,
		RequestedAt: pr.RequestedAt.UTC().Format(timeLayout),
		UpdatedAt:   r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("record password reset: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPasswordResets(ctx context.Context) ([]ledger.PasswordReset, error) {
	rows, err := r.queries.ListPasswordResets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list password resets: %w", err)
	}
	out := make([]ledger.PasswordReset, 0, len(rows))
	for _, row := range rows {
		at, err := time.Parse(timeLayout, row.RequestedAt)
		if err != nil {
			return nil, fmt.Errorf("parse requested_at for %s: %w", row.ID, err)
		}
		out = append(out, ledger.PasswordReset{
			ID:          row.ID,
			Email:       row.Email,
			UserID:      row.UserID,
			Status:      row.Status,
			RequestedAt: at,
		})
	}
	return out, nil
}

func toTransactionRow(t core.Transaction) TransactionRow {
	typ := t.Type
	if typ == "" {
		typ = core.TypeFor(t.Amount)
	}
	return TransactionRow{
		ID:              t.ID,
		OccurredAt:      t.Date.UTC().Format(timeLayout),
		Merchant:        t.Merchant,
		AmountCents:     t.Amount.Cents,
		Type:            string(typ),
		Category:        t.Category,
		Description:     t.Description,
		Account:         t.Account,
		Status:          t.Status,
		PaymentMethod:   t.PaymentMethod,
		ReferenceNumber: t.ReferenceNumber,
	}
}

func fromTransactionRow(row TransactionRow) (core.Transaction, error) {
	at, err := time.Parse(timeLayout, row.OccurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at for %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:              row.ID,
		Date:            at,
		Merchant:        row.Merchant,
		Amount:          core.Money{Cents: row.AmountCents},
		Type:            core.TransactionType(row.Type),
		Category:        row.Category,
		Description:     row.Description,
		Account:         row.Account,
		Status:          row.Status,
		PaymentMethod:   row.PaymentMethod,
		ReferenceNumber: row.ReferenceNumber,
	}, nil
}

func toAccount(u UserRow) core.Account {
	return core.Account{
		User: core.User{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		},
		PasswordHash: u.PasswordHash,
	}
}
