package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID              string
	OccurredAt      string
	Merchant        string
	AmountCents     int64
	Type            string
	Category        string
	Description     string
	Account         string
	Status          string
	PaymentMethod   string
	ReferenceNumber string
}

type UserRow struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
}

type PasswordResetRow struct {
	ID          string
	Email       string
	UserID      string
	Status      string
	RequestedAt string
	UpdatedAt   string
}

const transactionColumns = `id, occurred_at, merchant, amount_cents, type, category, description, account, status, payment_method, reference_number`

func scanTransaction(s interface{ Scan(...any) error }) (TransactionRow, error) {
	var r TransactionRow
	err := s.Scan(&r.ID, &r.OccurredAt, &r.Merchant, &r.AmountCents, &r.Type, &r.Category,
		&r.Description, &r.Account, &r.Status, &r.PaymentMethod, &r.ReferenceNumber)
	return r, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY occurred_at DESC, seq ASC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.OccurredAt, r.Merchant, r.AmountCents, r.Type, r.Category,
		r.Description, r.Account, r.Status, r.PaymentMethod, r.ReferenceNumber)
	return err
}

const getUserByEmail = `SELECT id, email, first_name, last_name, password_hash FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
	return u, err
}

const getUserByID = `SELECT id, email, first_name, last_name, password_hash FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
	return u, err
}

const upsertUser = `INSERT INTO users (id, email, first_name, last_name, password_hash)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    password_hash = excluded.password_hash`

func (q *Queries) UpsertUser(ctx context.Context, u UserRow) error {
	_, err := q.db.ExecContext(ctx, upsertUser, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash)
	return err
}

const upsertPasswordReset = `INSERT INTO password_resets (id, email, user_id, status, requested_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    status = excluded.status,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertPasswordReset(ctx context.Context, r PasswordResetRow) error {
	_, err := q.db.ExecContext(ctx, upsertPasswordReset, r.ID, r.Email, r.UserID, r.Status, r.RequestedAt, r.UpdatedAt)
	return err
}

const listPasswordResets = `SELECT id, email, user_id, status, requested_at, updated_at FROM password_resets ORDER BY requested_at ASC`

func (q *Queries) ListPasswordResets(ctx context.Context) ([]PasswordResetRow, error) {
	rows, err := q.db.QueryContext(ctx, listPasswordResets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PasswordResetRow
	for rows.Next() {
		var r PasswordResetRow
		if err := rows.Scan(&r.ID, &r.Email, &r.UserID, &r.Status, &r.RequestedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
