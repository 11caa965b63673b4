// Package ledger declares the storage ports the services depend on and the
// demo dataset every backend can be seeded with.
package ledger

import (
	"context"
	"time"

	"bankdash/internal/core"
)

type (
	// TransactionReader lists transactions newest first.
	TransactionReader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// GetTransaction returns core.ErrNotFound for unknown ids.
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	UserStore interface {
		// GetUserByEmail matches case-insensitively; unknown addresses yield
		// core.ErrNotFound.
		GetUserByEmail(ctx context.Context, email string) (core.Account, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
		UpsertUser(ctx context.Context, a core.Account) error
	}

	ResetRecorder interface {
		RecordPasswordReset(ctx context.Context, r PasswordReset) error
	}

	// Store is what a full backend provides.
	Store interface {
		TransactionReader
		UserStore
		ResetRecorder
	}
)

const (
	ResetRequested = "requested"
	ResetDelivered = "delivered"
)

// PasswordReset is one forgot-password request as it moves from the web tier
// to delivery.
type PasswordReset struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	UserID      string    `json:"user_id,omitempty"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}
