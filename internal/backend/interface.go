// Package backend builds the data layer a process runs against from
// configuration: an in-memory store, SQLite, or a Google Sheets ledger.
package backend

import (
	"context"

	"bankdash/internal/ledger"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Backend is a ready-to-use store plus its probes.
type Backend struct {
	Store ledger.Store
	// Ready reports whether the store can serve reads; wired to /readyz.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
	Type    BackendType
}

// Close runs Cleanup when there is one.
func (b *Backend) Close() error {
	if b == nil || b.Cleanup == nil {
		return nil
	}
	return b.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// splitStore serves transactions from one place and accounts from another.
// The sheets ledger is read-only, so users and resets live in memory.
type splitStore struct {
	ledger.TransactionReader
	ledger.UserStore
	ledger.ResetRecorder
}
