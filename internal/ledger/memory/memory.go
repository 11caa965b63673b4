package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

// SeedFile is the optional dataset read by NewFromDir.
const SeedFile = "transactions.json"

// Store keeps the whole dataset in process. Transactions are held newest
// first and never change after construction.
type Store struct {
	mu     sync.RWMutex
	txs    []core.Transaction
	byID   map[string]int
	users  map[string]core.Account // keyed by lower-cased email
	resets []ledger.PasswordReset
}

func New(txs []core.Transaction) *Store {
	sorted := append([]core.Transaction(nil), txs...)
	ledger.SortNewestFirst(sorted)

	byID := make(map[string]int, len(sorted))
	for i, t := range sorted {
		byID[t.ID] = i
	}
	return &Store{
		txs:   sorted,
		byID:  byID,
		users: make(map[string]core.Account),
	}
}

// NewFromDir seeds from dir/transactions.json when it exists, otherwise
// from count generated demo transactions ending at now.
func NewFromDir(dir string, count int, now time.Time) (*Store, error) {
	txs, err := ledger.LoadTransactionsFile(filepath.Join(dir, SeedFile))
	switch {
	case err == nil:
		return New(txs), nil
	case errors.Is(err, os.ErrNotExist):
		return New(ledger.GenerateTransactions(count, now, ledger.DemoSeed)), nil
	default:
		return nil, err
	}
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.txs[i], nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.users {
		if a.ID == id {
			return a.User, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) UpsertUser(_ context.Context, a core.Account) error {
	if err := core.ValidateEmail(a.Email); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(a.Email)] = a
	return nil
}

func (s *Store) RecordPasswordReset(_ context.Context, r ledger.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resets {
		if s.resets[i].ID == r.ID {
			s.resets[i] = r
			return nil
		}
	}
	s.resets = append(s.resets, r)
	return nil
}

// PasswordResets returns the recorded reset requests in arrival order.
func (s *Store) PasswordResets() []ledger.PasswordReset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.PasswordReset(nil), s.resets...)
}
