// Package services answers the dashboard's read queries on top of a ledger
// backend, caching results per query the way the browser client used to.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

const maxCachedQueries = 256

// TransactionService lists and reads transactions. Results are cached per
// resource and filter set; a ttl of zero disables caching.
type TransactionService struct {
	reader  ledger.TransactionReader
	loc     *time.Location
	pages   *cache.Query[core.Page[core.Transaction]]
	records *cache.Query[core.Transaction]
}

func NewTransactionService(reader ledger.TransactionReader, loc *time.Location, ttl time.Duration) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	s := &TransactionService{reader: reader, loc: loc}
	if ttl > 0 {
		s.pages = cache.NewQuery[core.Page[core.Transaction]](maxCachedQueries, ttl)
		s.records = cache.NewQuery[core.Transaction](maxCachedQueries, ttl)
	}
	return s
}

// Location is the zone date filters are evaluated in.
func (s *TransactionService) Location() *time.Location { return s.loc }

// List returns one page of transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, f core.Filters) (core.Page[core.Transaction], error) {
	f = f.Normalized()
	load := func(ctx context.Context) (core.Page[core.Transaction], error) {
		txs, err := s.reader.ListTransactions(ctx)
		if err != nil {
			return core.Page[core.Transaction]{}, fmt.Errorf("list transactions: %w", err)
		}
		return core.Paginate(core.FilterTransactions(txs, f, s.loc), f.Page), nil
	}
	if s.pages == nil {
		return load(ctx)
	}
	key := cache.Key("transactions", strings.ToLower(f.Merchant), f.DateParam(), f.Page)
	return s.pages.Get(ctx, key, load)
}

// Get returns core.ErrNotFound for unknown ids.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	load := func(ctx context.Context) (core.Transaction, error) {
		t, err := s.reader.GetTransaction(ctx, id)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
		}
		return t, err
	}
	if s.records == nil {
		return load(ctx)
	}
	return s.records.Get(ctx, cache.Key("transaction", id), load)
}

// CleanExpired lets a cache.Manager sweep both caches.
func (s *TransactionService) CleanExpired() int {
	if s.pages == nil {
		return 0
	}
	return s.pages.CleanExpired() + s.records.CleanExpired()
}

// CacheStats sums hits and misses across both caches.
func (s *TransactionService) CacheStats() (hits, misses int64) {
	if s.pages == nil {
		return 0, 0
	}
	ph, pm := s.pages.Stats()
	rh, rm := s.records.Stats()
	return ph + rh, pm + rm
}
