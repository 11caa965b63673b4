package services

import (
	"context"
	"fmt"
	"time"

	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

const statsKey = "dashboard|stats"

type DashboardService struct {
	reader   ledger.TransactionReader
	currency string
	stats    *cache.Query[core.DashboardStats]
}

func NewDashboardService(reader ledger.TransactionReader, currency string, ttl time.Duration) *DashboardService {
	s := &DashboardService{reader: reader, currency: currency}
	if ttl > 0 {
		s.stats = cache.NewQuery[core.DashboardStats](1, ttl)
	}
	return s
}

// Stats aggregates the whole ledger.
func (s *DashboardService) Stats(ctx context.Context) (core.DashboardStats, error) {
	load := func(ctx context.Context) (core.DashboardStats, error) {
		txs, err := s.reader.ListTransactions(ctx)
		if err != nil {
			return core.DashboardStats{}, fmt.Errorf("load dashboard stats: %w", err)
		}
		return core.BuildDashboardStats(txs, s.currency), nil
	}
	if s.stats == nil {
		return load(ctx)
	}
	return s.stats.Get(ctx, statsKey, load)
}

func (s *DashboardService) Currency() string { return s.currency }

func (s *DashboardService) CleanExpired() int {
	if s.stats == nil {
		return 0
	}
	return s.stats.CleanExpired()
}

func (s *DashboardService) CacheStats() (hits, misses int64) {
	if s.stats == nil {
		return 0, 0
	}
	return s.stats.Stats()
}
