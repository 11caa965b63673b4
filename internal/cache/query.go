package cache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Query caches loader results per key. A fresh entry is served from memory;
// a stale or missing one triggers the loader, and concurrent callers asking
// for the same key share a single load. Errors are never cached.
type Query[T any] struct {
	store       *LRUCache[T]
	group       singleflight.Group
	loadTimeout time.Duration
	hits        atomic.Int64
	misses      atomic.Int64
}

// DefaultLoadTimeout bounds a shared load once it is detached from the
// callers' contexts.
const DefaultLoadTimeout = 30 * time.Second

func NewQuery[T any](maxSize int, staleAfter time.Duration) *Query[T] {
	return &Query[T]{store: NewLRUCache[T](maxSize, staleAfter), loadTimeout: DefaultLoadTimeout}
}

// Key joins parts into a stable cache key such as "transactions|cafe|2024-01-15|2".
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}

func (q *Query[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := q.store.Get(key); ok {
		q.hits.Add(1)
		return v, nil
	}
	q.misses.Add(1)

	// The load is shared, so it must outlive any one caller giving up.
	ch := q.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.loadTimeout)
		defer cancel()
		v, err := load(lctx)
		if err != nil {
			return v, err
		}
		q.store.Set(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Set stores v under key as if it had just been loaded.
func (q *Query[T]) Set(key string, v T) { q.store.Set(key, v) }

// Invalidate drops key so the next Get loads it again.
func (q *Query[T]) Invalidate(key string) { q.store.Delete(key) }

func (q *Query[T]) Purge() { q.store.Purge() }

func (q *Query[T]) CleanExpired() int { return q.store.CleanExpired() }

// Stats returns hit and miss counters.
func (q *Query[T]) Stats() (hits, misses int64) {
	return q.hits.Load(), q.misses.Load()
}
