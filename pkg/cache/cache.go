// Package cache holds the last good quote per (exchange, symbol) key.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/alim08/fin_folio/pkg/models"
)

// Cache stores quote entries. Implementations must be safe for concurrent use;
// concurrent Set calls for one key may land in any order.
type Cache interface {
	Get(ctx context.Context, key string) (models.CacheEntry, bool)
	Set(ctx context.Context, key string, entry models.CacheEntry)
	// EvictOlderThan drops entries fetched more than age ago and returns how many went.
	EvictOlderThan(ctx context.Context, age time.Duration) int
}

// Key builds the cache key for a symbol on an exchange.
func Key(exchange models.Exchange, symbol string) string {
	return string(exchange) + ":" + symbol
}

// Memory is a process-local Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]models.CacheEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (models.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *Memory) Set(_ context.Context, key string, entry models.CacheEntry) {
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

func (m *Memory) EvictOlderThan(_ context.Context, age time.Duration) int {
	cutoff := m.now().Add(-age)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.FetchedAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
