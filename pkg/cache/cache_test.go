package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alim08/fin_folio/pkg/models"
)

func TestKey(t *testing.T) {
	if got := Key(models.BSE, "532174"); got != "BSE:532174" {
		t.Errorf("Key = %q", got)
	}
}

func TestMemory_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Set(ctx, "NSE:TCS", models.CacheEntry{Quote: models.MarketQuote{CMP: models.Float(1)}})
	m.Set(ctx, "NSE:TCS", models.CacheEntry{Quote: models.MarketQuote{CMP: models.Float(2)}})

	e, ok := m.Get(ctx, "NSE:TCS")
	if !ok || *e.Quote.CMP != 2 {
		t.Fatalf("Get = %+v, %v; want overwritten entry", e, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d; no history should be retained", m.Len())
	}
}

func TestMemory_EvictOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Set(ctx, "old", models.CacheEntry{FetchedAt: now.Add(-10 * time.Minute)})
	m.Set(ctx, "new", models.CacheEntry{FetchedAt: now.Add(-time.Minute)})

	if n := m.EvictOlderThan(ctx, 5*time.Minute); n != 1 {
		t.Fatalf("evicted %d; want 1", n)
	}
	if _, ok := m.Get(ctx, "old"); ok {
		t.Error("old entry survived eviction")
	}
	if _, ok := m.Get(ctx, "new"); !ok {
		t.Error("fresh entry was evicted")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Set(ctx, "NSE:TCS", models.CacheEntry{FetchedAt: time.Now()})
		}()
		go func() {
			defer wg.Done()
			m.Get(ctx, "NSE:TCS")
		}()
	}
	wg.Wait()
	if _, ok := m.Get(ctx, "NSE:TCS"); !ok {
		t.Error("entry missing after concurrent writes")
	}
}
