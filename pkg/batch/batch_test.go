package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alim08/fin_folio/pkg/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]models.Exchange
	delay map[string]time.Duration
	fail  map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, symbol string, exchange models.Exchange) models.MarketQuote {
	time.Sleep(f.delay[symbol])
	f.mu.Lock()
	f.calls[symbol] = exchange
	f.mu.Unlock()
	if f.fail[symbol] {
		return models.EmptyQuote(symbol, time.Now())
	}
	return models.MarketQuote{Symbol: symbol, CMP: models.Float(1)}
}

type table map[string]models.Exchange

func (t table) ExchangeFor(s string) models.Exchange {
	if ex, ok := t[s]; ok {
		return ex
	}
	return models.DefaultExchange
}

func TestQuotes_PreservesOrderRegardlessOfLatency(t *testing.T) {
	f := &fakeFetcher{
		calls: map[string]models.Exchange{},
		delay: map[string]time.Duration{"A": 60 * time.Millisecond, "B": 0, "C": 30 * time.Millisecond},
	}
	svc := NewService(f, table{})

	got := svc.Quotes(context.Background(), []string{"A", "B", "C"})
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	for i, want := range []string{"A", "B", "C"} {
		if got[i].Symbol != want {
			t.Errorf("got[%d] = %q; want %q", i, got[i].Symbol, want)
		}
	}
}

func TestQuotes_RunsConcurrently(t *testing.T) {
	f := &fakeFetcher{
		calls: map[string]models.Exchange{},
		delay: map[string]time.Duration{"A": 100 * time.Millisecond, "B": 100 * time.Millisecond, "C": 100 * time.Millisecond},
	}
	start := time.Now()
	NewService(f, table{}).Quotes(context.Background(), []string{"A", "B", "C"})
	if el := time.Since(start); el > 250*time.Millisecond {
		t.Errorf("batch took %v; fetches should overlap", el)
	}
}

func TestQuotes_ResolvesExchangeWithDefault(t *testing.T) {
	f := &fakeFetcher{calls: map[string]models.Exchange{}}
	svc := NewService(f, table{"532174": models.BSE})

	svc.Quotes(context.Background(), []string{"532174", "NOTHELD"})
	if f.calls["532174"] != models.BSE {
		t.Errorf("532174 fetched on %q; want BSE", f.calls["532174"])
	}
	if f.calls["NOTHELD"] != models.NSE {
		t.Errorf("NOTHELD fetched on %q; want NSE default", f.calls["NOTHELD"])
	}
}

func TestQuotes_PartialFailureDoesNotFailBatch(t *testing.T) {
	f := &fakeFetcher{calls: map[string]models.Exchange{}, fail: map[string]bool{"B": true}}
	got := NewService(f, table{}).Quotes(context.Background(), []string{"A", "B", "C"})
	if len(got) != 3 || got[1].CMP != nil || got[0].CMP == nil || got[2].CMP == nil {
		t.Errorf("got = %+v", got)
	}
}

func TestQuotes_EmptyAndDuplicates(t *testing.T) {
	f := &fakeFetcher{calls: map[string]models.Exchange{}}
	svc := NewService(f, table{})
	if got := svc.Quotes(context.Background(), []string{}); len(got) != 0 {
		t.Errorf("empty batch returned %d quotes", len(got))
	}
	if got := svc.Quotes(context.Background(), []string{"A", "A"}); len(got) != 2 {
		t.Errorf("duplicate symbols returned %d quotes; want 2", len(got))
	}
}

func TestQuote_ExplicitExchangeWins(t *testing.T) {
	f := &fakeFetcher{calls: map[string]models.Exchange{}}
	svc := NewService(f, table{"X": models.NSE})
	svc.Quote(context.Background(), "X", models.BSE)
	if f.calls["X"] != models.BSE {
		t.Errorf("exchange = %q; want BSE", f.calls["X"])
	}
}

type panickyFetcher struct{ bad string }

func (p panickyFetcher) Fetch(_ context.Context, symbol string, _ models.Exchange) models.MarketQuote {
	if symbol == p.bad {
		panic("cache exploded")
	}
	return models.MarketQuote{Symbol: symbol}
}

func TestQuotes_FetchPanicReachesCaller(t *testing.T) {
	svc := NewService(panickyFetcher{bad: "B"}, table{})

	var recovered interface{}
	func() {
		defer func() { recovered = recover() }()
		svc.Quotes(context.Background(), []string{"A", "B", "C"})
	}()
	if recovered == nil {
		t.Fatal("panic in a fetch goroutine was not re-raised on the caller")
	}
	if s, ok := recovered.(fmt.Stringer); !ok || !strings.Contains(s.String(), "B") {
		t.Errorf("recovered = %v; want it to name symbol B", recovered)
	}
}
