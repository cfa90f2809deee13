// Package batch fans a list of symbols out to the quote fetcher.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/models"
)

// QuoteFetcher is satisfied by *quote.Fetcher.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol string, exchange models.Exchange) models.MarketQuote
}

// ExchangeResolver is satisfied by *holdings.Table.
type ExchangeResolver interface {
	ExchangeFor(symbol string) models.Exchange
}

type Service struct {
	fetcher   QuoteFetcher
	exchanges ExchangeResolver
}

func NewService(fetcher QuoteFetcher, exchanges ExchangeResolver) *Service {
	return &Service{fetcher: fetcher, exchanges: exchanges}
}

// Quotes fetches every symbol concurrently and returns results in input order.
// It waits for all fetches; a failed symbol shows up as a null quote.
func (s *Service) Quotes(ctx context.Context, symbols []string) []models.MarketQuote {
	metrics.BatchSize.Observe(float64(len(symbols)))

	out := make([]models.MarketQuote, len(symbols))
	var (
		wg       sync.WaitGroup
		panicked atomic.Value
	)
	wg.Add(len(symbols))
	for i, sym := range symbols {
		go func(i int, sym string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicked.CompareAndSwap(nil, fetchPanic{symbol: sym, value: r})
				}
			}()
			out[i] = s.fetcher.Fetch(ctx, sym, s.exchanges.ExchangeFor(sym))
		}(i, sym)
	}
	wg.Wait()

	// A panic in a fetch goroutine is re-raised here, on the caller's goroutine,
	// so the caller's recovery applies instead of the process dying.
	if p := panicked.Load(); p != nil {
		panic(p)
	}
	return out
}

// fetchPanic carries a recovered fetch panic back to the caller of Quotes.
type fetchPanic struct {
	symbol string
	value  interface{}
}

func (p fetchPanic) String() string {
	return fmt.Sprintf("quote fetch for %s panicked: %v", p.symbol, p.value)
}

// Quote fetches a single symbol. An empty exchange is resolved from the holdings table.
func (s *Service) Quote(ctx context.Context, symbol string, exchange models.Exchange) models.MarketQuote {
	if exchange == "" {
		exchange = s.exchanges.ExchangeFor(symbol)
	}
	return s.fetcher.Fetch(ctx, symbol, exchange)
}
