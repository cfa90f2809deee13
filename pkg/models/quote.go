package models

import "time"

// TimestampLayout is ISO-8601 with millisecond precision, UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// MarketQuote is the normalized result of one market data fetch. Nil fields mean
// "unknown", never zero.
type MarketQuote struct {
    Symbol         string   `json:"symbol"`
    CMP            *float64 `json:"cmp"`
    PERatio        *float64 `json:"peRatio"`
    LatestEarnings *string  `json:"latestEarnings"`
    Timestamp      string   `json:"timestamp"`
    Cached         bool     `json:"cached"`
}

// EmptyQuote is the fallback returned when a fetch fails.
func EmptyQuote(symbol string, now time.Time) MarketQuote {
    return MarketQuote{
        Symbol:    symbol,
        Timestamp: now.UTC().Format(TimestampLayout),
    }
}

// CacheEntry holds the last successful quote for an (exchange, symbol) key.
type CacheEntry struct {
    Quote     MarketQuote `json:"quote"`
    FetchedAt time.Time   `json:"fetchedAt"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
    return now.Sub(e.FetchedAt) < ttl
}

// Float returns a pointer to v, for building quotes.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
