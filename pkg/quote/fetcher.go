// Package quote fetches market quotes from the public quote page, behind a cache.
package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/cache"
	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/models"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultTimeout = 10 * time.Second
	DefaultBaseURL = "https://www.google.com/finance/quote"

	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxPageBytes = 2 << 20

	// earningsLabelLayout matches the en-US short date the dashboard shows.
	earningsLabelLayout = "Jan 2, 2006"
)

// Options configures a Fetcher. Zero values fall back to the defaults above.
type Options struct {
	BaseURL   string
	TTL       time.Duration
	Timeout   time.Duration
	Cache     cache.Cache
	Extractor Extractor
	Client    *http.Client
}

// Fetcher resolves quotes through a TTL cache and a single upstream request.
type Fetcher struct {
	baseURL   string
	ttl       time.Duration
	cache     cache.Cache
	extractor Extractor
	client    *http.Client
	now       func() time.Time
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		baseURL:   opts.BaseURL,
		ttl:       opts.TTL,
		cache:     opts.Cache,
		extractor: opts.Extractor,
		client:    opts.Client,
		now:       time.Now,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.ttl <= 0 {
		f.ttl = DefaultTTL
	}
	if f.cache == nil {
		f.cache = cache.NewMemory()
	}
	if f.extractor == nil {
		f.extractor = RegexExtractor{}
	}
	if f.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		f.client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return f
}

// TTL is the age after which a cached quote is refetched.
func (f *Fetcher) TTL() time.Duration { return f.ttl }

// Fetch returns a quote for symbol on exchange. It never fails: upstream problems
// yield a quote with nil fields and Cached=false.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, exchange models.Exchange) models.MarketQuote {
	key := cache.Key(exchange, symbol)

	if e, ok := f.cache.Get(ctx, key); ok && e.Fresh(f.now(), f.ttl) {
		metrics.CacheHits.Inc()
		q := e.Quote
		q.Cached = true
		return q
	}
	metrics.CacheMisses.Inc()

	start := time.Now()
	fields, err := f.fetchPage(ctx, symbol, exchange)
	metrics.QuoteFetchLatency.WithLabelValues(string(exchange)).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Log.Warn("quote fetch failed",
			zap.String("symbol", symbol),
			zap.String("exchange", string(exchange)),
			zap.Error(err))
		metrics.QuoteFetchTotal.WithLabelValues(string(exchange), "error").Inc()
		return models.EmptyQuote(symbol, f.now())
	}
	metrics.QuoteFetchTotal.WithLabelValues(string(exchange), "ok").Inc()

	now := f.now()
	if fields.Price == nil {
		metrics.QuoteExtractMisses.WithLabelValues("price").Inc()
	}
	if fields.PERatio == nil {
		metrics.QuoteExtractMisses.WithLabelValues("pe_ratio").Inc()
	}
	if fields.LatestEarnings == nil {
		label := now.Format(earningsLabelLayout)
		fields.LatestEarnings = &label
	}

	q := models.MarketQuote{
		Symbol:         symbol,
		CMP:            fields.Price,
		PERatio:        fields.PERatio,
		LatestEarnings: fields.LatestEarnings,
		Timestamp:      now.UTC().Format(models.TimestampLayout),
	}
	f.cache.Set(ctx, key, models.CacheEntry{Quote: q, FetchedAt: now})
	return q
}

// QuoteURL builds the page URL; BSE scrips are addressed with the BOM prefix.
func (f *Fetcher) QuoteURL(symbol string, exchange models.Exchange) string {
	prefix := "NSE"
	if exchange == models.BSE {
		prefix = "BOM"
	}
	return fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(prefix+":"+symbol))
}

func (f *Fetcher) fetchPage(ctx context.Context, symbol string, exchange models.Exchange) (Fields, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.QuoteURL(symbol, exchange), nil)
	if err != nil {
		return Fields{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return Fields{}, errors.Wrap(err, "failed to reach quote page")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return Fields{}, errors.Errorf("quote page returned status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Fields{}, errors.Wrap(err, "failed to read quote page")
	}
	return f.extract(page)
}

// extract shields Fetch from a panicking Extractor.
func (f *Fetcher) extract(page []byte) (fields Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("extractor panic: %v", r)
		}
	}()
	return f.extractor.Extract(page), nil
}
