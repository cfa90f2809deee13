package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/models"
)

// BatchFetcher is satisfied by *Client.
type BatchFetcher interface {
	BatchQuotes(ctx context.Context, symbols []string) ([]models.MarketQuote, error)
}

// HoldingsSource is satisfied by *holdings.Table.
type HoldingsSource interface {
	All() []models.Holding
}

// Refresher rebuilds the portfolio snapshot on a schedule. At most one cycle runs at a time.
type Refresher struct {
	source   HoldingsSource
	fetcher  BatchFetcher
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	inflight atomic.Bool
	cron     *cron.Cron

	mu       sync.RWMutex
	snapshot models.Snapshot
	subs     map[chan models.Snapshot]struct{}
}

func NewRefresher(source HoldingsSource, fetcher BatchFetcher, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Refresher{
		source:   source,
		fetcher:  fetcher,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		snapshot: models.Snapshot{
			Stocks:  []models.EnrichedHolding{},
			Sectors: []models.SectorSummary{},
			Loading: true,
		},
		subs: make(map[chan models.Snapshot]struct{}),
	}
}

// Start runs a first cycle immediately and then one per interval until ctx ends or Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	cl := cronLogger{logger.Named("cron").Sugar()}
	r.cron = cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))
	r.cron.Schedule(cron.Every(r.interval), cron.FuncJob(func() { r.Refresh(ctx) }))
	r.cron.Start()

	go r.Refresh(ctx)
	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop halts the schedule and waits for a running cycle to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Refresh runs one cycle unless another is in flight; it reports whether it ran.
func (r *Refresher) Refresh(ctx context.Context) bool {
	if !r.inflight.CompareAndSwap(false, true) {
		metrics.RefreshTotal.WithLabelValues("skipped").Inc()
		logger.Log.Debug("refresh skipped, previous cycle still running")
		return false
	}
	defer r.inflight.Store(false)

	start := time.Now()
	defer func() { metrics.RefreshLatency.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	holdings := r.source.All()
	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}

	quotes, err := r.fetcher.BatchQuotes(ctx, symbols)

	r.mu.Lock()
	if err != nil {
		logger.Log.Error("error fetching market data", zap.Error(err))
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		r.snapshot.Error = MarketDataError
		r.snapshot.Loading = false
	} else {
		p := Compute(holdings, quotes)
		now := r.now()
		r.snapshot = models.Snapshot{
			Stocks:     p.Stocks,
			Sectors:    p.Sectors,
			Totals:     p.Totals,
			LastUpdate: &now,
		}
		metrics.RefreshTotal.WithLabelValues("ok").Inc()
	}
	snap := r.snapshot
	r.mu.Unlock()

	r.publish(snap)
	return true
}

// Snapshot returns the latest published state.
func (r *Refresher) Snapshot() models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Subscribe delivers every new snapshot. Slow readers only ever see the latest one.
func (r *Refresher) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}

func (r *Refresher) publish(s models.Snapshot) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// cronLogger routes cron's logging through zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
