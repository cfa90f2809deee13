package metrics

import (
  "net/http"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
  // Quote fetch metrics
  QuoteFetchTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "quote_fetch_total",
      Help: "Upstream quote page fetches by exchange and outcome",
    },
    []string{"exchange", "outcome"},
  )
  QuoteFetchLatency = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "quote_fetch_latency_seconds",
      Help:    "Time to fetch and extract one quote page",
      Buckets: prometheus.DefBuckets,
    },
    []string{"exchange"},
  )
  QuoteExtractMisses = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "quote_extract_misses_total",
      Help: "Fields the extractor could not find in a fetched page",
    },
    []string{"field"},
  )

  // Cache metrics
  CacheHits = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_hits_total",
      Help: "Quotes served from cache",
    })
  CacheMisses = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_misses_total",
      Help: "Quote lookups that missed or found a stale entry",
    })
  CacheEvictions = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_evictions_total",
      Help: "Entries removed by the age-based janitor",
    })

  // Batch metrics
  BatchSize = prometheus.NewHistogram(
    prometheus.HistogramOpts{
      Name:    "batch_symbols",
      Help:    "Symbols requested per batch call",
      Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
    })

  // API metrics
  APIRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "api_request_duration_seconds",
      Help:    "API request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"method", "endpoint", "status"},
  )
  APIRequestTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "api_requests_total",
      Help: "Total API requests",
    },
    []string{"method", "endpoint", "status"},
  )

  // Redis metrics
  RedisOperationDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "redis_operation_duration_seconds",
      Help:    "Redis operation duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  RedisErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "redis_errors_total",
      Help: "Total Redis errors",
    },
    []string{"operation"},
  )

  // Dashboard refresh metrics
  RefreshTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "dashboard_refresh_total",
      Help: "Dashboard refresh cycles by outcome",
    },
    []string{"outcome"},
  )
  RefreshLatency = prometheus.NewHistogram(
    prometheus.HistogramOpts{
      Name:    "dashboard_refresh_latency_seconds",
      Help:    "Time for one refresh cycle",
      Buckets: prometheus.DefBuckets,
    })
  WebSocketClients = prometheus.NewGauge(
    prometheus.GaugeOpts{
      Name: "dashboard_websocket_clients",
      Help: "Connected dashboard WebSocket clients",
    })
)

func init() {
  // MustRegister panics if registration fails (e.g. duplicate)
  prometheus.MustRegister(
    QuoteFetchTotal, QuoteFetchLatency, QuoteExtractMisses,
    CacheHits, CacheMisses, CacheEvictions,
    BatchSize,
    APIRequestDuration, APIRequestTotal,
    RedisOperationDuration, RedisErrors,
    RefreshTotal, RefreshLatency, WebSocketClients,
  )
}

// Handler serves the default registry.
func Handler() http.Handler {
  return promhttp.Handler()
}
