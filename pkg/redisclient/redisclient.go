package redisclient

import (
  "context"
  "errors"
  "sync/atomic"
  "time"

  "github.com/cenkalti/backoff/v4"
  "github.com/go-redis/redis/v8"
  "go.uber.org/zap"

  "github.com/alim08/fin_folio/pkg/logger"
  "github.com/alim08/fin_folio/pkg/metrics"
)

var (
  ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
  // ErrNotFound is returned by Get for a missing key.
  ErrNotFound = errors.New("redis: key not found")
)

const (
  stateClosed int32 = iota
  stateOpen
  stateHalfOpen

  failureThreshold = 5
  openCooldown     = 30 * time.Second
)

type Client struct {
  rdb *redis.Client
  // Circuit breaker state
  failureCount int64
  lastFailure  int64
  state        int32
}

// New constructs a Client with pool defaults and verifies the URL.
func New(redisURL string) (*Client, error) {
  opt, err := redis.ParseURL(redisURL)
  if err != nil {
    return nil, err
  }
  opt.PoolSize = 20
  opt.MinIdleConns = 2
  opt.MaxRetries = 3
  opt.DialTimeout = 5 * time.Second
  opt.ReadTimeout = 3 * time.Second
  opt.WriteTimeout = 3 * time.Second
  opt.IdleTimeout = 5 * time.Minute
  return &Client{rdb: redis.NewClient(opt)}, nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(rdb *redis.Client) *Client {
  return &Client{rdb: rdb}
}

// withMetrics wraps operations with metrics collection
func (c *Client) withMetrics(operation string, fn func() error) error {
  start := time.Now()
  err := fn()
  duration := time.Since(start).Seconds()

  metrics.RedisOperationDuration.WithLabelValues(operation, getStatus(err)).Observe(duration)
  if err != nil && !errors.Is(err, ErrNotFound) {
    metrics.RedisErrors.WithLabelValues(operation).Inc()
  }

  return err
}

// getStatus returns "success" or "error" for metrics
func getStatus(err error) string {
  if err != nil && !errors.Is(err, ErrNotFound) {
    return "error"
  }
  return "success"
}

// allow reports whether a call may proceed. After the cooldown an open breaker
// admits exactly one probe by moving to half-open; other callers are refused
// until the probe's outcome closes or reopens it.
func (c *Client) allow() bool {
  switch atomic.LoadInt32(&c.state) {
  case stateClosed:
    return true
  case stateOpen:
    last := time.Unix(atomic.LoadInt64(&c.lastFailure), 0)
    if time.Since(last) >= openCooldown {
      return atomic.CompareAndSwapInt32(&c.state, stateOpen, stateHalfOpen)
    }
  }
  return false
}

// checkCircuitBreaker records the outcome of a call
func (c *Client) checkCircuitBreaker(err error) {
  if err != nil && err != redis.Nil {
    atomic.AddInt64(&c.failureCount, 1)
    atomic.StoreInt64(&c.lastFailure, time.Now().Unix())

    if atomic.LoadInt64(&c.failureCount) >= failureThreshold || atomic.LoadInt32(&c.state) == stateHalfOpen {
      if atomic.SwapInt32(&c.state, stateOpen) != stateOpen {
        logger.Log.Warn("circuit breaker opened", zap.String("operation", "redis"))
      }
    }
    return
  }
  atomic.StoreInt64(&c.failureCount, 0)
  atomic.StoreInt32(&c.state, stateClosed)
}

// Get returns the string value at key, or ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
  var val string
  err := c.withMetrics("get", func() error {
    if !c.allow() {
      return ErrCircuitBreakerOpen
    }
    v, err := c.rdb.Get(ctx, key).Result()
    c.checkCircuitBreaker(err)
    if err == redis.Nil {
      return ErrNotFound
    }
    val = v
    return err
  })
  return val, err
}

// SetEx writes key with an expiry, retrying transient failures with backoff.
func (c *Client) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
  return c.withMetrics("set", func() error {
    // Every attempt goes through the breaker, so retries stop once it opens.
    op := func() error {
      if !c.allow() {
        return backoff.Permanent(ErrCircuitBreakerOpen)
      }
      ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
      defer cancel()
      err := c.rdb.Set(ctx, key, value, ttl).Err()
      c.checkCircuitBreaker(err)
      return err
    }
    return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
  })
}

// Keys walks every key matching pattern with SCAN.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
  var keys []string
  err := c.withMetrics("scan", func() error {
    if !c.allow() {
      return ErrCircuitBreakerOpen
    }
    var cursor uint64
    for {
      page, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
      c.checkCircuitBreaker(err)
      if err != nil {
        return err
      }
      keys = append(keys, page...)
      if next == 0 {
        return nil
      }
      cursor = next
    }
  })
  return keys, err
}

// Del removes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
  if len(keys) == 0 {
    return 0, nil
  }
  var n int64
  err := c.withMetrics("del", func() error {
    if !c.allow() {
      return ErrCircuitBreakerOpen
    }
    var err error
    n, err = c.rdb.Del(ctx, keys...).Result()
    c.checkCircuitBreaker(err)
    return err
  })
  return n, err
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
  return c.withMetrics("ping", func() error {
    return c.rdb.Ping(ctx).Err()
  })
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
  return c.rdb.Close()
}

// Client returns the underlying Redis client for direct access
func (c *Client) Client() *redis.Client {
  return c.rdb
}
