package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/models"
	"github.com/alim08/fin_folio/pkg/redisclient"
)

const redisKeyPrefix = "quote:"

// Redis is a Cache shared by every API replica pointing at the same server.
// Redis failures read as misses so a fetch still goes upstream.
type Redis struct {
	client *redisclient.Client
	expiry time.Duration
	now    func() time.Time
}

// NewRedis stores entries with a server-side expiry, so keys vanish even if the
// janitor never runs.
func NewRedis(client *redisclient.Client, expiry time.Duration) *Redis {
	return &Redis{client: client, expiry: expiry, now: time.Now}
}

func (r *Redis) Get(ctx context.Context, key string) (models.CacheEntry, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, redisclient.ErrNotFound) {
			logger.Log.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		return models.CacheEntry{}, false
	}
	var e models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		logger.Log.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		return models.CacheEntry{}, false
	}
	return e, true
}

func (r *Redis) Set(ctx context.Context, key string, entry models.CacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		logger.Log.Error("cache entry marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.SetEx(ctx, redisKeyPrefix+key, string(raw), r.expiry); err != nil {
		logger.Log.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) EvictOlderThan(ctx context.Context, age time.Duration) int {
	keys, err := r.client.Keys(ctx, redisKeyPrefix+"*")
	if err != nil {
		logger.Log.Warn("redis cache scan failed", zap.Error(err))
		return 0
	}
	cutoff := r.now().Add(-age)
	var stale []string
	for _, k := range keys {
		e, ok := r.Get(ctx, strings.TrimPrefix(k, redisKeyPrefix))
		if ok && e.FetchedAt.Before(cutoff) {
			stale = append(stale, k)
		}
	}
	n, err := r.client.Del(ctx, stale...)
	if err != nil {
		logger.Log.Warn("redis cache evict failed", zap.Error(err))
	}
	return int(n)
}
