package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/batch"
	"github.com/alim08/fin_folio/pkg/cache"
	"github.com/alim08/fin_folio/pkg/config"
	"github.com/alim08/fin_folio/pkg/holdings"
	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/quote"
	"github.com/alim08/fin_folio/pkg/redisclient"
)

func main() {
	if err := logger.Init("api"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer log.Sync()

	log.Info("starting portfolio API server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	table, err := holdings.Load(cfg.HoldingsFile)
	if err != nil {
		log.Fatal("failed to load holdings", zap.Error(err))
	}
	log.Info("holdings loaded", zap.Int("count", table.Len()), zap.String("file", cfg.HoldingsFile))

	store, closeStore, err := newCache(cfg)
	if err != nil {
		log.Fatal("failed to set up quote cache", zap.Error(err))
	}
	defer closeStore()

	fetcher := quote.NewFetcher(quote.Options{
		BaseURL: cfg.QuoteBaseURL,
		TTL:     cfg.CacheTTL,
		Timeout: cfg.FetchTimeout,
		Cache:   store,
	})
	srv := NewServer(batch.NewService(fetcher, table))

	janitor := startJanitor(store, fetcher.TTL())
	defer janitor.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// newCache picks the quote cache backend. The returned func releases it.
func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.CacheBackend != config.BackendRedis {
		return cache.NewMemory(), func() {}, nil
	}

	client, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		logger.Log.Warn("redis not reachable at startup, cache reads will miss", zap.Error(err))
	}
	// Expiry is twice the TTL so a stale entry is still around for the janitor to count.
	return cache.NewRedis(client, 2*cfg.CacheTTL), func() { client.Close() }, nil
}

// startJanitor drops entries older than ttl once per ttl.
func startJanitor(store cache.Cache, ttl time.Duration) *cron.Cron {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(ttl), cron.FuncJob(func() { sweep(store, ttl) }))
	c.Start()
	return c
}

func sweep(store cache.Cache, ttl time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n := store.EvictOlderThan(ctx, ttl)
	if n > 0 {
		metrics.CacheEvictions.Add(float64(n))
		logger.Log.Debug("evicted stale quotes", zap.Int("count", n))
	}
	return n
}
