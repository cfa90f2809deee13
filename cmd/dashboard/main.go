package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/aggregator"
	"github.com/alim08/fin_folio/pkg/config"
	"github.com/alim08/fin_folio/pkg/holdings"
	"github.com/alim08/fin_folio/pkg/logger"
)

func main() {
	if err := logger.Init("dashboard"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	table, err := holdings.Load(cfg.HoldingsFile)
	if err != nil {
		log.Fatal("failed to load holdings", zap.Error(err))
	}

	// A batch waits on the slowest symbol, so allow a few fetch timeouts.
	client := aggregator.NewClient(cfg.APIURL, 3*cfg.FetchTimeout)
	refresher := aggregator.NewRefresher(table, client, cfg.RefreshInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher.Start(ctx)
	log.Info("refresher started",
		zap.String("api_url", cfg.APIURL),
		zap.Duration("interval", cfg.RefreshInterval),
		zap.Int("holdings", table.Len()))

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.DashboardPort),
		Handler:     NewServer(refresher).Routes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("dashboard listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown signal received")

	cancel()
	refresher.Stop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
}
