// Package main runs the insider-analysis HTTP server: the analysis
// endpoints, the SSE monitor, and the Prometheus metrics listener.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/analysis"
	"github.com/McomEngine/solinsidefinder/internal/api"
	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/observability"
	"github.com/McomEngine/solinsidefinder/internal/pricefeed"
	"github.com/McomEngine/solinsidefinder/internal/solana"
	"github.com/McomEngine/solinsidefinder/internal/wallet"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, monitor wakeup)")
	redisURL := flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection URL")
	useMemory := flag.Bool("use-memory", false, "Use the in-memory cache instead of Redis")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":3001"), "HTTP listen address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	visitLog := flag.String("visit-log", envOr("VISIT_LOG", "log/visit.log"), "Access log file (empty disables)")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	txWorkers := flag.Int("tx-workers", 8, "Concurrent parsed-transaction fetches per request")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *redisURL == "" {
		logger.Fatal("--redis-url is required (use --use-memory for the in-memory cache)")
	}

	rpc := solana.NewHTTPClient(*rpcEndpoint)

	var store cache.Cache
	if *useMemory {
		store = cache.NewMemory()
	} else {
		redisCache, err := cache.NewRedis(context.Background(), *redisURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("invalid redis URL")
		}
		defer redisCache.Close()
		store = redisCache
	}

	feed := pricefeed.New(pricefeed.Options{Cache: store, Logger: logger})
	aggregator := wallet.New(wallet.Options{RPC: rpc, Cache: store, Logger: logger})
	analyzer := analysis.New(analysis.Options{
		RPC:        rpc,
		Cache:      store,
		Aggregator: aggregator,
		Feed:       feed,
		Logger:     logger,
		TxWorkers:  *txWorkers,
	})

	server := api.NewServer(api.Options{
		Analyzer:     analyzer,
		RPC:          rpc,
		Logger:       logger,
		WSEndpoint:   *wsEndpoint,
		VisitLogFile: *visitLog,
	})

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:         *listenAddr,
		Handler:      server.Router(),
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
	}
	metricsServer := &http.Server{
		Addr:    *metricsAddr,
		Handler: observability.Handler(),
	}

	go func() {
		logger.WithField("addr", *metricsAddr).Info("metrics listener started")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics listener failed")
		}
	}()
	go func() {
		logger.WithField("addr", *listenAddr).Info("server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")

	// A second signal forces immediate exit.
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Warn("forcing immediate shutdown")
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("metrics shutdown failed")
	}

	logger.Info("shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
