// Package main provides the API server entry point for the swipe trader
// service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swipe-trader/internal/adapter"
	"github.com/swipe-trader/internal/api"
	"github.com/swipe-trader/internal/config"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/service"
	"github.com/swipe-trader/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.L()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	userRepo := storage.NewUserRepository(postgres)
	portfolioRepo := storage.NewPortfolioRepository(postgres)
	watchlistRepo := storage.NewWatchlistRepository(postgres)
	activityRepo := storage.NewActivityRepository(clickhouse)
	tokenCache := storage.NewTokenCache(redis, cfg.Cache.TrendingTTL)

	// Initialize external adapters
	jupiterClient := adapter.NewJupiterClient(cfg.Providers.JupiterBaseURL, cfg.Trade.RequestTimeout)
	dexScreenerClient := adapter.NewDexScreenerClient(cfg.Providers.DexScreenerBaseURL, cfg.Trade.RequestTimeout)
	solanaClient := adapter.NewSolanaClient(cfg.Providers.SolanaRPCURL, cfg.Trade.RequestTimeout)

	// A signer is only available when a wallet key is configured. Without
	// one, trades run in simulated mode and never touch the aggregator.
	var signer adapter.TransactionSigner
	if cfg.Trade.WalletPrivateKey != "" {
		localSigner, err := adapter.NewLocalSigner(cfg.Trade.WalletPrivateKey, cfg.Providers.SolanaRPCURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load wallet key")
		}
		signer = localSigner
		logger.WithFields(map[string]interface{}{
			"account": localSigner.Account(),
		}).Info("Wallet signer loaded, live trading enabled")
	} else {
		logger.Warn("No wallet key configured, trades will be simulated")
	}

	// Initialize services
	tokenService := service.NewTokenService(dexScreenerClient, tokenCache)
	tradeService := service.NewTradeService(
		jupiterClient,
		solanaClient,
		portfolioRepo,
		activityRepo,
		signer,
		cfg.Trade.SlippageBps,
		cfg.Trade.SOLReferencePrice,
	)
	walletService := service.NewWalletService(
		userRepo,
		portfolioRepo,
		watchlistRepo,
		solanaClient,
		cfg.Trade.SOLReferencePrice,
	)

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, tokenService, tradeService, walletService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("API server started")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Server stopped")
}
