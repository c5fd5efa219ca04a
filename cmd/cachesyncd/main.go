package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/config"
	"github.com/walletscope/assetcache/internal/events"
	"github.com/walletscope/assetcache/internal/logger"
	"github.com/walletscope/assetcache/internal/remote"
	"github.com/walletscope/assetcache/internal/store"
	"github.com/walletscope/assetcache/internal/syncer"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadCacheSyncConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "cachesyncd",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting cachesyncd")

	// Initialize clock adapter
	clock := adapter.NewRealClock()

	// Open the cache database
	dataStore, err := store.Open(store.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Expiry: store.ExpiryConfig{
			Tokens:    cfg.Expiry.Tokens,
			NFTs:      cfg.Expiry.NFTs,
			Protocols: cfg.Expiry.Protocols,
			Balance:   cfg.Expiry.Balance,
			History:   cfg.Expiry.History,
			BuyOrders: cfg.Expiry.BuyOrders,
			CexInfo:   cfg.Expiry.CexInfo,
		},
	}, clock)
	if err != nil {
		logger.Fatal("Failed to open cache database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer func() {
		if err := dataStore.Close(); err != nil {
			logger.Error(err)
		}
	}()
	logger.Info("Opened cache database", zap.String("path", cfg.Database.Path))

	// Initialize event bus and scheduler
	bus := events.NewBus()
	scheduler := syncer.New(dataStore, bus, clock)

	// Initialize upstream client
	remoteClient := remote.NewHTTPClient(remote.Config{
		BaseURL:           cfg.Remote.BaseURL,
		RequestTimeout:    cfg.Remote.RequestTimeout,
		RetryElapsed:      cfg.Remote.RetryElapsed,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
	})

	// Initialize sync service
	service := syncer.NewService(dataStore, scheduler, remoteClient, clock, cfg.Policy.DomainPolicy(), syncer.Config{
		TokenBatchSize:    cfg.Sync.TokenBatchSize,
		NFTBatchSize:      cfg.Sync.NFTBatchSize,
		ProtocolBatchSize: cfg.Sync.ProtocolBatchSize,
		HistoryBatchSize:  cfg.Sync.HistoryBatchSize,
		BuyOrderBatchSize: cfg.Sync.BuyOrderBatchSize,
		Concurrency:       cfg.Sync.Concurrency,
		Delay:             cfg.Sync.Delay,
		DisablePrepared:   cfg.Sync.DisablePrepared,
		Pinned:            cfg.Policy.Pinned(),
	})

	// Initialize refresh daemon
	daemon := syncer.NewDaemon(syncer.DaemonConfig{
		Addresses:      cfg.Daemon.Addresses,
		Interval:       cfg.Daemon.Interval,
		WorkerPoolSize: cfg.Daemon.WorkerPoolSize,
	}, dataStore, service, clock)

	logger.Info("Initialized refresh daemon",
		zap.Int("addresses", len(cfg.Daemon.Addresses)),
		zap.Duration("interval", cfg.Daemon.Interval),
		zap.Int("worker_pool_size", cfg.Daemon.WorkerPoolSize),
	)

	// Start the daemon in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := daemon.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error(err)
	}

	// Cancel context to stop the daemon
	cancel()

	// Give in-flight batch runs time to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := daemon.Stop(shutdownCtx); err != nil {
		logger.Error(err)
	}
	service.AbortAll()

	logger.Info("cachesyncd stopped")
}
