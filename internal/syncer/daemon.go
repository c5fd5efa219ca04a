package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/logger"
	"github.com/walletscope/assetcache/internal/store"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// DaemonConfig tunes the background refresh loop.
type DaemonConfig struct {
	// Addresses are the wallets the daemon keeps fresh.
	Addresses []string

	// Interval is how long to sleep between refresh cycles.
	Interval time.Duration

	// WorkerPoolSize bounds how many addresses refresh concurrently.
	WorkerPoolSize int
}

// Daemon periodically refreshes every stale data kind for the configured
// addresses. Long-running; one instance per process.
type Daemon struct {
	config  DaemonConfig
	store   *store.Store
	service *Service
	clock   adapter.Clock

	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

func NewDaemon(cfg DaemonConfig, st *store.Store, svc *Service, clock adapter.Clock) *Daemon {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 2
	}
	return &Daemon{
		config:    cfg,
		store:     st,
		service:   svc,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (d *Daemon) Name() string {
	return "cache-refresh-daemon"
}

// Start runs the refresh loop until the context ends or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return fmt.Errorf("daemon already running")
	}
	defer func() {
		d.running.Store(false)
		close(d.stoppedCh)
	}()

	logger.Info("Starting cache refresh daemon",
		zap.Int("addresses", len(d.config.Addresses)),
		zap.Duration("interval", d.config.Interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cache refresh daemon stopping", zap.Error(ctx.Err()))
			return nil
		case <-d.stopChan:
			logger.Info("Cache refresh daemon stop requested")
			return nil
		default:
			if err := d.runCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error(err)
				}
			}
			if !d.sleep(ctx, d.config.Interval) {
				return nil
			}
		}
	}
}

// Stop gracefully stops the daemon, waiting for the in-flight cycle.
func (d *Daemon) Stop(ctx context.Context) error {
	if !d.running.CompareAndSwap(true, false) {
		return nil
	}
	close(d.stopChan)

	select {
	case <-d.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runCycle refreshes every stale data kind for every configured address.
func (d *Daemon) runCycle(ctx context.Context) error {
	start := d.clock.Now()
	pool := pond.NewPool(d.config.WorkerPoolSize, pond.WithContext(ctx))

	for _, addr := range d.config.Addresses {
		owner := addr
		pool.Submit(func() {
			d.refreshAddress(ctx, owner)
		})
	}
	pool.StopAndWait()

	logger.Debug("Refresh cycle completed",
		zap.Duration("duration", d.clock.Since(start)),
		zap.Int("addresses", len(d.config.Addresses)))
	return ctx.Err()
}

// refreshAddress refreshes each data kind that went stale for one address.
func (d *Daemon) refreshAddress(ctx context.Context, owner string) {
	log := logger.Default().With(zap.String("owner_addr", schema.NormalizeOwner(owner)))

	if d.store.Tokens.IsStale(ctx, owner) {
		if _, err := d.service.TokensFor(ctx, owner, true); err != nil {
			log.Warn("token refresh failed", zap.Error(err))
		}
	}
	if d.store.NFTs.IsStale(ctx, owner) {
		if _, err := d.service.NFTsFor(ctx, owner, true); err != nil {
			log.Warn("nft refresh failed", zap.Error(err))
		}
	}
	if d.store.Protocols.IsStale(ctx, owner) {
		if _, err := d.service.ProtocolsFor(ctx, owner, true); err != nil {
			log.Warn("protocol refresh failed", zap.Error(err))
		}
	}
	if d.store.Balances.IsStale(ctx, owner) {
		if _, err := d.service.BalanceFor(ctx, owner, schema.BalanceScopeAll, true); err != nil {
			log.Warn("balance refresh failed", zap.Error(err))
		}
	}
	if d.store.History.IsStale(ctx, owner) {
		if _, err := d.service.HistoryFor(ctx, owner, store.PageQuery{}, true); err != nil {
			log.Warn("history refresh failed", zap.Error(err))
		}
	}
	if d.store.BuyOrders.IsStale(ctx, owner) {
		d.refreshBuyOrders(ctx, owner, log)
	}
	if d.store.Cex.IsStale(ctx, owner) {
		d.refreshCexInfo(ctx, owner, log)
	}
}

func (d *Daemon) refreshBuyOrders(ctx context.Context, owner string, log *zap.Logger) {
	orders, err := d.service.remote.BuyOrders(ctx, owner)
	if err != nil {
		log.Warn("buy order fetch failed", zap.Error(err))
		return
	}
	if _, err := d.service.SyncBuyOrders(ctx, owner, orders); err != nil {
		log.Warn("buy order refresh failed", zap.Error(err))
	}
}

func (d *Daemon) refreshCexInfo(ctx context.Context, owner string, log *zap.Logger) {
	info, err := d.service.remote.CexInfo(ctx, owner)
	if err != nil {
		log.Warn("cex info fetch failed", zap.Error(err))
		return
	}
	if err := d.service.SyncCexInfo(ctx, owner, info); err != nil {
		log.Warn("cex info refresh failed", zap.Error(err))
	}
}

// sleep waits for duration unless interrupted by shutdown.
func (d *Daemon) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-d.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-d.stopChan:
		return false
	}
}
