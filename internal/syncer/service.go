package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/events"
	"github.com/walletscope/assetcache/internal/logger"
	"github.com/walletscope/assetcache/internal/remote"
	"github.com/walletscope/assetcache/internal/store"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// Config tunes the per-kind batch runs the service starts.
type Config struct {
	TokenBatchSize    int
	NFTBatchSize      int
	ProtocolBatchSize int
	HistoryBatchSize  int
	BuyOrderBatchSize int

	Concurrency int
	Delay       time.Duration

	// DisablePrepared switches every run to the bulk write path.
	DisablePrepared bool

	// Pinned lists tokens whose transfer value always counts when deciding
	// whether a history entry is dust.
	Pinned []domain.PinnedToken
}

// DefaultConfig mirrors the batch shapes the wallet UI was tuned for.
func DefaultConfig() Config {
	return Config{
		TokenBatchSize:    300,
		NFTBatchSize:      200,
		ProtocolBatchSize: 200,
		HistoryBatchSize:  200,
		BuyOrderBatchSize: 100,
		Concurrency:       1,
		Delay:             1500 * time.Millisecond,
	}
}

// Service drives the fetch-categorize-upsert-cleanup cycle for every cached
// data kind.
type Service struct {
	store  *store.Store
	syncer *Syncer
	remote remote.Client
	clock  adapter.Clock
	policy domain.Policy
	cfg    Config
}

func NewService(st *store.Store, sy *Syncer, rc remote.Client, clock adapter.Clock, policy domain.Policy, cfg Config) *Service {
	return &Service{
		store:  st,
		syncer: sy,
		remote: rc,
		clock:  clock,
		policy: policy,
		cfg:    cfg,
	}
}

// Syncer exposes the underlying scheduler, mainly for abort calls.
func (s *Service) Syncer() *Syncer {
	return s.syncer
}

func (s *Service) nowMS() int64 {
	return s.clock.Now().UnixMilli()
}

// recordOutcome best-effort stores the run outcome for the daemon.
func (s *Service) recordOutcome(ctx context.Context, owner string, kind domain.TaskKind, success bool) {
	if err := s.store.Accounts.Record(ctx, owner, kind, s.nowMS(), success); err != nil {
		logger.Warn("failed to record sync outcome",
			zap.String("task_kind", string(kind)), zap.String("owner_addr", owner), zap.Error(err))
	}
}

// SyncTokens replaces owner's cached token positions with items. An empty
// fetch stores the placeholder row so the cache still reads as fresh. Stale
// leftovers are swept only after the run finished without abort.
func (s *Service) SyncTokens(ctx context.Context, owner string, items []domain.TokenItem) (bool, error) {
	items = append([]domain.TokenItem(nil), items...)
	if len(items) == 0 {
		items = []domain.TokenItem{domain.EmptyToken()}
	}
	// Core listings land first so the most relevant rows refresh earliest.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].IsCore && !items[j].IsCore
	})

	watermark := s.nowMS()
	rows := make([]*schema.TokenRow, len(items))
	for i, item := range items {
		row := schema.FillToken(owner, item)
		rows[i] = &row
	}

	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskTokens,
		OwnerAddr:       owner,
		BatchSize:       s.cfg.TokenBatchSize,
		Concurrency:     s.cfg.Concurrency,
		Delay:           s.cfg.Delay,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	if err != nil {
		s.recordOutcome(ctx, owner, domain.TaskTokens, false)
		return false, err
	}

	if handle.Completed {
		if _, err := s.store.Tokens.CleanupStale(ctx, owner, watermark); err != nil {
			logger.Warn("token cleanup failed", zap.String("owner_addr", owner), zap.Error(err))
		}
	}
	s.recordOutcome(ctx, owner, domain.TaskTokens, handle.Completed)
	return handle.Completed, nil
}

// TokensFor serves owner's positions from cache, refreshing from remote
// first when the cache is stale or force is set.
func (s *Service) TokensFor(ctx context.Context, owner string, force bool) ([]schema.TokenRow, error) {
	if force || s.store.Tokens.IsStale(ctx, owner) {
		items, err := s.remote.TokenList(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tokens: %w", err)
		}
		if _, err := s.SyncTokens(ctx, owner, items); err != nil {
			return nil, err
		}
	}
	return s.store.Tokens.ListByOwner(ctx, owner)
}

// SyncNFTs replaces owner's cached collectibles with items.
func (s *Service) SyncNFTs(ctx context.Context, owner string, items []domain.NFTItem) (bool, error) {
	items = append([]domain.NFTItem(nil), items...)
	if len(items) == 0 {
		items = []domain.NFTItem{domain.EmptyNFT()}
	}

	watermark := s.nowMS()
	rows := make([]*schema.NFTRow, len(items))
	for i, item := range items {
		row := schema.FillNFT(owner, item)
		rows[i] = &row
	}

	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskNFTs,
		OwnerAddr:       owner,
		BatchSize:       s.cfg.NFTBatchSize,
		Concurrency:     s.cfg.Concurrency,
		Delay:           s.cfg.Delay,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	if err != nil {
		s.recordOutcome(ctx, owner, domain.TaskNFTs, false)
		return false, err
	}

	if handle.Completed {
		if _, err := s.store.NFTs.CleanupStale(ctx, owner, watermark); err != nil {
			logger.Warn("nft cleanup failed", zap.String("owner_addr", owner), zap.Error(err))
		}
	}
	s.recordOutcome(ctx, owner, domain.TaskNFTs, handle.Completed)
	return handle.Completed, nil
}

// NFTsFor serves owner's collectibles, refreshing first when stale.
func (s *Service) NFTsFor(ctx context.Context, owner string, force bool) ([]schema.NFTRow, error) {
	if force || s.store.NFTs.IsStale(ctx, owner) {
		items, err := s.remote.NFTList(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch nfts: %w", err)
		}
		if _, err := s.SyncNFTs(ctx, owner, items); err != nil {
			return nil, err
		}
	}
	return s.store.NFTs.ListByOwner(ctx, owner)
}

// SyncProtocols replaces owner's cached protocol positions with items.
func (s *Service) SyncProtocols(ctx context.Context, owner string, items []domain.ComplexProtocol) (bool, error) {
	items = append([]domain.ComplexProtocol(nil), items...)
	if len(items) == 0 {
		items = []domain.ComplexProtocol{domain.EmptyProtocol()}
	}

	watermark := s.nowMS()
	rows := make([]*schema.ProtocolRow, len(items))
	for i, item := range items {
		row := schema.FillProtocol(owner, item)
		rows[i] = &row
	}

	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskProtocols,
		OwnerAddr:       owner,
		BatchSize:       s.cfg.ProtocolBatchSize,
		Concurrency:     s.cfg.Concurrency,
		Delay:           s.cfg.Delay,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	if err != nil {
		s.recordOutcome(ctx, owner, domain.TaskProtocols, false)
		return false, err
	}

	if handle.Completed {
		if _, err := s.store.Protocols.CleanupStale(ctx, owner, watermark); err != nil {
			logger.Warn("protocol cleanup failed", zap.String("owner_addr", owner), zap.Error(err))
		}
	}
	s.recordOutcome(ctx, owner, domain.TaskProtocols, handle.Completed)
	return handle.Completed, nil
}

// ProtocolsFor serves owner's protocol positions, refreshing first when
// stale.
func (s *Service) ProtocolsFor(ctx context.Context, owner string, force bool) ([]schema.ProtocolRow, error) {
	if force || s.store.Protocols.IsStale(ctx, owner) {
		items, err := s.remote.ProtocolList(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch protocols: %w", err)
		}
		if _, err := s.SyncProtocols(ctx, owner, items); err != nil {
			return nil, err
		}
	}
	return s.store.Protocols.ListByOwner(ctx, owner)
}

// SyncProtocol refreshes a single protocol position set. A refresh that
// comes back empty deletes the cached row instead, since the position no
// longer exists upstream.
func (s *Service) SyncProtocol(ctx context.Context, owner, protocolID, chain string) error {
	item, err := s.remote.Protocol(ctx, owner, protocolID)
	if err != nil {
		return fmt.Errorf("failed to fetch protocol %s: %w", protocolID, err)
	}
	if item == nil || item.ID == "" || len(item.PortfolioItemList) == 0 {
		return s.store.Protocols.DeleteOne(ctx, owner, protocolID, chain)
	}

	row := schema.FillProtocol(owner, *item)
	rows := []*schema.ProtocolRow{&row}
	_, err = BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskProtocols,
		OwnerAddr:       owner,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	return err
}

// SyncBalance stores a total-balance snapshot for one scope.
func (s *Service) SyncBalance(ctx context.Context, owner, scope string, bal domain.TotalBalance) error {
	row := schema.FillBalance(owner, scope, bal)
	rows := []*schema.BalanceRow{&row}
	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskBalance,
		OwnerAddr:       owner,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	if err != nil {
		return err
	}
	s.recordOutcome(ctx, owner, domain.TaskBalance, handle.Completed)
	return nil
}

// BalanceFor serves owner's balance snapshot, refreshing first when stale.
func (s *Service) BalanceFor(ctx context.Context, owner, scope string, force bool) (*schema.BalanceRow, error) {
	if force || s.store.Balances.IsStale(ctx, owner) {
		bal, err := s.remote.TotalBalance(ctx, owner, scope == schema.BalanceScopeCore)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch balance: %w", err)
		}
		if err := s.SyncBalance(ctx, owner, scope, *bal); err != nil {
			return nil, err
		}
	}
	return s.store.Balances.Get(ctx, owner, scope)
}

// historyAux assembles the fill context for one history payload. Swaps the
// device already knows failed are looked up so their receive legs get
// stripped during fill.
func (s *Service) historyAux(ctx context.Context, owner string, payload *domain.HistoryPayload) schema.HistoryAux {
	collections := make(map[string]bool)
	for id, tok := range payload.TokenDict {
		if tok.Collection != nil {
			collections[id] = true
		}
	}
	failed, err := s.store.LocalHistory.FailedTxHashes(ctx, owner)
	if err != nil {
		logger.Warn("failed swap lookup failed",
			zap.String("owner_addr", owner), zap.Error(err))
	}
	return schema.HistoryAux{
		Tokens:      payload.TokenDict,
		Projects:    payload.ProjectDict,
		Collections: collections,
		FailedSwaps: failed,
		Pinned:      s.cfg.Pinned,
		Policy:      s.policy,
	}
}

// SyncHistory caches one page of remote history. Runs never abort an
// in-flight history sync; pages append. Pending local transactions matching
// the page are settled before the first batch event reaches subscribers.
func (s *Service) SyncHistory(ctx context.Context, owner string, payload *domain.HistoryPayload) (bool, error) {
	if payload == nil || len(payload.HistoryList) == 0 {
		s.recordOutcome(ctx, owner, domain.TaskHistory, true)
		return true, nil
	}

	aux := s.historyAux(ctx, owner, payload)
	rows := make([]*schema.HistoryRow, len(payload.HistoryList))
	for i, item := range payload.HistoryList {
		row := schema.FillHistory(owner, item, aux)
		rows[i] = &row
	}

	var reconcileOnce sync.Once
	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskHistory,
		OwnerAddr:       owner,
		BatchSize:       s.cfg.HistoryBatchSize,
		Concurrency:     s.cfg.Concurrency,
		Delay:           s.cfg.Delay,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
		BeforeEmit: func(*events.RemoteDataUpserted) {
			reconcileOnce.Do(func() {
				if _, err := s.store.LocalHistory.Reconcile(ctx, owner, payload.HistoryList); err != nil {
					logger.Warn("local history reconcile failed",
						zap.String("owner_addr", owner), zap.Error(err))
				}
			})
		},
	})
	if err != nil {
		s.recordOutcome(ctx, owner, domain.TaskHistory, false)
		return false, err
	}
	s.recordOutcome(ctx, owner, domain.TaskHistory, handle.Completed)
	return handle.Completed, nil
}

// HistoryFor serves a history page, refreshing from remote when stale.
func (s *Service) HistoryFor(ctx context.Context, owner string, q store.PageQuery, force bool) ([]schema.HistoryRow, error) {
	if force || s.store.History.IsStale(ctx, owner) {
		payload, err := s.remote.History(ctx, owner, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history: %w", err)
		}
		if _, err := s.SyncHistory(ctx, owner, payload); err != nil {
			return nil, err
		}
	}
	return s.store.History.Page(ctx, owner, q)
}

// SyncLocalHistory caches transactions submitted from this device.
func (s *Service) SyncLocalHistory(ctx context.Context, owner string, items []schema.LocalHistoryItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*schema.LocalHistoryRow, len(items))
	for i, item := range items {
		row := schema.FillLocalHistory(owner, item)
		rows[i] = &row
	}
	_, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskLocalHistory,
		OwnerAddr:       owner,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	return err
}

// SyncBuyOrders replaces owner's cached on-ramp purchases.
func (s *Service) SyncBuyOrders(ctx context.Context, owner string, items []domain.BuyOrder) (bool, error) {
	if len(items) == 0 {
		s.recordOutcome(ctx, owner, domain.TaskBuyOrders, true)
		return true, nil
	}
	rows := make([]*schema.BuyOrderRow, len(items))
	for i, item := range items {
		row := schema.FillBuyOrder(owner, item)
		rows[i] = &row
	}
	handle, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskBuyOrders,
		OwnerAddr:       owner,
		BatchSize:       s.cfg.BuyOrderBatchSize,
		Concurrency:     s.cfg.Concurrency,
		Delay:           s.cfg.Delay,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	if err != nil {
		s.recordOutcome(ctx, owner, domain.TaskBuyOrders, false)
		return false, err
	}
	s.recordOutcome(ctx, owner, domain.TaskBuyOrders, handle.Completed)
	return handle.Completed, nil
}

// SyncCexInfo replaces owner's cached exchange associations. Never aborts a
// running sync of the same kind.
func (s *Service) SyncCexInfo(ctx context.Context, owner string, items []domain.CexInfo) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*schema.CexRow, len(items))
	for i, item := range items {
		row := schema.FillCex(owner, item)
		rows[i] = &row
	}
	_, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskCexInfo,
		OwnerAddr:       owner,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	return err
}

// PatchSingleToken refreshes one token position without disturbing a
// running full sync.
func (s *Service) PatchSingleToken(ctx context.Context, owner string, item domain.TokenItem) error {
	row := schema.FillToken(owner, item)
	rows := []*schema.TokenRow{&row}
	_, err := BatchSave(ctx, s.syncer, &rows, Options{
		TaskKind:        domain.TaskTokens,
		OwnerAddr:       owner,
		NoAbort:         true,
		WaitDone:        true,
		DisablePrepared: s.cfg.DisablePrepared,
	})
	return err
}

// PatchTokenAmounts updates held quantities for positions already cached.
// Unknown positions are skipped rather than created, since a quantity alone
// cannot seed a full row.
func (s *Service) PatchTokenAmounts(ctx context.Context, owner string, items []domain.TokenItem) error {
	for _, item := range items {
		key := schema.DeriveKey(owner, item.ID, item.Chain, item.InnerID)
		err := s.store.Tokens.UpdateAmount(ctx, key, item.Amount, string(item.RawAmount))
		if errors.Is(err, domain.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to patch token amount %s: %w", key, err)
		}
	}
	return nil
}

// DeleteAddressData aborts owner's active runs and removes every cached row
// belonging to them.
func (s *Service) DeleteAddressData(ctx context.Context, owner string) error {
	s.syncer.AbortOwner(owner)
	return s.store.DeleteAddressData(ctx, owner)
}

// AbortAll cancels every active sync run.
func (s *Service) AbortAll() {
	s.syncer.AbortAll()
}
