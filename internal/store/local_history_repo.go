package store

import (
	"context"
	"fmt"

	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// LocalHistoryRepo serves transactions submitted from this device.
type LocalHistoryRepo struct {
	tableRepo
}

// ListByOwner returns owner's local transactions, newest first.
func (r *LocalHistoryRepo) ListByOwner(ctx context.Context, owner string) ([]schema.LocalHistoryRow, error) {
	var rows []schema.LocalHistoryRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ?", schema.NormalizeOwner(owner)).
		Order("time_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list local history: %w", err)
	}
	return rows, nil
}

// ListPending returns owner's local transactions still awaiting settlement.
func (r *LocalHistoryRepo) ListPending(ctx context.Context, owner string) ([]schema.LocalHistoryRow, error) {
	var rows []schema.LocalHistoryRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND status = ?", schema.NormalizeOwner(owner), schema.LocalTxPending).
		Order("nonce").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending local history: %w", err)
	}
	return rows, nil
}

// FailedTxHashes returns the hashes of owner's locally failed transactions,
// keyed for membership checks.
func (r *LocalHistoryRepo) FailedTxHashes(ctx context.Context, owner string) (map[string]bool, error) {
	var hashes []string
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("owner_addr = ? AND status = ?", schema.NormalizeOwner(owner), schema.LocalTxFailed).
		Pluck("tx_hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed local history: %w", err)
	}
	out := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		out[h] = true
	}
	return out, nil
}

// SetStatus moves one local transaction to a new lifecycle state.
func (r *LocalHistoryRepo) SetStatus(ctx context.Context, owner, chain, txHash, status string) error {
	key := schema.DeriveKey(owner, chain, txHash)
	res := r.db.WithContext(ctx).
		Table(r.table).
		Where("cache_key = ?", key).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoRows
	}
	return nil
}

// Reconcile marks pending local transactions completed when they appear in a
// batch of remote history. Returns how many settled.
func (r *LocalHistoryRepo) Reconcile(ctx context.Context, owner string, remote []domain.TxHistoryItem) (int, error) {
	if len(remote) == 0 {
		return 0, nil
	}
	pending, err := r.ListPending(ctx, owner)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range pending {
		row := &pending[i]
		for _, item := range remote {
			if !row.MatchesRemote(item) {
				continue
			}
			status := schema.LocalTxCompleted
			if item.Tx != nil && item.Tx.Status == 0 {
				status = schema.LocalTxFailed
			}
			if err := r.SetStatus(ctx, owner, row.Chain, row.TxHash, status); err != nil {
				return settled, err
			}
			settled++
			break
		}
	}
	return settled, nil
}
