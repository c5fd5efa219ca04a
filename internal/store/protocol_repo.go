package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// ProtocolRepo serves cached DeFi protocol positions.
type ProtocolRepo struct {
	tableRepo
}

// Get fetches owner's position set in one protocol on one chain.
func (r *ProtocolRepo) Get(ctx context.Context, owner, protocolID, chain string) (*schema.ProtocolRow, error) {
	key := schema.DeriveKey(owner, protocolID, chain)
	var row schema.ProtocolRow
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol %s: %w", key, err)
	}
	return &row, nil
}

// ListByOwner returns owner's protocol positions, most valuable first.
// Placeholder rows are excluded.
func (r *ProtocolRepo) ListByOwner(ctx context.Context, owner string) ([]schema.ProtocolRow, error) {
	var rows []schema.ProtocolRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND protocol_id <> ?", schema.NormalizeOwner(owner), domain.EmptyProtocolID).
		Order(codec.LegacyRealExpr("net_usd_value") + " DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}
	return rows, nil
}

// DeleteOne removes owner's cached position set for one protocol. Used when
// a refresh of a single protocol finds it emptied.
func (r *ProtocolRepo) DeleteOne(ctx context.Context, owner, protocolID, chain string) error {
	key := schema.DeriveKey(owner, protocolID, chain)
	return r.db.WithContext(ctx).
		Exec("DELETE FROM "+r.table+" WHERE cache_key = ?", key).Error
}
