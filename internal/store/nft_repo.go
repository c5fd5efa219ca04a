package store

import (
	"context"
	"fmt"

	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// NFTRepo serves cached collectibles.
type NFTRepo struct {
	tableRepo
}

// ListByOwner returns owner's collectibles, newest upserts first.
// Placeholder rows are excluded.
func (r *NFTRepo) ListByOwner(ctx context.Context, owner string) ([]schema.NFTRow, error) {
	var rows []schema.NFTRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND nft_id <> ?", schema.NormalizeOwner(owner), domain.EmptyNFTID).
		Order("usd_price DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list nfts: %w", err)
	}
	return rows, nil
}

// ListByCollection returns owner's collectibles inside one collection.
func (r *NFTRepo) ListByCollection(ctx context.Context, owner, collectionID string) ([]schema.NFTRow, error) {
	var rows []schema.NFTRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND collection_id = ?", schema.NormalizeOwner(owner), collectionID).
		Order("nft_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collection nfts: %w", err)
	}
	return rows, nil
}
