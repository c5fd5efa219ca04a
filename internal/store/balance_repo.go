package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// BalanceRepo serves cached total-balance snapshots.
type BalanceRepo struct {
	tableRepo
}

// Get fetches owner's snapshot for one scope.
func (r *BalanceRepo) Get(ctx context.Context, owner, scope string) (*schema.BalanceRow, error) {
	key := schema.DeriveKey(owner, "balance", scope)
	var row schema.BalanceRow
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance %s: %w", key, err)
	}
	return &row, nil
}
