package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// BuyOrderRepo serves cached fiat on-ramp purchases.
type BuyOrderRepo struct {
	tableRepo
}

// ListByOwner returns owner's purchases, newest first.
func (r *BuyOrderRepo) ListByOwner(ctx context.Context, owner string) ([]schema.BuyOrderRow, error) {
	var rows []schema.BuyOrderRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ?", schema.NormalizeOwner(owner)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buy orders: %w", err)
	}
	return rows, nil
}

// CexRepo serves cached exchange associations.
type CexRepo struct {
	tableRepo
}

// ListByOwner returns owner's exchange associations.
func (r *CexRepo) ListByOwner(ctx context.Context, owner string) ([]schema.CexRow, error) {
	var rows []schema.CexRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ?", schema.NormalizeOwner(owner)).
		Order("cex_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cex info: %w", err)
	}
	return rows, nil
}

// AccountRepo tracks per-address sync state.
type AccountRepo struct {
	tableRepo
}

// Record stores the outcome of one sync run.
func (r *AccountRepo) Record(ctx context.Context, owner string, kind domain.TaskKind, syncedAtMS int64, success bool) error {
	row := schema.FillAccountSync(owner, kind, syncedAtMS, success)
	row.StampLocal(syncedAtMS)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns(row.UpdateColumns()),
		}).
		Create(&row).Error
}

// LastSync fetches the most recent sync outcome for one task kind.
func (r *AccountRepo) LastSync(ctx context.Context, owner string, kind domain.TaskKind) (*schema.AccountSyncRow, error) {
	key := schema.DeriveKey(owner, "sync", string(kind))
	var row schema.AccountSyncRow
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state %s: %w", key, err)
	}
	return &row, nil
}
