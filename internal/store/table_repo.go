package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/logger"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// tableRepo implements the lifecycle operations shared by every cache table:
// staleness checks, forced expiry, post-sync cleanup, and per-owner deletes.
type tableRepo struct {
	db     *gorm.DB
	clock  adapter.Clock
	table  string
	expiry time.Duration
}

func newTableRepo(db *gorm.DB, clock adapter.Clock, table string, expiry time.Duration) tableRepo {
	return tableRepo{db: db, clock: clock, table: table, expiry: expiry}
}

func (r *tableRepo) nowMS() int64 {
	return r.clock.Now().UnixMilli()
}

// Expiry returns the freshness window of this table.
func (r *tableRepo) Expiry() time.Duration {
	return r.expiry
}

// IsStale reports whether owner's cached rows need a refresh. An owner with
// no rows is stale, and so is one whose oldest row has outlived the expiry
// window. Query failures count as stale so a broken read never pins old data.
func (r *tableRepo) IsStale(ctx context.Context, owner string) bool {
	owner = schema.NormalizeOwner(owner)
	if owner == "" {
		return true
	}

	var oldest sql.NullInt64
	err := r.db.WithContext(ctx).
		Raw("SELECT MIN(local_updated_at) FROM "+r.table+" WHERE owner_addr = ?", owner).
		Scan(&oldest).Error
	if err != nil {
		logger.Warn("staleness check failed, treating as stale",
			zap.String("table", r.table), zap.String("owner_addr", owner), zap.Error(err))
		return true
	}
	if !oldest.Valid {
		return true
	}
	return r.nowMS()-oldest.Int64 > r.expiry.Milliseconds()
}

// WillExpire backdates owner's rows so they expire after offset from now.
// Rows already stale are left alone.
func (r *tableRepo) WillExpire(ctx context.Context, owner string, offset time.Duration) error {
	owner = schema.NormalizeOwner(owner)
	if r.IsStale(ctx, owner) {
		return nil
	}
	backdated := r.nowMS() - r.expiry.Milliseconds() + offset.Milliseconds()
	return r.db.WithContext(ctx).
		Table(r.table).
		Where("owner_addr = ?", owner).
		Update("local_updated_at", backdated).Error
}

// CleanupStale deletes owner's rows whose last upsert predates watermarkMS.
// Called only after a sync run completed without abort, so everything older
// than the run's start is known to be gone upstream.
func (r *tableRepo) CleanupStale(ctx context.Context, owner string, watermarkMS int64) (int64, error) {
	owner = schema.NormalizeOwner(owner)
	res := r.db.WithContext(ctx).
		Exec("DELETE FROM "+r.table+" WHERE owner_addr = ? AND local_updated_at < ?", owner, watermarkMS)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.Debug("cleaned up stale rows",
			zap.String("table", r.table), zap.String("owner_addr", owner),
			zap.Int64("deleted", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// DeleteForOwner removes every row belonging to owner.
func (r *tableRepo) DeleteForOwner(ctx context.Context, owner string) (int64, error) {
	res := r.db.WithContext(ctx).
		Exec("DELETE FROM "+r.table+" WHERE owner_addr = ?", schema.NormalizeOwner(owner))
	return res.RowsAffected, res.Error
}

// CountForOwner returns how many rows owner has in this table.
func (r *tableRepo) CountForOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("owner_addr = ?", schema.NormalizeOwner(owner)).
		Count(&count).Error
	return count, err
}

// Owners lists the distinct addresses present in this table.
func (r *tableRepo) Owners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).
		Table(r.table).
		Distinct("owner_addr").
		Order("owner_addr").
		Pluck("owner_addr", &owners).Error
	return owners, err
}
