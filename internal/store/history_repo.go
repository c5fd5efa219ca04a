package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// HistoryRepo serves cached remote transaction history.
type HistoryRepo struct {
	tableRepo
}

// PageQuery selects a window of owner's history.
type PageQuery struct {
	// BeforeTimeAt excludes entries at or after this unix second. Zero means
	// start from the newest entry.
	BeforeTimeAt int64
	// Limit caps the page size. Zero falls back to 50.
	Limit int
	// IncludeSmall keeps dust entries in the page.
	IncludeSmall bool
	// IncludeScam keeps flagged scam entries in the page.
	IncludeScam bool
}

// Page returns one page of owner's history, newest first. Pass the last
// entry's TimeAt as BeforeTimeAt to fetch the next page.
func (r *HistoryRepo) Page(ctx context.Context, owner string, q PageQuery) ([]schema.HistoryRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	tx := r.db.WithContext(ctx).
		Where("owner_addr = ?", schema.NormalizeOwner(owner))
	if q.BeforeTimeAt > 0 {
		tx = tx.Where("time_at < ?", q.BeforeTimeAt)
	}
	if !q.IncludeSmall {
		tx = tx.Where("is_small = ?", false)
	}
	if !q.IncludeScam {
		tx = tx.Where("is_scam = ?", false)
	}

	var rows []schema.HistoryRow
	err := tx.Order("time_at DESC").Order("tx_id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to page history: %w", err)
	}
	return rows, nil
}

// CountSince returns how many non-dust entries arrived after the given unix
// second. Drives the unread badge.
func (r *HistoryRepo) CountSince(ctx context.Context, owner string, sinceTimeAt int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("owner_addr = ? AND time_at > ? AND is_small = ? AND is_scam = ?",
			schema.NormalizeOwner(owner), sinceTimeAt, false, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// LatestTimeAt returns the unix second of owner's newest entry, zero when
// the cache holds none.
func (r *HistoryRepo) LatestTimeAt(ctx context.Context, owner string) (int64, error) {
	var latest sql.NullInt64
	err := r.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT MAX(time_at) FROM %s WHERE owner_addr = ?", r.table),
			schema.NormalizeOwner(owner)).
		Scan(&latest).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query latest history time: %w", err)
	}
	return latest.Int64, nil
}

// ListByToken returns owner's entries that moved the given token, searching
// the serialized transfer lists on either side. Newest first.
func (r *HistoryRepo) ListByToken(ctx context.Context, owner, tokenID string) ([]schema.HistoryRow, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT h.* FROM %s h
		LEFT JOIN json_each(h.receives) recv ON json_extract(recv.value, '$.token_id') = ?
		LEFT JOIN json_each(h.sends) snd ON json_extract(snd.value, '$.token_id') = ?
		WHERE h.owner_addr = ? AND (recv.value IS NOT NULL OR snd.value IS NOT NULL)
		ORDER BY h.time_at DESC`, r.table)

	var rows []schema.HistoryRow
	err := r.db.WithContext(ctx).
		Raw(query, tokenID, tokenID, schema.NormalizeOwner(owner)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history by token: %w", err)
	}
	return rows, nil
}

// PatchTxStatus rewrites the stored transaction status of one entry. Used to
// surface a failed swap that remote history still reports as pending.
func (r *HistoryRepo) PatchTxStatus(ctx context.Context, owner, chain, txID string, status int) error {
	key := schema.DeriveKey(owner, chain, txID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row schema.HistoryRow
		if err := tx.Where("cache_key = ?", key).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoRows
			}
			return err
		}
		detail := codec.DecodeJSONObject[domain.TxDetail](row.Tx)
		detail.Status = status
		encoded, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to encode tx detail: %w", err)
		}
		row.Tx = string(encoded)
		return tx.Save(&row).Error
	})
}
