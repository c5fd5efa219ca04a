package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// TokenRepo serves cached fungible token positions.
type TokenRepo struct {
	tableRepo
}

// Get fetches one row by cache key.
func (r *TokenRepo) Get(ctx context.Context, key string) (*schema.TokenRow, error) {
	var row schema.TokenRow
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token %s: %w", key, err)
	}
	return &row, nil
}

// ListByOwner returns owner's positions, core listings first and higher USD
// values before lower within each group. Placeholder rows are excluded.
func (r *TokenRepo) ListByOwner(ctx context.Context, owner string) ([]schema.TokenRow, error) {
	var rows []schema.TokenRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND token_id <> ?", schema.NormalizeOwner(owner), domain.EmptyTokenID).
		Order("is_core DESC").
		Order(codec.LegacyRealExpr("usd_value") + " DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return rows, nil
}

// TopByUSDValue returns owner's n most valuable positions.
func (r *TokenRepo) TopByUSDValue(ctx context.Context, owner string, n int) ([]schema.TokenRow, error) {
	var rows []schema.TokenRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND token_id <> ?", schema.NormalizeOwner(owner), domain.EmptyTokenID).
		Order(codec.LegacyRealExpr("usd_value") + " DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top tokens: %w", err)
	}
	return rows, nil
}

// SearchByKeyword matches owner's positions by name or symbol fragment.
func (r *TokenRepo) SearchByKeyword(ctx context.Context, owner, keyword string) ([]schema.TokenRow, error) {
	pattern := "%" + keyword + "%"
	var rows []schema.TokenRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ? AND token_id <> ?", schema.NormalizeOwner(owner), domain.EmptyTokenID).
		Where("name LIKE ? OR symbol LIKE ? OR optimized_symbol LIKE ?", pattern, pattern, pattern).
		Order("is_core DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search tokens: %w", err)
	}
	return rows, nil
}

// AmountsFor returns the held quantities of owner's positions on the given
// (chain, token id) pairs, keyed by cache key. Pairs the cache has never seen
// are absent from the result.
func (r *TokenRepo) AmountsFor(ctx context.Context, owner string, pairs [][2]string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	if len(pairs) == 0 {
		return out, nil
	}
	cond := r.db.Session(&gorm.Session{NewDB: true})
	for _, p := range pairs {
		cond = cond.Or("chain = ? AND token_id = ?", p[0], p[1])
	}
	var rows []schema.TokenRow
	err := r.db.WithContext(ctx).
		Where("owner_addr = ?", schema.NormalizeOwner(owner)).
		Where(cond).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query token amounts: %w", err)
	}
	for _, row := range rows {
		out[row.CacheKey] = row.Amount
	}
	return out, nil
}

// DeleteOne removes a single position by cache key.
func (r *TokenRepo) DeleteOne(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", r.table), key).Error
}

// UpsertOne writes a single row outside the batch scheduler, stamping its
// local timestamps.
func (r *TokenRepo) UpsertOne(ctx context.Context, row *schema.TokenRow) error {
	row.StampLocal(r.nowMS())
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns(row.UpdateColumns()),
		}).
		Create(row).Error
}

// UpdateAmount patches the held quantity of one position, recomputing its
// USD value from the cached price. The freshness timestamp is advanced so a
// partial amount refresh does not make the whole set look stale.
func (r *TokenRepo) UpdateAmount(ctx context.Context, key string, amount float64, rawAmount string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row schema.TokenRow
		if err := tx.Where("cache_key = ?", key).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoRows
			}
			return err
		}
		row.Amount = codec.ToFloat(amount)
		if rawAmount != "" {
			row.RawAmount = codec.EncodeDecimal(rawAmount)
		}
		row.USDValueStored = codec.EncodeLegacyReal(row.Amount * row.Price)
		row.StampLocal(r.nowMS())
		return tx.Save(&row).Error
	})
}
