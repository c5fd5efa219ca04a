package syncer

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletscope/assetcache/internal/store/schema"
)

// batchWriter persists one staged batch. Implementations differ in failure
// granularity: the prepared path skips individual bad rows, the bulk path
// fails the batch as a whole.
type batchWriter[R schema.Row] interface {
	WriteBatch(ctx context.Context, rows []R) error
	Name() string
}

// preparedWriter executes the entity's upsert statement row by row. A row
// that fails to bind or execute is logged and skipped; the rest of the batch
// still lands.
type preparedWriter[R schema.Row] struct {
	db  *sql.DB
	log *zap.Logger
}

func (w *preparedWriter[R]) Name() string {
	return "prepared"
}

func (w *preparedWriter[R]) WriteBatch(ctx context.Context, rows []R) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := w.db.PrepareContext(ctx, rows[0].UpsertSQL())
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.UpsertArgs()...); err != nil {
			w.log.Warn("skipping row that failed to upsert",
				zap.String("cache_key", row.Key()), zap.Error(err))
		}
	}
	return nil
}

// bulkWriter lands the whole batch in one conflict-aware insert. Any failure
// is returned so the run records the batch as unsuccessful.
type bulkWriter[R schema.Row] struct {
	db *gorm.DB
}

func (w *bulkWriter[R]) Name() string {
	return "bulk"
}

func (w *bulkWriter[R]) WriteBatch(ctx context.Context, rows []R) error {
	if len(rows) == 0 {
		return nil
	}
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns(rows[0].UpdateColumns()),
		}).
		Create(&rows).Error
}

// pickWriter selects the prepared path when available and not disabled,
// falling back to the bulk path.
func pickWriter[R schema.Row](s *Syncer, disablePrepared bool, probe R, log *zap.Logger) batchWriter[R] {
	if !disablePrepared && probe.UpsertSQL() != "" {
		if sqlDB, err := s.store.SQLDB(); err == nil {
			return &preparedWriter[R]{db: sqlDB, log: log}
		}
		log.Warn("prepared statements unavailable, falling back to bulk writes")
	}
	return &bulkWriter[R]{db: s.store.DB()}
}
