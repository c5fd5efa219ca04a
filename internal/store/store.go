// Package store provides the SQLite-backed cache repositories. Each entity
// kind gets its own repository sharing one staleness and cleanup algorithm;
// the Store aggregates them over a single database handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/store/schema"
)

// Config holds database settings and per-kind cache lifetimes.
type Config struct {
	// Path is the database file path. ":memory:" opens a shared in-memory
	// database, used by tests.
	Path string

	BusyTimeout  time.Duration
	MaxOpenConns int

	// Expiry sets how long each kind of cached data stays fresh.
	Expiry ExpiryConfig
}

// ExpiryConfig carries the freshness window per data kind.
type ExpiryConfig struct {
	Tokens    time.Duration
	NFTs      time.Duration
	Protocols time.Duration
	Balance   time.Duration
	History   time.Duration
	BuyOrders time.Duration
	CexInfo   time.Duration
}

// DefaultExpiry mirrors the refresh cadence the wallet UI expects.
func DefaultExpiry() ExpiryConfig {
	return ExpiryConfig{
		Tokens:    5 * time.Minute,
		NFTs:      15 * time.Minute,
		Protocols: 5 * time.Minute,
		Balance:   3 * time.Minute,
		History:   10 * time.Minute,
		BuyOrders: 30 * time.Minute,
		CexInfo:   time.Hour,
	}
}

// Store aggregates every cache repository over one SQLite handle.
type Store struct {
	db    *gorm.DB
	clock adapter.Clock

	Tokens       *TokenRepo
	NFTs         *NFTRepo
	Protocols    *ProtocolRepo
	Balances     *BalanceRepo
	History      *HistoryRepo
	LocalHistory *LocalHistoryRepo
	BuyOrders    *BuyOrderRepo
	Cex          *CexRepo
	Accounts     *AccountRepo
}

// Open opens (or creates) the cache database, applies migrations, and wires
// the repositories.
func Open(cfg Config, clock adapter.Clock) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	dsn := fmt.Sprintf("file:%s?%s", cfg.Path, q.Encode())
	if cfg.Path == ":memory:" {
		dsn = "file::memory:?cache=shared&" + q.Encode()
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.AutoMigrate(
		&schema.TokenRow{},
		&schema.NFTRow{},
		&schema.ProtocolRow{},
		&schema.BalanceRow{},
		&schema.HistoryRow{},
		&schema.LocalHistoryRow{},
		&schema.BuyOrderRow{},
		&schema.CexRow{},
		&schema.AccountSyncRow{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	expiry := cfg.Expiry
	s := &Store{db: db, clock: clock}
	s.Tokens = &TokenRepo{tableRepo: newTableRepo(db, clock, schema.TokenRow{}.TableName(), expiry.Tokens)}
	s.NFTs = &NFTRepo{tableRepo: newTableRepo(db, clock, schema.NFTRow{}.TableName(), expiry.NFTs)}
	s.Protocols = &ProtocolRepo{tableRepo: newTableRepo(db, clock, schema.ProtocolRow{}.TableName(), expiry.Protocols)}
	s.Balances = &BalanceRepo{tableRepo: newTableRepo(db, clock, schema.BalanceRow{}.TableName(), expiry.Balance)}
	s.History = &HistoryRepo{tableRepo: newTableRepo(db, clock, schema.HistoryRow{}.TableName(), expiry.History)}
	s.LocalHistory = &LocalHistoryRepo{tableRepo: newTableRepo(db, clock, schema.LocalHistoryRow{}.TableName(), expiry.History)}
	s.BuyOrders = &BuyOrderRepo{tableRepo: newTableRepo(db, clock, schema.BuyOrderRow{}.TableName(), expiry.BuyOrders)}
	s.Cex = &CexRepo{tableRepo: newTableRepo(db, clock, schema.CexRow{}.TableName(), expiry.CexInfo)}
	s.Accounts = &AccountRepo{tableRepo: newTableRepo(db, clock, schema.AccountSyncRow{}.TableName(), 0)}
	return s, nil
}

// DB exposes the gorm handle for bulk writes.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// SQLDB exposes the raw connection pool for prepared statements.
func (s *Store) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DeleteAddressData removes every cached row belonging to owner across all
// tables. Used when an address is removed from the wallet.
func (s *Store) DeleteAddressData(ctx context.Context, owner string) error {
	if schema.NormalizeOwner(owner) == "" {
		return domain.ErrEmptyOwner
	}
	repos := []interface {
		DeleteForOwner(ctx context.Context, owner string) (int64, error)
	}{
		s.Tokens, s.NFTs, s.Protocols, s.Balances, s.History,
		s.LocalHistory, s.BuyOrders, s.Cex, s.Accounts,
	}
	for _, repo := range repos {
		if _, err := repo.DeleteForOwner(ctx, owner); err != nil {
			return err
		}
	}
	return nil
}
