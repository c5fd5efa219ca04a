// Package config loads service configuration from YAML files and environment
// variables, with env vars taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/walletscope/assetcache/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds cache database configuration
type DatabaseConfig struct {
	Path         string        `mapstructure:"path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"` // Maximum number of open connections to the database
}

// SyncConfig holds batch scheduling configuration
type SyncConfig struct {
	TokenBatchSize    int           `mapstructure:"token_batch_size"`
	NFTBatchSize      int           `mapstructure:"nft_batch_size"`
	ProtocolBatchSize int           `mapstructure:"protocol_batch_size"`
	HistoryBatchSize  int           `mapstructure:"history_batch_size"`
	BuyOrderBatchSize int           `mapstructure:"buy_order_batch_size"`
	Concurrency       int           `mapstructure:"concurrency"`
	Delay             time.Duration `mapstructure:"delay"`
	DisablePrepared   bool          `mapstructure:"disable_prepared"`
}

// ExpiryConfig holds the freshness window per cached data kind
type ExpiryConfig struct {
	Tokens    time.Duration `mapstructure:"tokens"`
	NFTs      time.Duration `mapstructure:"nfts"`
	Protocols time.Duration `mapstructure:"protocols"`
	Balance   time.Duration `mapstructure:"balance"`
	History   time.Duration `mapstructure:"history"`
	BuyOrders time.Duration `mapstructure:"buy_orders"`
	CexInfo   time.Duration `mapstructure:"cex_info"`
}

// PolicyConfig holds history categorization tunables
type PolicyConfig struct {
	SmallTxUSDThreshold float64           `mapstructure:"small_tx_usd_threshold"`
	GasWithdrawAddrs    []string          `mapstructure:"gas_withdraw_addrs"`
	GasReceiveAddrs     []string          `mapstructure:"gas_receive_addrs"`
	L2DepositAddrs      map[string]string `mapstructure:"l2_deposit_addrs"`
	PinnedTokens        []string          `mapstructure:"pinned_tokens"` // "chain:token_id" pairs
}

// RemoteConfig holds upstream API configuration
type RemoteConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RetryElapsed      time.Duration `mapstructure:"retry_elapsed"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// DaemonConfig holds the background refresh loop configuration
type DaemonConfig struct {
	Addresses      []string      `mapstructure:"addresses"`
	Interval       time.Duration `mapstructure:"interval"`
	WorkerPoolSize int           `mapstructure:"worker_pool_size"`
}

// CacheSyncConfig holds configuration for the cachesyncd program
type CacheSyncConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sync       SyncConfig     `mapstructure:"sync"`
	Expiry     ExpiryConfig   `mapstructure:"expiry"`
	Policy     PolicyConfig   `mapstructure:"policy"`
	Remote     RemoteConfig   `mapstructure:"remote"`
	Daemon     DaemonConfig   `mapstructure:"daemon"`
}

// LoadCacheSyncConfig loads configuration for the cachesyncd program
func LoadCacheSyncConfig(configFile string, envPath string) (*CacheSyncConfig, error) {
	v := configureViper("cachesyncd", configFile, envPath)

	// Set defaults
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("sync.token_batch_size", 300)
	v.SetDefault("sync.nft_batch_size", 200)
	v.SetDefault("sync.protocol_batch_size", 200)
	v.SetDefault("sync.history_batch_size", 200)
	v.SetDefault("sync.buy_order_batch_size", 100)
	v.SetDefault("sync.concurrency", 1)
	v.SetDefault("sync.delay", "1500ms")
	v.SetDefault("expiry.tokens", "5m")
	v.SetDefault("expiry.nfts", "15m")
	v.SetDefault("expiry.protocols", "5m")
	v.SetDefault("expiry.balance", "3m")
	v.SetDefault("expiry.history", "10m")
	v.SetDefault("expiry.buy_orders", "30m")
	v.SetDefault("expiry.cex_info", "1h")
	v.SetDefault("policy.small_tx_usd_threshold", 0.1)
	v.SetDefault("remote.request_timeout", "30s")
	v.SetDefault("remote.retry_elapsed", "2m")
	v.SetDefault("remote.requests_per_second", 10)
	v.SetDefault("remote.burst", 5)
	v.SetDefault("daemon.interval", "1m")
	v.SetDefault("daemon.worker_pool_size", 4)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg CacheSyncConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Path == "" {
		return nil, errors.New("database.path is required")
	}
	if cfg.Remote.BaseURL == "" {
		return nil, errors.New("remote.base_url is required")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/cachesyncd/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("ASSETCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.path",
		"database.busy_timeout",
		"database.max_open_conns",
		// Sync
		"sync.token_batch_size",
		"sync.nft_batch_size",
		"sync.protocol_batch_size",
		"sync.history_batch_size",
		"sync.buy_order_batch_size",
		"sync.concurrency",
		"sync.delay",
		"sync.disable_prepared",
		// Expiry
		"expiry.tokens",
		"expiry.nfts",
		"expiry.protocols",
		"expiry.balance",
		"expiry.history",
		"expiry.buy_orders",
		"expiry.cex_info",
		// Policy
		"policy.small_tx_usd_threshold",
		"policy.gas_withdraw_addrs",
		"policy.gas_receive_addrs",
		"policy.pinned_tokens",
		// Remote
		"remote.base_url",
		"remote.request_timeout",
		"remote.retry_elapsed",
		"remote.requests_per_second",
		"remote.burst",
		// Daemon
		"daemon.addresses",
		"daemon.interval",
		"daemon.worker_pool_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// Pinned parses the "chain:token_id" entries, skipping malformed ones.
func (c *PolicyConfig) Pinned() []domain.PinnedToken {
	pinned := make([]domain.PinnedToken, 0, len(c.PinnedTokens))
	for _, raw := range c.PinnedTokens {
		chain, tokenID, ok := strings.Cut(raw, ":")
		if !ok || chain == "" || tokenID == "" {
			continue
		}
		pinned = append(pinned, domain.PinnedToken{Chain: chain, TokenID: tokenID})
	}
	return pinned
}

// DomainPolicy converts the config section into the categorization policy.
func (c *PolicyConfig) DomainPolicy() domain.Policy {
	return domain.Policy{
		SmallTxUSDThreshold: c.SmallTxUSDThreshold,
		GasWithdrawAddrs:    c.GasWithdrawAddrs,
		GasReceiveAddrs:     c.GasReceiveAddrs,
		L2DepositAddrs:      c.L2DepositAddrs,
	}
}
