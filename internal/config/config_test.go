package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletscope/assetcache/internal/domain"
)

func TestLoadCacheSyncConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *CacheSyncConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  path: "/var/lib/assetcache/cache.db"
  busy_timeout: "10s"
  max_open_conns: 2
sync:
  token_batch_size: 150
  concurrency: 2
  delay: "500ms"
  disable_prepared: true
expiry:
  tokens: "2m"
  balance: "90s"
policy:
  small_tx_usd_threshold: 0.25
  gas_withdraw_addrs:
    - "0xAAAA000000000000000000000000000000000001"
  gas_receive_addrs:
    - "0xBBBB000000000000000000000000000000000002"
  l2_deposit_addrs:
    "0xcccc000000000000000000000000000000000003": "arbitrum"
  pinned_tokens:
    - "eth:0xdac17f958d2ee523a2206206994597c13d831ec7"
remote:
  base_url: "https://api.example.com"
  request_timeout: "15s"
daemon:
  addresses:
    - "0x1234000000000000000000000000000000000000"
  interval: "2m"
  worker_pool_size: 8
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CacheSyncConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "/var/lib/assetcache/cache.db", cfg.Database.Path)
				assert.Equal(t, 10*time.Second, cfg.Database.BusyTimeout)
				assert.Equal(t, 2, cfg.Database.MaxOpenConns)
				assert.Equal(t, 150, cfg.Sync.TokenBatchSize)
				assert.Equal(t, 2, cfg.Sync.Concurrency)
				assert.Equal(t, 500*time.Millisecond, cfg.Sync.Delay)
				assert.True(t, cfg.Sync.DisablePrepared)
				assert.Equal(t, 2*time.Minute, cfg.Expiry.Tokens)
				assert.Equal(t, 90*time.Second, cfg.Expiry.Balance)
				assert.Equal(t, 0.25, cfg.Policy.SmallTxUSDThreshold)
				assert.Equal(t, []string{"0xAAAA000000000000000000000000000000000001"}, cfg.Policy.GasWithdrawAddrs)
				assert.Equal(t, "arbitrum", cfg.Policy.L2DepositAddrs["0xcccc000000000000000000000000000000000003"])
				assert.Equal(t, "https://api.example.com", cfg.Remote.BaseURL)
				assert.Equal(t, 15*time.Second, cfg.Remote.RequestTimeout)
				assert.Equal(t, []string{"0x1234000000000000000000000000000000000000"}, cfg.Daemon.Addresses)
				assert.Equal(t, 2*time.Minute, cfg.Daemon.Interval)
				assert.Equal(t, 8, cfg.Daemon.WorkerPoolSize)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  path: "cache.db"
remote:
  base_url: "https://api.example.com"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CacheSyncConfig) {
				// Check defaults
				assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
				assert.Equal(t, 1, cfg.Database.MaxOpenConns)
				assert.Equal(t, 300, cfg.Sync.TokenBatchSize)
				assert.Equal(t, 200, cfg.Sync.NFTBatchSize)
				assert.Equal(t, 200, cfg.Sync.ProtocolBatchSize)
				assert.Equal(t, 200, cfg.Sync.HistoryBatchSize)
				assert.Equal(t, 100, cfg.Sync.BuyOrderBatchSize)
				assert.Equal(t, 1, cfg.Sync.Concurrency)
				assert.Equal(t, 1500*time.Millisecond, cfg.Sync.Delay)
				assert.False(t, cfg.Sync.DisablePrepared)
				assert.Equal(t, 5*time.Minute, cfg.Expiry.Tokens)
				assert.Equal(t, 15*time.Minute, cfg.Expiry.NFTs)
				assert.Equal(t, 3*time.Minute, cfg.Expiry.Balance)
				assert.Equal(t, time.Hour, cfg.Expiry.CexInfo)
				assert.Equal(t, 0.1, cfg.Policy.SmallTxUSDThreshold)
				assert.Equal(t, 30*time.Second, cfg.Remote.RequestTimeout)
				assert.Equal(t, 2*time.Minute, cfg.Remote.RetryElapsed)
				assert.Equal(t, float64(10), cfg.Remote.RequestsPerSecond)
				assert.Equal(t, 5, cfg.Remote.Burst)
				assert.Equal(t, time.Minute, cfg.Daemon.Interval)
				assert.Equal(t, 4, cfg.Daemon.WorkerPoolSize)
			},
		},
		{
			name: "missing database path",
			configFile: `
remote:
  base_url: "https://api.example.com"
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "missing remote base url",
			configFile: `
database:
  path: "cache.db"
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  path: cache.db
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadCacheSyncConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestPolicyConfigPinned(t *testing.T) {
	cfg := PolicyConfig{
		PinnedTokens: []string{
			"eth:0xdac17f958d2ee523a2206206994597c13d831ec7",
			"malformed",
			":missing-chain",
			"bsc:",
			"matic:0x1",
		},
	}

	pinned := cfg.Pinned()
	assert.Equal(t, []domain.PinnedToken{
		{Chain: "eth", TokenID: "0xdac17f958d2ee523a2206206994597c13d831ec7"},
		{Chain: "matic", TokenID: "0x1"},
	}, pinned)
}

func TestPolicyConfigDomainPolicy(t *testing.T) {
	cfg := PolicyConfig{
		SmallTxUSDThreshold: 0.5,
		GasWithdrawAddrs:    []string{"0xaa"},
		GasReceiveAddrs:     []string{"0xbb"},
		L2DepositAddrs:      map[string]string{"0xcc": "optimism"},
	}

	policy := cfg.DomainPolicy()
	assert.Equal(t, 0.5, policy.SmallTxUSDThreshold)
	assert.Equal(t, []string{"0xaa"}, policy.GasWithdrawAddrs)
	assert.Equal(t, []string{"0xbb"}, policy.GasReceiveAddrs)
	assert.Equal(t, "optimism", policy.L2DepositAddrs["0xcc"])
}
