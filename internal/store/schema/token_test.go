package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletscope/assetcache/internal/domain"
)

func TestDeriveKey(t *testing.T) {
	testCases := []struct {
		name     string
		owner    string
		segments []string
		want     string
	}{
		{
			name:     "all segments",
			owner:    "0xAbC",
			segments: []string{"eth", "ethereum", "42"},
			want:     "0xabc-eth-ethereum-42",
		},
		{
			name:     "empty segment dropped",
			owner:    "0xabc",
			segments: []string{"eth", "ethereum", ""},
			want:     "0xabc-eth-ethereum",
		},
		{
			name:     "interior empty segment dropped",
			owner:    "0xabc",
			segments: []string{"", "ethereum", "42"},
			want:     "0xabc-ethereum-42",
		},
		{
			name:     "owner whitespace trimmed",
			owner:    " 0xABC ",
			segments: []string{"eth"},
			want:     "0xabc-eth",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveKey(tc.owner, tc.segments...))
		})
	}
}

func TestFillTokenDeterministicKey(t *testing.T) {
	item := domain.TokenItem{ID: "eth", Chain: "ethereum", Amount: 1.5, Price: 2000}

	a := FillToken("0xOwner", item)
	b := FillToken("0xowner", item)
	assert.Equal(t, a.CacheKey, b.CacheKey)
	assert.Equal(t, "0xowner-eth-ethereum", a.CacheKey)

	withInner := item
	withInner.InnerID = "7"
	c := FillToken("0xowner", withInner)
	assert.NotEqual(t, a.CacheKey, c.CacheKey)
}

func TestFillTokenValues(t *testing.T) {
	item := domain.TokenItem{
		ID:        "0xdead",
		Chain:     "op",
		Amount:    2,
		Price:     1.25,
		RawAmount: "2000000000000000000",
		CexIDs:    []string{"binance"},
		IsCore:    true,
	}

	row := FillToken("0xowner", item)
	assert.InDelta(t, 2.5, row.USDValue(), 1.0/18)
	assert.Equal(t, "2000000000000000000", row.RawAmount)
	assert.Equal(t, []string{"binance"}, row.CexIDList())
	assert.True(t, row.IsCore)
	assert.False(t, row.IsEmptySentinel())

	empty := FillToken("0xowner", domain.EmptyToken())
	assert.True(t, empty.IsEmptySentinel())
	assert.Equal(t, "0xowner-"+domain.EmptyTokenID, empty.CacheKey)
}

func TestStampLocal(t *testing.T) {
	row := FillToken("0xowner", domain.TokenItem{ID: "eth", Chain: "ethereum"})

	row.StampLocal(1000)
	assert.Equal(t, int64(1000), row.LocalCreatedAt)
	assert.Equal(t, int64(1000), row.LocalUpdatedAt)

	row.StampLocal(2000)
	assert.Equal(t, int64(1000), row.LocalCreatedAt)
	assert.Equal(t, int64(2000), row.LocalUpdatedAt)
}

func TestUpsertSQLMatchesArgs(t *testing.T) {
	rows := []Row{
		&TokenRow{},
		&NFTRow{},
		&ProtocolRow{},
		&BalanceRow{},
		&HistoryRow{},
		&LocalHistoryRow{},
		&BuyOrderRow{},
		&CexRow{},
		&AccountSyncRow{},
	}

	for _, row := range rows {
		t.Run(row.TableName(), func(t *testing.T) {
			sql := row.UpsertSQL()
			placeholders := 0
			for _, ch := range sql {
				if ch == '?' {
					placeholders++
				}
			}
			assert.Equal(t, len(row.UpsertArgs()), placeholders)
			assert.Contains(t, sql, "ON CONFLICT (cache_key)")
			assert.Contains(t, sql, row.TableName())

			cols := row.UpdateColumns()
			assert.Contains(t, cols, "local_updated_at")
			assert.NotContains(t, cols, "local_created_at",
				"conflict updates must not touch the first-insert time")
			assert.NotContains(t, sql, "local_created_at = excluded")
		})
	}
}

func TestFillNFTKey(t *testing.T) {
	item := domain.NFTItem{ID: "nft1", Chain: "ethereum", TokenID: "55"}
	row := FillNFT("0xOwner", item)
	assert.Equal(t, "0xowner-ethereum-nft1-55", row.CacheKey)

	noToken := FillNFT("0xowner", domain.NFTItem{ID: "nft1", Chain: "ethereum"})
	assert.Equal(t, "0xowner-ethereum-nft1", noToken.CacheKey)
}

func TestFillNFTCollection(t *testing.T) {
	row := FillNFT("0xowner", domain.NFTItem{
		ID:    "nft1",
		Chain: "ethereum",
		Collection: &domain.NFTCollection{
			ID:         "cool-cats",
			Name:       "Cool Cats",
			IsVerified: true,
		},
	})

	assert.Equal(t, "cool-cats", row.CollectionID)
	info := row.CollectionInfo()
	if assert.NotNil(t, info) {
		assert.True(t, info.IsVerified)
	}

	bare := FillNFT("0xowner", domain.NFTItem{ID: "nft2", Chain: "ethereum"})
	assert.Nil(t, bare.CollectionInfo())
}

func TestFillBalance(t *testing.T) {
	row := FillBalance("0xOwner", BalanceScopeAll, domain.TotalBalance{
		TotalUSDValue: 1234.56,
		ChainList: []domain.ChainBalance{
			{ID: "eth", Name: "Ethereum", USDValue: 1000},
			{ID: "op", Name: "Optimism", USDValue: 234.56},
		},
	})

	assert.Equal(t, "0xowner-balance-all", row.CacheKey)
	assert.Equal(t, "1234.56", row.Total().String())
	assert.Len(t, row.Chains(), 2)
}
