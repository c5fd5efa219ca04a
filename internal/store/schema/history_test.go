package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletscope/assetcache/internal/domain"
)

const testOwner = "0x1111111111111111111111111111111111111111"

func nftTransferID(seed string) string {
	return (seed + strings.Repeat("0", 32))[:32]
}

func TestCategorizeHistory(t *testing.T) {
	policy := domain.Policy{
		GasWithdrawAddrs: []string{"0xgaswithdraw"},
		GasReceiveAddrs:  []string{"0xgasreceive"},
		L2DepositAddrs:   map[string]string{"0xbridge": "scroll"},
	}

	receive := domain.TxTransferItem{TokenID: "eth", Amount: 1}
	send := domain.TxTransferItem{TokenID: "usdc", Amount: 100}

	testCases := []struct {
		name string
		item domain.TxHistoryItem
		want domain.HistoryCategory
	}{
		{
			name: "revoke",
			item: domain.TxHistoryItem{
				CateID:       "approve",
				TokenApprove: &domain.TokenApprove{TokenID: "usdc", Value: 0},
			},
			want: domain.CategoryRevoke,
		},
		{
			name: "approve",
			item: domain.TxHistoryItem{
				CateID:       "approve",
				TokenApprove: &domain.TokenApprove{TokenID: "usdc", Value: 100},
			},
			want: domain.CategoryApprove,
		},
		{
			name: "cancel",
			item: domain.TxHistoryItem{CateID: "cancel"},
			want: domain.CategoryCancel,
		},
		{
			name: "swap",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{receive},
				Sends:    []domain.TxTransferItem{send},
			},
			want: domain.CategorySwap,
		},
		{
			name: "nft transfers do not make a swap",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: nftTransferID("a"), Amount: 1}},
				Sends:    []domain.TxTransferItem{send},
			},
			want: domain.CategoryUnknown,
		},
		{
			name: "receive",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{receive},
				Tx:       &domain.TxDetail{FromAddr: "0xsomeone"},
			},
			want: domain.CategoryReceive,
		},
		{
			name: "gas withdraw",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{receive},
				Tx:       &domain.TxDetail{FromAddr: "0xGasWithdraw"},
			},
			want: domain.CategoryGasWithdraw,
		},
		{
			name: "gas received",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{receive},
				Tx:       &domain.TxDetail{FromAddr: "0xgasreceive"},
			},
			want: domain.CategoryGasReceived,
		},
		{
			name: "send",
			item: domain.TxHistoryItem{
				Sends:     []domain.TxTransferItem{send},
				OtherAddr: "0xrecipient",
			},
			want: domain.CategorySend,
		},
		{
			name: "gas deposit",
			item: domain.TxHistoryItem{
				Sends:     []domain.TxTransferItem{send},
				OtherAddr: "0xBridge",
			},
			want: domain.CategoryGasDeposit,
		},
		{
			name: "multi transfer falls through",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{receive, receive},
				Sends:    []domain.TxTransferItem{send, send},
			},
			want: domain.CategoryUnknown,
		},
		{
			name: "empty entry",
			item: domain.TxHistoryItem{},
			want: domain.CategoryUnknown,
		},
		{
			name: "approve cate id without approval detail",
			item: domain.TxHistoryItem{CateID: "approve"},
			want: domain.CategoryUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CategorizeHistory(tc.item, policy))
		})
	}
}

func TestIsSmallTx(t *testing.T) {
	tokens := map[string]domain.TokenItem{
		"eth":  {ID: "eth", Chain: "ethereum", Price: 2000, IsCore: true},
		"junk": {ID: "junk", Chain: "ethereum", Price: 5000},
		"pin":  {ID: "pin", Chain: "ethereum", Price: 1},
	}
	aux := HistoryAux{
		Tokens:      tokens,
		Collections: map[string]bool{nftTransferID("c"): true},
		Pinned:      []domain.PinnedToken{{Chain: "ethereum", TokenID: "pin"}},
	}

	testCases := []struct {
		name string
		item domain.TxHistoryItem
		want bool
	}{
		{
			name: "own transaction never small",
			item: domain.TxHistoryItem{
				Tx: &domain.TxDetail{FromAddr: strings.ToUpper(testOwner)},
			},
			want: false,
		},
		{
			name: "no receives is small",
			item: domain.TxHistoryItem{
				Sends: []domain.TxTransferItem{{TokenID: "eth", Amount: 1}},
			},
			want: true,
		},
		{
			name: "nft without collection is small",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: nftTransferID("x"), Amount: 1}},
			},
			want: true,
		},
		{
			name: "nft with collection is not small",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: nftTransferID("c"), Amount: 1}},
			},
			want: false,
		},
		{
			name: "core token above threshold",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: "eth", Amount: 0.01}},
			},
			want: false,
		},
		{
			name: "unverified value does not count",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: "junk", Amount: 100}},
			},
			want: true,
		},
		{
			name: "pinned token counts",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: "pin", Amount: 5}},
			},
			want: false,
		},
		{
			name: "unknown token id is dust",
			item: domain.TxHistoryItem{
				Receives: []domain.TxTransferItem{{TokenID: "mystery", Amount: 100}},
			},
			want: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSmallTx(testOwner, tc.item, aux))
		})
	}
}

func TestFillHistory(t *testing.T) {
	aux := HistoryAux{
		Tokens: map[string]domain.TokenItem{
			"eth": {ID: "eth", Chain: "ethereum", Price: 2000, IsCore: true},
		},
		Projects: map[string]domain.ProjectItem{
			"uniswap": {ID: "uniswap", Name: "Uniswap"},
		},
	}
	item := domain.TxHistoryItem{
		ID:        "0xhash",
		Chain:     "ethereum",
		ProjectID: "uniswap",
		TimeAt:    1700000000,
		Receives:  []domain.TxTransferItem{{TokenID: "eth", Amount: 1}},
		Sends:     []domain.TxTransferItem{{TokenID: "usdc", Amount: 2000}},
	}

	row := FillHistory(testOwner, item, aux)
	assert.Equal(t, testOwner+"-ethereum-0xhash", row.CacheKey)
	assert.Equal(t, string(domain.CategorySwap), row.Category)
	assert.False(t, row.IsSmall)
	assert.Contains(t, row.Project, "Uniswap")
	assert.Contains(t, row.TokenDict, `"eth"`)

	sends, receives := row.Transfers()
	assert.Len(t, sends, 1)
	assert.Len(t, receives, 1)
}
