package schema

import (
	"github.com/shopspring/decimal"

	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// Balance scope labels. An address keeps at most one snapshot per scope.
const (
	BalanceScopeCore = "core"
	BalanceScopeAll  = "all"
)

// BalanceRow is one cached total-balance snapshot for an address. Identity
// is the owner plus the scope (core chains only, or all chains).
type BalanceRow struct {
	CachedRow

	// Scope is BalanceScopeCore or BalanceScopeAll.
	Scope string `gorm:"column:scope;type:text;not null"`

	// TotalUSDValue is the aggregate balance as an exact decimal string.
	TotalUSDValue string `gorm:"column:total_usd_value;type:text"`

	// ChainList is the per-chain breakdown serialized as JSON.
	ChainList string `gorm:"column:chain_list;type:text"`
}

// FillBalance converts a remote balance snapshot into its cache row.
func FillBalance(owner string, scope string, bal domain.TotalBalance) BalanceRow {
	row := BalanceRow{
		Scope:         scope,
		TotalUSDValue: codec.EncodeDecimal(bal.TotalUSDValue),
		ChainList:     codec.EncodeJSON(bal.ChainList),
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, "balance", row.Scope)
	return row
}

// Total decodes the aggregate balance.
func (r *BalanceRow) Total() decimal.Decimal {
	return codec.DecodeDecimal(r.TotalUSDValue)
}

// Chains decodes the per-chain breakdown.
func (r *BalanceRow) Chains() []domain.ChainBalance {
	return codec.DecodeJSONSlice[domain.ChainBalance](r.ChainList)
}

var balanceColumns = []string{"scope", "total_usd_value", "chain_list"}

func (BalanceRow) TableName() string {
	return TablePrefix + "balances"
}

func (r *BalanceRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), balanceColumns)
}

func (r *BalanceRow) UpdateColumns() []string {
	return updateColumns(balanceColumns)
}

func (r *BalanceRow) UpsertArgs() []any {
	return append(r.baseArgs(), r.Scope, r.TotalUSDValue, r.ChainList)
}
