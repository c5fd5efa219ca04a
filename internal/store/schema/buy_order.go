package schema

import (
	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// BuyOrderRow is one cached fiat on-ramp purchase. Identity is the owner
// plus the provider order id.
type BuyOrderRow struct {
	CachedRow

	OrderID  string `gorm:"column:order_id;type:text;not null;index"`
	Provider string `gorm:"column:provider;type:text"`
	Status   string `gorm:"column:status;type:text"`
	Chain    string `gorm:"column:chain;type:text"`

	CryptoSymbol string `gorm:"column:crypto_symbol;type:text"`

	// CryptoAmount is the purchased quantity as an exact decimal string.
	CryptoAmount string `gorm:"column:crypto_amount;type:text"`

	FiatCurrency string `gorm:"column:fiat_currency;type:text"`

	// FiatAmount is the paid amount as an exact decimal string.
	FiatAmount string `gorm:"column:fiat_amount;type:text"`

	// CreatedAt is the unix second the order was placed.
	CreatedAt int64 `gorm:"column:created_at;not null;default:0;index"`
}

// FillBuyOrder converts a remote purchase record into its cache row.
func FillBuyOrder(owner string, item domain.BuyOrder) BuyOrderRow {
	row := BuyOrderRow{
		OrderID:      item.OrderID,
		Provider:     item.Provider,
		Status:       item.Status,
		Chain:        item.Chain,
		CryptoSymbol: item.CryptoSymbol,
		CryptoAmount: codec.EncodeDecimal(item.CryptoAmount),
		FiatCurrency: item.FiatCurrency,
		FiatAmount:   codec.EncodeDecimal(item.FiatAmount),
		CreatedAt:    item.CreatedAt,
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.OrderID)
	return row
}

var buyOrderColumns = []string{
	"order_id", "provider", "status", "chain", "crypto_symbol",
	"crypto_amount", "fiat_currency", "fiat_amount", "created_at",
}

func (BuyOrderRow) TableName() string {
	return TablePrefix + "buy_orders"
}

func (r *BuyOrderRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), buyOrderColumns)
}

func (r *BuyOrderRow) UpdateColumns() []string {
	return updateColumns(buyOrderColumns)
}

func (r *BuyOrderRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.OrderID, r.Provider, r.Status, r.Chain, r.CryptoSymbol,
		r.CryptoAmount, r.FiatCurrency, r.FiatAmount, r.CreatedAt,
	)
}
