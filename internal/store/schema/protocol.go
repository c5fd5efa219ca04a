package schema

import (
	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// ProtocolRow is one cached DeFi protocol position set. Identity is the
// owner plus protocol id and chain.
type ProtocolRow struct {
	CachedRow

	// ProtocolID is the remote protocol identifier.
	ProtocolID string `gorm:"column:protocol_id;type:text;not null;index"`

	Chain   string `gorm:"column:chain;type:text;not null"`
	Name    string `gorm:"column:name;type:text"`
	LogoURL string `gorm:"column:logo_url;type:text"`
	SiteURL string `gorm:"column:site_url;type:text"`

	HasSupportedPortfolio bool `gorm:"column:has_supported_portfolio;default:false"`

	TVL float64 `gorm:"column:tvl;default:0"`

	// NetUSDValueStored is the net position value encoded with the legacy
	// integer ratio. Read it through NetUSDValue.
	NetUSDValueStored int64 `gorm:"column:net_usd_value;default:0"`

	AssetUSDValue float64 `gorm:"column:asset_usd_value;default:0"`
	DebtUSDValue  float64 `gorm:"column:debt_usd_value;default:0"`

	// PortfolioItems is the raw JSON portfolio item list, stored verbatim.
	PortfolioItems string `gorm:"column:portfolio_items;type:text"`
}

// FillProtocol converts a remote protocol payload into its cache row.
func FillProtocol(owner string, item domain.ComplexProtocol) ProtocolRow {
	row := ProtocolRow{
		ProtocolID:            item.ID,
		Chain:                 item.Chain,
		Name:                  item.Name,
		LogoURL:               item.LogoURL,
		SiteURL:               item.SiteURL,
		HasSupportedPortfolio: item.HasSupportedPortfolio,
		TVL:                   codec.ToFloat(item.TVL),
		NetUSDValueStored:     codec.EncodeLegacyReal(item.NetUSDValue),
		AssetUSDValue:         codec.ToFloat(item.AssetUSDValue),
		DebtUSDValue:          codec.ToFloat(item.DebtUSDValue),
		PortfolioItems:        string(item.PortfolioItemList),
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.ProtocolID, row.Chain)
	return row
}

// NetUSDValue returns the decoded net position value in USD.
func (r *ProtocolRow) NetUSDValue() float64 {
	return codec.DecodeLegacyReal(r.NetUSDValueStored)
}

// IsEmptySentinel reports whether the row is the empty-portfolio placeholder.
func (r *ProtocolRow) IsEmptySentinel() bool {
	return r.ProtocolID == domain.EmptyProtocolID
}

var protocolColumns = []string{
	"protocol_id", "chain", "name", "logo_url", "site_url",
	"has_supported_portfolio", "tvl", "net_usd_value", "asset_usd_value",
	"debt_usd_value", "portfolio_items",
}

func (ProtocolRow) TableName() string {
	return TablePrefix + "protocols"
}

func (r *ProtocolRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), protocolColumns)
}

func (r *ProtocolRow) UpdateColumns() []string {
	return updateColumns(protocolColumns)
}

func (r *ProtocolRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.ProtocolID, r.Chain, r.Name, r.LogoURL, r.SiteURL,
		r.HasSupportedPortfolio, r.TVL, r.NetUSDValueStored, r.AssetUSDValue,
		r.DebtUSDValue, r.PortfolioItems,
	)
}
