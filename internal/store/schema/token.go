package schema

import (
	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// TokenRow is one cached fungible token position. Identity is the owner plus
// token id, chain, and the optional inner id for wrapped positions.
type TokenRow struct {
	CachedRow

	// TokenID is the remote token identifier (native symbol or contract).
	TokenID string `gorm:"column:token_id;type:text;not null;index"`

	// Chain is the chain label the position lives on.
	Chain string `gorm:"column:chain;type:text;not null;index"`

	// InnerID distinguishes sub-positions sharing a token id. Optional.
	InnerID string `gorm:"column:inner_id;type:text"`

	Name            string `gorm:"column:name;type:text"`
	Symbol          string `gorm:"column:symbol;type:text"`
	DisplaySymbol   string `gorm:"column:display_symbol;type:text"`
	OptimizedSymbol string `gorm:"column:optimized_symbol;type:text"`
	Decimals        int    `gorm:"column:decimals;default:0"`
	LogoURL         string `gorm:"column:logo_url;type:text"`
	ProtocolID      string `gorm:"column:protocol_id;type:text"`

	Price          float64 `gorm:"column:price;default:0"`
	Price24hChange float64 `gorm:"column:price_24h_change;default:0"`
	CreditScore    float64 `gorm:"column:credit_score;default:0"`
	LowCreditScore bool    `gorm:"column:low_credit_score;default:false"`

	IsCore       bool `gorm:"column:is_core;default:false;index"`
	IsVerified   bool `gorm:"column:is_verified;default:false"`
	IsWallet     bool `gorm:"column:is_wallet;default:false"`
	IsScam       bool `gorm:"column:is_scam;default:false"`
	IsSuspicious bool `gorm:"column:is_suspicious;default:false"`
	IsInfinity   bool `gorm:"column:is_infinity;default:false"`

	// Amount is the held quantity in token units.
	Amount float64 `gorm:"column:amount;default:0"`

	// RawAmount is the exact on-chain quantity as a decimal string.
	RawAmount string `gorm:"column:raw_amount;type:text"`

	// RawAmountHex is the on-chain quantity in hex, when provided.
	RawAmountHex string `gorm:"column:raw_amount_hex;type:text"`

	// USDValueStored is amount times price encoded with the legacy integer
	// ratio. Read it through USDValue.
	USDValueStored int64 `gorm:"column:usd_value;default:0"`

	// TimeAt is the remote-reported unix second of the position snapshot.
	TimeAt int64 `gorm:"column:time_at;default:0"`

	// CexIDs is a JSON array of exchange ids listing the token.
	CexIDs string `gorm:"column:cex_ids;type:text"`

	ContentType string `gorm:"column:content_type;type:text"`
	Content     string `gorm:"column:content;type:text"`
}

// FillToken converts a remote token payload into its cache row. Conversion
// never fails: unusable numeric fields degrade to zero through the codec.
func FillToken(owner string, item domain.TokenItem) TokenRow {
	row := TokenRow{
		TokenID:         item.ID,
		Chain:           item.Chain,
		InnerID:         item.InnerID,
		Name:            item.Name,
		Symbol:          item.Symbol,
		DisplaySymbol:   item.DisplaySymbol,
		OptimizedSymbol: item.OptimizedSymbol,
		Decimals:        item.Decimals,
		LogoURL:         item.LogoURL,
		ProtocolID:      item.ProtocolID,
		Price:           codec.ToFloat(item.Price),
		CreditScore:     codec.ToFloat(item.CreditScore),
		LowCreditScore:  item.LowCreditScore,
		IsCore:          item.IsCore,
		IsVerified:      item.IsVerified,
		IsWallet:        item.IsWallet,
		IsScam:          item.IsScam,
		IsSuspicious:    item.IsSuspicious,
		IsInfinity:      item.IsInfinity,
		Amount:          codec.ToFloat(item.Amount),
		RawAmount:       codec.EncodeDecimal(string(item.RawAmount)),
		RawAmountHex:    item.RawAmountHexStr,
		TimeAt:          item.TimeAt,
		CexIDs:          codec.EncodeJSON(item.CexIDs),
		ContentType:     item.ContentType,
		Content:         item.Content,
	}
	if item.Price24hChange != nil {
		row.Price24hChange = codec.ToFloat(*item.Price24hChange)
	}
	row.USDValueStored = codec.EncodeLegacyReal(row.Amount * row.Price)
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.TokenID, row.Chain, row.InnerID)
	return row
}

// USDValue returns the position value in USD.
func (r *TokenRow) USDValue() float64 {
	return codec.DecodeLegacyReal(r.USDValueStored)
}

// CexIDList decodes the exchange id column.
func (r *TokenRow) CexIDList() []string {
	return codec.DecodeJSONSlice[string](r.CexIDs)
}

// IsEmptySentinel reports whether the row is the empty-portfolio placeholder.
func (r *TokenRow) IsEmptySentinel() bool {
	return r.TokenID == domain.EmptyTokenID
}

var tokenColumns = []string{
	"token_id", "chain", "inner_id", "name", "symbol", "display_symbol",
	"optimized_symbol", "decimals", "logo_url", "protocol_id", "price",
	"price_24h_change", "credit_score", "low_credit_score", "is_core",
	"is_verified", "is_wallet", "is_scam", "is_suspicious", "is_infinity",
	"amount", "raw_amount", "raw_amount_hex", "usd_value", "time_at",
	"cex_ids", "content_type", "content",
}

func (TokenRow) TableName() string {
	return TablePrefix + "tokens"
}

func (r *TokenRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), tokenColumns)
}

func (r *TokenRow) UpdateColumns() []string {
	return updateColumns(tokenColumns)
}

func (r *TokenRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.TokenID, r.Chain, r.InnerID, r.Name, r.Symbol, r.DisplaySymbol,
		r.OptimizedSymbol, r.Decimals, r.LogoURL, r.ProtocolID, r.Price,
		r.Price24hChange, r.CreditScore, r.LowCreditScore, r.IsCore,
		r.IsVerified, r.IsWallet, r.IsScam, r.IsSuspicious, r.IsInfinity,
		r.Amount, r.RawAmount, r.RawAmountHex, r.USDValueStored, r.TimeAt,
		r.CexIDs, r.ContentType, r.Content,
	)
}
