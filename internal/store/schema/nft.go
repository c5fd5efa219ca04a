package schema

import (
	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// NFTRow is one cached collectible. Identity is the owner plus chain, remote
// id, and the optional per-contract token id.
type NFTRow struct {
	CachedRow

	// NFTID is the remote collectible identifier.
	NFTID string `gorm:"column:nft_id;type:text;not null;index"`

	Chain      string `gorm:"column:chain;type:text;not null;index"`
	ContractID string `gorm:"column:contract_id;type:text"`
	InnerID    string `gorm:"column:inner_id;type:text"`

	// TokenID is the token index inside the contract. Optional.
	TokenID string `gorm:"column:token_id;type:text"`

	Name         string  `gorm:"column:name;type:text"`
	ContractName string  `gorm:"column:contract_name;type:text"`
	Description  string  `gorm:"column:description;type:text"`
	Amount       float64 `gorm:"column:amount;default:0"`
	USDPrice     float64 `gorm:"column:usd_price;default:0"`
	ContentType  string  `gorm:"column:content_type;type:text"`
	Content      string  `gorm:"column:content;type:text"`
	ThumbnailURL string  `gorm:"column:thumbnail_url;type:text"`
	DetailURL    string  `gorm:"column:detail_url;type:text"`
	TotalSupply  float64 `gorm:"column:total_supply;default:0"`
	IsErc721     bool    `gorm:"column:is_erc721;default:false"`
	IsErc1155    bool    `gorm:"column:is_erc1155;default:false"`

	CollectionID string `gorm:"column:collection_id;type:text;index"`

	// Collection is the owning collection serialized as JSON, when known.
	Collection string `gorm:"column:collection;type:text"`

	// PayToken is the last sale payment token as raw JSON.
	PayToken string `gorm:"column:pay_token;type:text"`
}

// FillNFT converts a remote collectible payload into its cache row.
func FillNFT(owner string, item domain.NFTItem) NFTRow {
	row := NFTRow{
		NFTID:        item.ID,
		Chain:        item.Chain,
		ContractID:   item.ContractID,
		InnerID:      item.InnerID,
		TokenID:      item.TokenID,
		Name:         item.Name,
		ContractName: item.ContractName,
		Description:  item.Description,
		Amount:       codec.ToFloat(item.Amount),
		USDPrice:     codec.ToFloat(item.USDPrice),
		ContentType:  item.ContentType,
		Content:      item.Content,
		ThumbnailURL: item.ThumbnailURL,
		DetailURL:    item.DetailURL,
		TotalSupply:  codec.ToFloat(item.TotalSupply),
		IsErc721:     item.IsErc721,
		IsErc1155:    item.IsErc1155,
		CollectionID: item.CollectionID,
		PayToken:     string(item.PayToken),
	}
	if item.Collection != nil {
		row.Collection = codec.EncodeJSON(item.Collection)
		if row.CollectionID == "" {
			row.CollectionID = item.Collection.ID
		}
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.Chain, row.NFTID, row.TokenID)
	return row
}

// CollectionInfo decodes the collection column, or nil when absent.
func (r *NFTRow) CollectionInfo() *domain.NFTCollection {
	if r.Collection == "" {
		return nil
	}
	c := codec.DecodeJSONObject[domain.NFTCollection](r.Collection)
	if c.ID == "" && c.Name == "" {
		return nil
	}
	return &c
}

// IsEmptySentinel reports whether the row is the empty-portfolio placeholder.
func (r *NFTRow) IsEmptySentinel() bool {
	return r.NFTID == domain.EmptyNFTID
}

var nftColumns = []string{
	"nft_id", "chain", "contract_id", "inner_id", "token_id", "name",
	"contract_name", "description", "amount", "usd_price", "content_type",
	"content", "thumbnail_url", "detail_url", "total_supply", "is_erc721",
	"is_erc1155", "collection_id", "collection", "pay_token",
}

func (NFTRow) TableName() string {
	return TablePrefix + "nfts"
}

func (r *NFTRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), nftColumns)
}

func (r *NFTRow) UpdateColumns() []string {
	return updateColumns(nftColumns)
}

func (r *NFTRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.NFTID, r.Chain, r.ContractID, r.InnerID, r.TokenID, r.Name,
		r.ContractName, r.Description, r.Amount, r.USDPrice, r.ContentType,
		r.Content, r.ThumbnailURL, r.DetailURL, r.TotalSupply, r.IsErc721,
		r.IsErc1155, r.CollectionID, r.Collection, r.PayToken,
	)
}
