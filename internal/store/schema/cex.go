package schema

import "github.com/walletscope/assetcache/internal/domain"

// CexRow is one cached exchange association for an address. Identity is the
// owner plus the exchange id.
type CexRow struct {
	CachedRow

	CexID     string `gorm:"column:cex_id;type:text;not null;index"`
	Name      string `gorm:"column:name;type:text"`
	LogoURL   string `gorm:"column:logo_url;type:text"`
	IsDeposit bool   `gorm:"column:is_deposit;default:false"`
}

// FillCex converts a remote exchange association into its cache row.
func FillCex(owner string, item domain.CexInfo) CexRow {
	row := CexRow{
		CexID:     item.ID,
		Name:      item.Name,
		LogoURL:   item.LogoURL,
		IsDeposit: item.IsDeposit,
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.CexID)
	return row
}

var cexColumns = []string{"cex_id", "name", "logo_url", "is_deposit"}

func (CexRow) TableName() string {
	return TablePrefix + "cex_info"
}

func (r *CexRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), cexColumns)
}

func (r *CexRow) UpdateColumns() []string {
	return updateColumns(cexColumns)
}

func (r *CexRow) UpsertArgs() []any {
	return append(r.baseArgs(), r.CexID, r.Name, r.LogoURL, r.IsDeposit)
}
