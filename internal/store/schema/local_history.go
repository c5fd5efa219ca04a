package schema

import (
	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// Local transaction lifecycle states.
const (
	LocalTxPending   = "pending"
	LocalTxCompleted = "completed"
	LocalTxFailed    = "failed"
)

// LocalHistoryItem is a transaction submitted from this device, tracked
// before and after it appears in remote history.
type LocalHistoryItem struct {
	TxHash  string         `json:"tx_hash"`
	Chain   string         `json:"chain"`
	Nonce   int64          `json:"nonce"`
	Status  string         `json:"status"`
	TimeAt  int64          `json:"time_at"`
	GasFee  string         `json:"gas_fee,omitempty"`
	Explain map[string]any `json:"explain,omitempty"`
	RawTx   map[string]any `json:"raw_tx,omitempty"`
}

// LocalHistoryRow is one cached locally submitted transaction. Identity is
// the owner plus chain and transaction hash.
type LocalHistoryRow struct {
	CachedRow

	TxHash string `gorm:"column:tx_hash;type:text;not null;index"`
	Chain  string `gorm:"column:chain;type:text;not null;index"`
	Nonce  int64  `gorm:"column:nonce;default:0"`

	// Status is pending, completed, or failed.
	Status string `gorm:"column:status;type:text;index"`

	// TimeAt is the unix second the transaction was submitted.
	TimeAt int64 `gorm:"column:time_at;not null;default:0;index"`

	// GasFee is the paid fee as an exact decimal string, once known.
	GasFee string `gorm:"column:gas_fee;type:text"`

	// Explain is the pre-submit decoding of the transaction as JSON.
	Explain string `gorm:"column:explain;type:text"`

	// RawTx is the signed transaction envelope as JSON.
	RawTx string `gorm:"column:raw_tx;type:text"`
}

// FillLocalHistory converts a locally submitted transaction into its cache
// row.
func FillLocalHistory(owner string, item LocalHistoryItem) LocalHistoryRow {
	status := item.Status
	if status == "" {
		status = LocalTxPending
	}
	row := LocalHistoryRow{
		TxHash:  item.TxHash,
		Chain:   item.Chain,
		Nonce:   item.Nonce,
		Status:  status,
		TimeAt:  item.TimeAt,
		GasFee:  codec.EncodeDecimal(item.GasFee),
		Explain: codec.EncodeJSON(item.Explain),
		RawTx:   codec.EncodeJSON(item.RawTx),
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.Chain, row.TxHash)
	return row
}

// MatchesRemote reports whether a remote history entry settles this local
// transaction.
func (r *LocalHistoryRow) MatchesRemote(remote domain.TxHistoryItem) bool {
	return r.Chain == remote.Chain && r.TxHash == remote.ID
}

var localHistoryColumns = []string{
	"tx_hash", "chain", "nonce", "status", "time_at", "gas_fee", "explain",
	"raw_tx",
}

func (LocalHistoryRow) TableName() string {
	return TablePrefix + "local_history"
}

func (r *LocalHistoryRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), localHistoryColumns)
}

func (r *LocalHistoryRow) UpdateColumns() []string {
	return updateColumns(localHistoryColumns)
}

func (r *LocalHistoryRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.TxHash, r.Chain, r.Nonce, r.Status, r.TimeAt, r.GasFee, r.Explain,
		r.RawTx,
	)
}
