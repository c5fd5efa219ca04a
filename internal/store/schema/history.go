package schema

import (
	"strings"

	"github.com/walletscope/assetcache/internal/codec"
	"github.com/walletscope/assetcache/internal/domain"
)

// HistoryRow is one cached remote transaction history entry. Identity is the
// owner plus chain and transaction id. Categorization happens at fill time so
// list queries never re-derive it.
type HistoryRow struct {
	CachedRow

	// TxID is the remote history entry id, normally the transaction hash.
	TxID string `gorm:"column:tx_id;type:text;not null;index"`

	Chain     string `gorm:"column:chain;type:text;not null;index"`
	CateID    string `gorm:"column:cate_id;type:text"`
	ProjectID string `gorm:"column:project_id;type:text"`

	// Project is the resolved project dictionary entry as JSON, when known.
	Project string `gorm:"column:project;type:text"`

	OtherAddr string `gorm:"column:other_addr;type:text"`
	IsScam    bool   `gorm:"column:is_scam;default:false"`

	// TimeAt is the on-chain unix second of the transaction.
	TimeAt int64 `gorm:"column:time_at;not null;default:0;index"`

	Sends        string `gorm:"column:sends;type:text"`
	Receives     string `gorm:"column:receives;type:text"`
	TokenApprove string `gorm:"column:token_approve;type:text"`
	Tx           string `gorm:"column:tx;type:text"`

	// TokenDict holds the token dictionary entries this row references, as a
	// JSON object keyed by token id.
	TokenDict string `gorm:"column:token_dict;type:text"`

	// Category is the classification derived at fill time.
	Category string `gorm:"column:category;type:text;index"`

	// IsSmall marks dust entries so default listings can hide them.
	IsSmall bool `gorm:"column:is_small;default:false"`
}

// HistoryAux carries the lookup context needed while filling history rows:
// the token and project dictionaries shipped with the page, the user's
// pinned tokens, collectible collection membership, and the categorization
// policy.
type HistoryAux struct {
	Tokens   map[string]domain.TokenItem
	Projects map[string]domain.ProjectItem

	// Collections reports, by transfer token id, whether a received
	// collectible belongs to a known collection.
	Collections map[string]bool

	// FailedSwaps holds transaction ids of swaps this device already knows
	// failed. Their receive legs never settled, whatever the remote page
	// optimistically reports.
	FailedSwaps map[string]bool

	Pinned []domain.PinnedToken
	Policy domain.Policy
}

func (aux HistoryAux) isPinned(chain, tokenID string) bool {
	for _, p := range aux.Pinned {
		if p.Chain == chain && p.TokenID == tokenID {
			return true
		}
	}
	return false
}

// FillHistory converts a remote history entry into its cache row, deriving
// the category and the dust flag.
func FillHistory(owner string, item domain.TxHistoryItem, aux HistoryAux) HistoryRow {
	if aux.FailedSwaps[item.ID] {
		item.Receives = nil
	}
	row := HistoryRow{
		TxID:      item.ID,
		Chain:     item.Chain,
		CateID:    item.CateID,
		ProjectID: item.ProjectID,
		OtherAddr: item.OtherAddr,
		IsScam:    item.IsScam,
		TimeAt:    item.TimeAt,
		Sends:     codec.EncodeJSON(item.Sends),
		Receives:  codec.EncodeJSON(item.Receives),
		Category:  string(CategorizeHistory(item, aux.Policy)),
		IsSmall:   IsSmallTx(owner, item, aux),
	}
	if item.TokenApprove != nil {
		row.TokenApprove = codec.EncodeJSON(item.TokenApprove)
	}
	if item.Tx != nil {
		row.Tx = codec.EncodeJSON(item.Tx)
	}
	if proj, ok := aux.Projects[item.ProjectID]; ok {
		row.Project = codec.EncodeJSON(proj)
	}
	if dict := referencedTokens(item, aux.Tokens); len(dict) > 0 {
		row.TokenDict = codec.EncodeJSON(dict)
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, row.Chain, row.TxID)
	return row
}

// referencedTokens narrows a page-level token dictionary to the entries this
// entry's transfers and approval mention.
func referencedTokens(item domain.TxHistoryItem, dict map[string]domain.TokenItem) map[string]domain.TokenItem {
	if len(dict) == 0 {
		return nil
	}
	out := make(map[string]domain.TokenItem)
	keep := func(id string) {
		if tok, ok := dict[id]; ok {
			out[id] = tok
		}
	}
	for _, tr := range item.Sends {
		keep(tr.TokenID)
	}
	for _, tr := range item.Receives {
		keep(tr.TokenID)
	}
	if item.TokenApprove != nil {
		keep(item.TokenApprove.TokenID)
	}
	return out
}

// CategorizeHistory classifies a history entry. Rules apply in order of
// precedence; anything unmatched, including a rule that panics on malformed
// input, is CategoryUnknown.
func CategorizeHistory(item domain.TxHistoryItem, pol domain.Policy) (cate domain.HistoryCategory) {
	cate = domain.CategoryUnknown
	defer func() {
		if recover() != nil {
			cate = domain.CategoryUnknown
		}
	}()

	if item.CateID == cateIDApprove && item.TokenApprove != nil {
		if item.TokenApprove.Value == 0 {
			return domain.CategoryRevoke
		}
		return domain.CategoryApprove
	}
	if item.CateID == cateIDCancel {
		return domain.CategoryCancel
	}

	tokenReceives, tokenSends := 0, 0
	for _, tr := range item.Receives {
		if !domain.IsNFTTokenID(tr.TokenID) {
			tokenReceives++
		}
	}
	for _, tr := range item.Sends {
		if !domain.IsNFTTokenID(tr.TokenID) {
			tokenSends++
		}
	}
	if tokenReceives == 1 && tokenSends == 1 {
		return domain.CategorySwap
	}

	if len(item.Receives) == 1 && len(item.Sends) == 0 {
		if item.Tx != nil {
			if pol.IsGasWithdrawAddr(item.Tx.FromAddr) {
				return domain.CategoryGasWithdraw
			}
			if pol.IsGasReceiveAddr(item.Tx.FromAddr) {
				return domain.CategoryGasReceived
			}
		}
		return domain.CategoryReceive
	}
	if len(item.Receives) == 0 && len(item.Sends) == 1 {
		if pol.L2DepositChain(item.OtherAddr) != "" {
			return domain.CategoryGasDeposit
		}
		return domain.CategorySend
	}

	return domain.CategoryUnknown
}

// Remote category ids that map directly to a classification.
const (
	cateIDApprove = "approve"
	cateIDCancel  = "cancel"
)

// IsSmallTx reports whether a history entry is dust. Entries initiated by
// the owner are never dust; entries bringing in nothing are always dust.
// Transfer value only counts for tokens the remote marks core or verified,
// or that the user pinned.
func IsSmallTx(owner string, item domain.TxHistoryItem, aux HistoryAux) bool {
	if item.Tx != nil && strings.EqualFold(item.Tx.FromAddr, owner) {
		return false
	}
	if len(item.Receives) == 0 {
		return true
	}

	total := 0.0
	for _, tr := range item.Receives {
		if domain.IsNFTTokenID(tr.TokenID) {
			return !aux.Collections[tr.TokenID]
		}
		tok, ok := aux.Tokens[tr.TokenID]
		if !ok {
			continue
		}
		if tok.IsCore || tok.IsVerified || aux.isPinned(tok.Chain, tok.ID) {
			total += codec.ToFloat(tr.Amount) * codec.ToFloat(tok.Price)
		}
	}
	return total < aux.Policy.SmallTxThreshold()
}

// Transfers decodes the send and receive columns.
func (r *HistoryRow) Transfers() (sends, receives []domain.TxTransferItem) {
	return codec.DecodeJSONSlice[domain.TxTransferItem](r.Sends),
		codec.DecodeJSONSlice[domain.TxTransferItem](r.Receives)
}

// TxDetail decodes the transaction envelope, or nil when absent.
func (r *HistoryRow) TxDetail() *domain.TxDetail {
	if r.Tx == "" {
		return nil
	}
	tx := codec.DecodeJSONObject[domain.TxDetail](r.Tx)
	return &tx
}

var historyColumns = []string{
	"tx_id", "chain", "cate_id", "project_id", "project", "other_addr",
	"is_scam", "time_at", "sends", "receives", "token_approve", "tx",
	"token_dict", "category", "is_small",
}

func (HistoryRow) TableName() string {
	return TablePrefix + "history"
}

func (r *HistoryRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), historyColumns)
}

func (r *HistoryRow) UpdateColumns() []string {
	return updateColumns(historyColumns)
}

func (r *HistoryRow) UpsertArgs() []any {
	return append(r.baseArgs(),
		r.TxID, r.Chain, r.CateID, r.ProjectID, r.Project, r.OtherAddr,
		r.IsScam, r.TimeAt, r.Sends, r.Receives, r.TokenApprove, r.Tx,
		r.TokenDict, r.Category, r.IsSmall,
	)
}
