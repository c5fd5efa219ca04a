package schema

import "github.com/walletscope/assetcache/internal/domain"

// AccountSyncRow records the last sync outcome of one task kind for one
// address. The daemon consults it to decide what to refresh next.
type AccountSyncRow struct {
	CachedRow

	// TaskKind is the synced data class.
	TaskKind string `gorm:"column:task_kind;type:text;not null;index"`

	// LastSyncedAt is the unix millisecond timestamp of the last completed
	// run, aborted or not.
	LastSyncedAt int64 `gorm:"column:last_synced_at;not null;default:0"`

	// LastSuccess reports whether that run completed without abort or error.
	LastSuccess bool `gorm:"column:last_success;default:false"`
}

// FillAccountSync builds the sync-state row for one task kind.
func FillAccountSync(owner string, kind domain.TaskKind, syncedAtMS int64, success bool) AccountSyncRow {
	row := AccountSyncRow{
		TaskKind:     string(kind),
		LastSyncedAt: syncedAtMS,
		LastSuccess:  success,
	}
	row.OwnerAddr = NormalizeOwner(owner)
	row.CacheKey = DeriveKey(owner, "sync", row.TaskKind)
	return row
}

var accountSyncColumns = []string{"task_kind", "last_synced_at", "last_success"}

func (AccountSyncRow) TableName() string {
	return TablePrefix + "account_sync"
}

func (r *AccountSyncRow) UpsertSQL() string {
	return upsertSQL(r.TableName(), accountSyncColumns)
}

func (r *AccountSyncRow) UpdateColumns() []string {
	return updateColumns(accountSyncColumns)
}

func (r *AccountSyncRow) UpsertArgs() []any {
	return append(r.baseArgs(), r.TaskKind, r.LastSyncedAt, r.LastSuccess)
}
