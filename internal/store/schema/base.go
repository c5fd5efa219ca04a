// Package schema defines the cached row types and their column conversions.
// Every table shares the same identity scheme: a deterministic cache key
// derived from the owner address plus the entity's discriminator fields, with
// local bookkeeping timestamps maintained by the sync layer.
package schema

import "strings"

// TablePrefix namespaces every cache table inside a shared database file.
const TablePrefix = "wsc_"

// KeySeparator joins cache key segments.
const KeySeparator = "-"

// NormalizeOwner canonicalizes an owner address for keying and filtering.
func NormalizeOwner(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// DeriveKey builds a cache key from the owner address and discriminator
// segments. Empty segments are dropped before joining, so an absent optional
// discriminator never produces doubled separators, and two rows differing
// only in which optional field is empty still collapse to the same key by
// construction of each entity's segment order.
func DeriveKey(owner string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	if owner = NormalizeOwner(owner); owner != "" {
		parts = append(parts, owner)
	}
	for _, seg := range segments {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, KeySeparator)
}

// CachedRow carries the identity and bookkeeping columns shared by every
// cache table.
type CachedRow struct {
	// CacheKey uniquely identifies the row. Derived, never user supplied.
	CacheKey string `gorm:"column:cache_key;type:text;primaryKey"`

	// OwnerAddr is the normalized wallet address the row belongs to.
	OwnerAddr string `gorm:"column:owner_addr;type:text;not null;index"`

	// LocalCreatedAt is the unix millisecond timestamp of first insert.
	LocalCreatedAt int64 `gorm:"column:local_created_at;not null;default:0"`

	// LocalUpdatedAt is the unix millisecond timestamp of the last upsert.
	// Staleness checks and cleanup passes compare against it.
	LocalUpdatedAt int64 `gorm:"column:local_updated_at;not null;default:0;index"`
}

// Key returns the row's cache key.
func (r *CachedRow) Key() string {
	return r.CacheKey
}

// Owner returns the row's normalized owner address.
func (r *CachedRow) Owner() string {
	return r.OwnerAddr
}

// StampLocal records an upsert at nowMS, setting the creation timestamp on
// first touch.
func (r *CachedRow) StampLocal(nowMS int64) {
	if r.LocalCreatedAt == 0 {
		r.LocalCreatedAt = nowMS
	}
	r.LocalUpdatedAt = nowMS
}

// Row is the contract every cache table row satisfies for the batch
// scheduler: identity, the prepared upsert statement with its bind args, and
// local timestamp stamping.
type Row interface {
	TableName() string
	Key() string
	Owner() string
	UpsertSQL() string
	UpsertArgs() []any
	UpdateColumns() []string
	StampLocal(nowMS int64)
}

// upsertSQL renders the shared INSERT ... ON CONFLICT statement for a table.
// Conflicts on the cache key overwrite every business column from the
// incoming row, so replaying a batch is idempotent on both write paths.
func upsertSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (cache_key, owner_addr, local_created_at, local_updated_at")
	for _, col := range columns {
		b.WriteString(", ")
		b.WriteString(col)
	}
	b.WriteString(") VALUES (?, ?, ?, ?")
	b.WriteString(strings.Repeat(", ?", len(columns)))
	b.WriteString(") ON CONFLICT (cache_key) DO UPDATE SET local_updated_at = excluded.local_updated_at")
	for _, col := range columns {
		b.WriteString(", ")
		b.WriteString(col)
		b.WriteString(" = excluded.")
		b.WriteString(col)
	}
	return b.String()
}

func (r *CachedRow) baseArgs() []any {
	return []any{r.CacheKey, r.OwnerAddr, r.LocalCreatedAt, r.LocalUpdatedAt}
}

// updateColumns lists the columns a conflicting upsert overwrites. The
// creation timestamp is excluded on both write paths so replaying a row
// keeps its first-insert time.
func updateColumns(columns []string) []string {
	return append([]string{"local_updated_at"}, columns...)
}
