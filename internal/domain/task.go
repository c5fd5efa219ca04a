package domain

// TaskKind labels one class of synced data. Scheduler runs and bus events are
// keyed by it together with the owner address.
type TaskKind string

const (
	TaskTokens       TaskKind = "tokens"
	TaskNFTs         TaskKind = "nfts"
	TaskProtocols    TaskKind = "protocols"
	TaskBalance      TaskKind = "balance"
	TaskHistory      TaskKind = "history"
	TaskLocalHistory TaskKind = "local-history"
	TaskBuyOrders    TaskKind = "buy-orders"
	TaskCexInfo      TaskKind = "cex-info"
	TaskAccounts     TaskKind = "accounts"

	// TaskUnknown is the reserved fallback kind. It is attached to runs that
	// were started without an explicit kind and never matches a subscription.
	TaskUnknown TaskKind = "@unknown"
)

// AllTaskKinds lists every concrete kind, excluding TaskUnknown.
func AllTaskKinds() []TaskKind {
	return []TaskKind{
		TaskTokens, TaskNFTs, TaskProtocols, TaskBalance,
		TaskHistory, TaskLocalHistory, TaskBuyOrders, TaskCexInfo, TaskAccounts,
	}
}
