package domain

import "strings"

// HistoryCategory is the classification assigned to a history entry when it
// is cached.
type HistoryCategory string

const (
	CategoryUnknown     HistoryCategory = "unknown"
	CategorySend        HistoryCategory = "send"
	CategoryReceive     HistoryCategory = "receive"
	CategorySwap        HistoryCategory = "swap"
	CategoryApprove     HistoryCategory = "approve"
	CategoryRevoke      HistoryCategory = "revoke"
	CategoryCancel      HistoryCategory = "cancel"
	CategoryGasDeposit  HistoryCategory = "gas-deposit"
	CategoryGasWithdraw HistoryCategory = "gas-withdraw"
	CategoryGasReceived HistoryCategory = "gas-received"
)

// PinnedToken identifies one token the user pinned in the UI. Pinned tokens
// count toward transfer value even when unverified.
type PinnedToken struct {
	Chain   string
	TokenID string
}

// Policy carries the tunables used while categorizing history entries. Zero
// value disables the gas-account and deposit-bridge special cases.
type Policy struct {
	// SmallTxUSDThreshold is the total transfer value, in USD, below which a
	// received-only entry is considered dust.
	SmallTxUSDThreshold float64

	// GasWithdrawAddrs and GasReceiveAddrs are the gas-account service
	// addresses. A receive-only entry originating from one of them is
	// reclassified as a gas-account movement.
	GasWithdrawAddrs []string
	GasReceiveAddrs  []string

	// L2DepositAddrs maps bridge deposit addresses (lowercased) to the
	// destination chain label.
	L2DepositAddrs map[string]string
}

// DefaultSmallTxUSDThreshold is the dust cutoff applied when no policy
// override is configured.
const DefaultSmallTxUSDThreshold = 0.1

func containsAddr(addrs []string, addr string) bool {
	if addr == "" {
		return false
	}
	addr = strings.ToLower(addr)
	for _, a := range addrs {
		if strings.ToLower(a) == addr {
			return true
		}
	}
	return false
}

// IsGasWithdrawAddr reports whether addr is a gas-account withdraw source.
func (p Policy) IsGasWithdrawAddr(addr string) bool {
	return containsAddr(p.GasWithdrawAddrs, addr)
}

// IsGasReceiveAddr reports whether addr is a gas-account top-up source.
func (p Policy) IsGasReceiveAddr(addr string) bool {
	return containsAddr(p.GasReceiveAddrs, addr)
}

// L2DepositChain returns the destination chain for a bridge deposit address,
// or "" when addr is not a known bridge.
func (p Policy) L2DepositChain(addr string) string {
	if addr == "" || len(p.L2DepositAddrs) == 0 {
		return ""
	}
	return p.L2DepositAddrs[strings.ToLower(addr)]
}

// SmallTxThreshold returns the configured dust cutoff, falling back to the
// default when unset.
func (p Policy) SmallTxThreshold() float64 {
	if p.SmallTxUSDThreshold > 0 {
		return p.SmallTxUSDThreshold
	}
	return DefaultSmallTxUSDThreshold
}

// nftTokenIDLength is how remote transfer entries encode collectibles: their
// token id is a 32-character digest instead of a chain-prefixed token id.
const nftTokenIDLength = 32

// IsNFTTokenID reports whether a transfer token id refers to a collectible.
func IsNFTTokenID(tokenID string) bool {
	return len(tokenID) == nftTokenIDLength
}
