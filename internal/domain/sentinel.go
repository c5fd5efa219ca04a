package domain

import "errors"

// Sentinel ids written when a remote fetch legitimately returns nothing.
// Storing a placeholder row keeps the staleness watermark moving so an empty
// portfolio is not re-fetched on every read.
const (
	EmptyTokenID    = "@empty_token"
	EmptyNFTID      = "@empty_nft"
	EmptyProtocolID = "@empty_protocol"
)

// EmptyToken is the placeholder stored when an address holds no tokens.
func EmptyToken() TokenItem {
	return TokenItem{ID: EmptyTokenID}
}

// EmptyNFT is the placeholder stored when an address holds no collectibles.
func EmptyNFT() NFTItem {
	return NFTItem{ID: EmptyNFTID}
}

// EmptyProtocol is the placeholder stored when an address has no protocol
// positions.
func EmptyProtocol() ComplexProtocol {
	return ComplexProtocol{ID: EmptyProtocolID}
}

// IsEmptySentinelID reports whether id marks a placeholder row.
func IsEmptySentinelID(id string) bool {
	switch id {
	case EmptyTokenID, EmptyNFTID, EmptyProtocolID:
		return true
	}
	return false
}

var (
	// ErrEmptyOwner is returned when an operation requires an owner address
	// and none was given.
	ErrEmptyOwner = errors.New("owner address is empty")

	// ErrNoRows is returned by single-row lookups that found nothing.
	ErrNoRows = errors.New("no cached rows")
)
