package domain

import "encoding/json"

// TokenItem is one fungible token position as returned by the remote asset
// API. Numeric fields arrive as JSON numbers; raw amounts may arrive as either
// a number or a decimal string and are kept as json.Number.
type TokenItem struct {
	ID              string      `json:"id"`
	Chain           string      `json:"chain"`
	InnerID         string      `json:"inner_id,omitempty"`
	Name            string      `json:"name"`
	Symbol          string      `json:"symbol"`
	DisplaySymbol   string      `json:"display_symbol,omitempty"`
	OptimizedSymbol string      `json:"optimized_symbol,omitempty"`
	Decimals        int         `json:"decimals"`
	LogoURL         string      `json:"logo_url,omitempty"`
	ProtocolID      string      `json:"protocol_id,omitempty"`
	Price           float64     `json:"price"`
	Price24hChange  *float64    `json:"price_24h_change,omitempty"`
	CreditScore     float64     `json:"credit_score,omitempty"`
	LowCreditScore  bool        `json:"low_credit_score,omitempty"`
	IsCore          bool        `json:"is_core,omitempty"`
	IsVerified      bool        `json:"is_verified,omitempty"`
	IsWallet        bool        `json:"is_wallet,omitempty"`
	IsScam          bool        `json:"is_scam,omitempty"`
	IsSuspicious    bool        `json:"is_suspicious,omitempty"`
	IsInfinity      bool        `json:"is_infinity,omitempty"`
	Amount          float64     `json:"amount"`
	RawAmount       json.Number `json:"raw_amount,omitempty"`
	RawAmountHexStr string      `json:"raw_amount_hex_str,omitempty"`
	TimeAt          int64       `json:"time_at,omitempty"`
	CexIDs          []string    `json:"cex_ids,omitempty"`
	ContentType     string      `json:"content_type,omitempty"`
	Content         string      `json:"content,omitempty"`

	// Collection is set on dictionary entries describing collectibles.
	Collection *NFTCollection `json:"collection,omitempty"`
}

// NFTCollection is the optional collection a token belongs to.
type NFTCollection struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	LogoURL     string  `json:"logo_url,omitempty"`
	IsCore      bool    `json:"is_core,omitempty"`
	IsVerified  bool    `json:"is_verified,omitempty"`
	FloorPrice  float64 `json:"floor_price,omitempty"`
}

// NFTItem is one collectible position from the remote asset API.
type NFTItem struct {
	ID              string          `json:"id"`
	Chain           string          `json:"chain"`
	ContractID      string          `json:"contract_id"`
	InnerID         string          `json:"inner_id"`
	TokenID         string          `json:"token_id,omitempty"`
	Name            string          `json:"name"`
	ContractName    string          `json:"contract_name,omitempty"`
	Description     string          `json:"description,omitempty"`
	Amount          float64         `json:"amount"`
	USDPrice        float64         `json:"usd_price,omitempty"`
	ContentType     string          `json:"content_type,omitempty"`
	Content         string          `json:"content,omitempty"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty"`
	DetailURL       string          `json:"detail_url,omitempty"`
	TotalSupply     float64         `json:"total_supply,omitempty"`
	IsErc721        bool            `json:"is_erc721,omitempty"`
	IsErc1155       bool            `json:"is_erc1155,omitempty"`
	CollectionID    string          `json:"collection_id,omitempty"`
	Collection      *NFTCollection  `json:"collection,omitempty"`
	PayToken        json.RawMessage `json:"pay_token,omitempty"`
}

// ComplexProtocol is one DeFi protocol position set. Portfolio items are kept
// as raw JSON; the cache stores them verbatim.
type ComplexProtocol struct {
	ID                string          `json:"id"`
	Chain             string          `json:"chain"`
	Name              string          `json:"name"`
	LogoURL           string          `json:"logo_url,omitempty"`
	SiteURL           string          `json:"site_url,omitempty"`
	HasSupportedPortfolio bool        `json:"has_supported_portfolio,omitempty"`
	TVL               float64         `json:"tvl,omitempty"`
	NetUSDValue       float64         `json:"net_usd_value"`
	AssetUSDValue     float64         `json:"asset_usd_value"`
	DebtUSDValue      float64         `json:"debt_usd_value"`
	PortfolioItemList json.RawMessage `json:"portfolio_item_list,omitempty"`
}

// ChainBalance is one chain's share of a total balance snapshot.
type ChainBalance struct {
	ID             string  `json:"id"`
	CommunityID    int64   `json:"community_id,omitempty"`
	Name           string  `json:"name"`
	NativeTokenID  string  `json:"native_token_id,omitempty"`
	LogoURL        string  `json:"logo_url,omitempty"`
	WrappedTokenID string  `json:"wrapped_token_id,omitempty"`
	USDValue       float64 `json:"usd_value"`
}

// TotalBalance is the aggregate USD balance of an address.
type TotalBalance struct {
	TotalUSDValue float64        `json:"total_usd_value"`
	ChainList     []ChainBalance `json:"chain_list,omitempty"`
}

// TxTransferItem is one token movement inside a history entry.
type TxTransferItem struct {
	TokenID  string  `json:"token_id"`
	Amount   float64 `json:"amount"`
	FromAddr string  `json:"from_addr,omitempty"`
	ToAddr   string  `json:"to_addr,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

// TokenApprove is the approval detail of an approve-class history entry.
type TokenApprove struct {
	TokenID string  `json:"token_id"`
	Spender string  `json:"spender"`
	Value   float64 `json:"value"`
}

// TxDetail is the on-chain transaction envelope of a history entry.
type TxDetail struct {
	Name        string  `json:"name,omitempty"`
	Status      int     `json:"status"`
	FromAddr    string  `json:"from_addr,omitempty"`
	ToAddr      string  `json:"to_addr,omitempty"`
	Value       float64 `json:"value,omitempty"`
	EthGasFee   float64 `json:"eth_gas_fee,omitempty"`
	USDGasFee   float64 `json:"usd_gas_fee,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	MessageData string  `json:"message,omitempty"`
}

// TxHistoryItem is one remote transaction history entry.
type TxHistoryItem struct {
	ID           string           `json:"id"`
	Chain        string           `json:"chain"`
	CateID       string           `json:"cate_id,omitempty"`
	ProjectID    string           `json:"project_id,omitempty"`
	OtherAddr    string           `json:"other_addr,omitempty"`
	IsScam       bool             `json:"is_scam,omitempty"`
	TimeAt       int64            `json:"time_at"`
	Sends        []TxTransferItem `json:"sends,omitempty"`
	Receives     []TxTransferItem `json:"receives,omitempty"`
	TokenApprove *TokenApprove    `json:"token_approve,omitempty"`
	Tx           *TxDetail        `json:"tx,omitempty"`
}

// ProjectItem is one entry of the project dictionary shipped alongside
// history pages.
type ProjectItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Chain   string `json:"chain,omitempty"`
	SiteURL string `json:"site_url,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// HistoryPayload is a page of remote history together with its token and
// project lookup dictionaries.
type HistoryPayload struct {
	HistoryList []TxHistoryItem      `json:"history_list"`
	TokenDict   map[string]TokenItem `json:"token_dict,omitempty"`
	ProjectDict map[string]ProjectItem `json:"project_dict,omitempty"`
}

// CexInfo describes one centralized exchange an address deposits to.
type CexInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LogoURL   string `json:"logo_url,omitempty"`
	IsDeposit bool   `json:"is_deposit,omitempty"`
}

// BuyOrder is one fiat on-ramp purchase record.
type BuyOrder struct {
	OrderID      string  `json:"order_id"`
	Provider     string  `json:"provider"`
	Status       string  `json:"status"`
	Chain        string  `json:"chain,omitempty"`
	CryptoSymbol string  `json:"crypto_symbol,omitempty"`
	CryptoAmount float64 `json:"crypto_amount,omitempty"`
	FiatCurrency string  `json:"fiat_currency,omitempty"`
	FiatAmount   float64 `json:"fiat_amount,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}
