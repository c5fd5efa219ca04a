// Package remote fetches wallet asset data from the upstream API.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/ratelimit"
)

// Client is the upstream asset API surface the sync service consumes.
type Client interface {
	TokenList(ctx context.Context, addr string) ([]domain.TokenItem, error)
	NFTList(ctx context.Context, addr string) ([]domain.NFTItem, error)
	ProtocolList(ctx context.Context, addr string) ([]domain.ComplexProtocol, error)
	Protocol(ctx context.Context, addr, protocolID string) (*domain.ComplexProtocol, error)
	TotalBalance(ctx context.Context, addr string, coreOnly bool) (*domain.TotalBalance, error)
	History(ctx context.Context, addr string, beforeTimeAt int64) (*domain.HistoryPayload, error)
	BuyOrders(ctx context.Context, addr string) ([]domain.BuyOrder, error)
	CexInfo(ctx context.Context, addr string) ([]domain.CexInfo, error)
}

// Config holds upstream connection settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	RetryElapsed   time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

type httpClient struct {
	baseURL string
	http    adapter.HTTPClient
	limiter ratelimit.Limiter
}

// NewHTTPClient builds the production client.
func NewHTTPClient(cfg Config) Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := cfg.RetryElapsed
	if retry <= 0 {
		retry = 2 * time.Minute
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		http:    adapter.NewHTTPClient(timeout, retry),
		limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}),
	}
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("remote %s: %w", path, err)
	}
	if err := c.http.GetJSON(ctx, c.baseURL+path, query, out); err != nil {
		return fmt.Errorf("remote %s: %w", path, err)
	}
	return nil
}

func ownerQuery(addr string) url.Values {
	q := url.Values{}
	q.Set("id", addr)
	return q
}

func (c *httpClient) TokenList(ctx context.Context, addr string) ([]domain.TokenItem, error) {
	var out []domain.TokenItem
	if err := c.get(ctx, "/v1/user/token_list", ownerQuery(addr), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) NFTList(ctx context.Context, addr string) ([]domain.NFTItem, error) {
	var out []domain.NFTItem
	if err := c.get(ctx, "/v1/user/nft_list", ownerQuery(addr), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) ProtocolList(ctx context.Context, addr string) ([]domain.ComplexProtocol, error) {
	var out []domain.ComplexProtocol
	if err := c.get(ctx, "/v1/user/complex_protocol_list", ownerQuery(addr), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) Protocol(ctx context.Context, addr, protocolID string) (*domain.ComplexProtocol, error) {
	q := ownerQuery(addr)
	q.Set("protocol_id", protocolID)
	var out domain.ComplexProtocol
	if err := c.get(ctx, "/v1/user/protocol", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) TotalBalance(ctx context.Context, addr string, coreOnly bool) (*domain.TotalBalance, error) {
	q := ownerQuery(addr)
	if coreOnly {
		q.Set("is_core", "true")
	}
	var out domain.TotalBalance
	if err := c.get(ctx, "/v1/user/total_balance", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) History(ctx context.Context, addr string, beforeTimeAt int64) (*domain.HistoryPayload, error) {
	q := ownerQuery(addr)
	if beforeTimeAt > 0 {
		q.Set("start_time", strconv.FormatInt(beforeTimeAt, 10))
	}
	var out domain.HistoryPayload
	if err := c.get(ctx, "/v1/user/all_history_list", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) BuyOrders(ctx context.Context, addr string) ([]domain.BuyOrder, error) {
	var out []domain.BuyOrder
	if err := c.get(ctx, "/v1/user/buy_order_list", ownerQuery(addr), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) CexInfo(ctx context.Context, addr string) ([]domain.CexInfo, error) {
	var out []domain.CexInfo
	if err := c.get(ctx, "/v1/user/cex_list", ownerQuery(addr), &out); err != nil {
		return nil, err
	}
	return out, nil
}
