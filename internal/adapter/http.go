package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/walletscope/assetcache/internal/logger"
)

// HTTPClient fetches JSON documents with retry. Non-2xx responses below 500
// are permanent failures; 5xx and transport errors are retried with
// exponential backoff.
type HTTPClient interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

type retryHTTPClient struct {
	client     *http.Client
	maxElapsed time.Duration
}

func NewHTTPClient(timeout, maxElapsed time.Duration) HTTPClient {
	return &retryHTTPClient{
		client:     &http.Client{Timeout: timeout},
		maxElapsed: maxElapsed,
	}
}

func (c *retryHTTPClient) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			logger.Warn("http request failed, retrying", zap.String("url", rawURL), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %d from %s", resp.StatusCode, rawURL)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response from %s: %w", rawURL, err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
