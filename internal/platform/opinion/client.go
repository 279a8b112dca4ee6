// Package opinion is the REST client for the Opinion market-data API. It
// returns raw response bodies; normalization lives in the source package.
package opinion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/fetch"
)

// Doer performs a single timeout-bounded call. *fetch.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Config describes the Opinion endpoints. Paths and query parameters are
// configuration because the provider's API has shifted between versions.
type Config struct {
	BaseURL      string
	APIKey       string
	MarketsPath  string
	MarketsQuery map[string]string
	PricePath    string
	PriceParam   string
}

// Client is the REST client for the Opinion open API.
type Client struct {
	cfg  Config
	doer Doer
}

// NewClient creates a new Opinion client.
//
// cfg.BaseURL is the API root, e.g. "https://openapi.opinion.trade/openapi".
func NewClient(cfg Config, doer Doer) *Client {
	if cfg.PriceParam == "" {
		cfg.PriceParam = "token_id"
	}
	return &Client{cfg: cfg, doer: doer}
}

// ListMarkets returns the raw body of the market list endpoint.
func (c *Client) ListMarkets(ctx context.Context) ([]byte, error) {
	params := url.Values{}
	for k, v := range c.cfg.MarketsQuery {
		params.Set(k, v)
	}
	body, err := c.doGet(ctx, c.cfg.MarketsPath, params)
	if err != nil {
		return nil, fmt.Errorf("opinion: list markets: %w", err)
	}
	return body, nil
}

// LatestPrice returns the raw body of the latest-price endpoint for tokenID.
func (c *Client) LatestPrice(ctx context.Context, tokenID string) ([]byte, error) {
	params := url.Values{}
	params.Set(c.cfg.PriceParam, tokenID)
	body, err := c.doGet(ctx, c.cfg.PricePath, params)
	if err != nil {
		return nil, fmt.Errorf("opinion: latest price %s: %w", tokenID, err)
	}
	return body, nil
}

// doGet sends an authenticated GET request and maps non-2xx statuses to
// *domain.UpstreamHTTPError.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.cfg.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		header.Set("apikey", c.cfg.APIKey)
	}

	resp, err := c.doer.Do(ctx, fetch.Request{URL: target, Header: header})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &domain.UpstreamHTTPError{Source: domain.SourceOpinion, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
