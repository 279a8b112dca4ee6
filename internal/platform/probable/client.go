// Package probable is the REST client for the Probable market-data API.
package probable

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

// Config describes the Probable endpoints. MarketsPath may point at an events
// listing (markets nested per event) or a flat market listing; PricesPath is
// empty when the deployment has no price table.
type Config struct {
	BaseURL      string
	MarketsPath  string
	MarketsQuery map[string]string
	PricesPath   string
}

// Client is the unauthenticated REST client for Probable.
type Client struct {
	cfg  Config
	doer Doer
}

// NewClient creates a new Probable client.
//
// cfg.BaseURL is the API root, e.g. "https://market-api.probable.markets".
func NewClient(cfg Config, doer Doer) *Client {
	return &Client{cfg: cfg, doer: doer}
}

// HasPrices reports whether a price table endpoint is configured.
func (c *Client) HasPrices() bool {
	return c.cfg.PricesPath != ""
}

// ListMarkets returns the raw body of the events/markets endpoint.
func (c *Client) ListMarkets(ctx context.Context) ([]byte, error) {
	params := url.Values{}
	for k, v := range c.cfg.MarketsQuery {
		params.Set(k, v)
	}
	body, err := c.doGet(ctx, c.cfg.MarketsPath, params)
	if err != nil {
		return nil, fmt.Errorf("probable: list markets: %w", err)
	}
	return body, nil
}

// Prices returns the raw body of the token price table endpoint.
func (c *Client) Prices(ctx context.Context) ([]byte, error) {
	body, err := c.doGet(ctx, c.cfg.PricesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("probable: prices: %w", err)
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.cfg.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, fetch.Request{URL: target, Header: header})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &domain.UpstreamHTTPError{Source: domain.SourceProbable, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
