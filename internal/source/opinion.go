package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// OpinionClient is the subset of the Opinion platform client used here.
type OpinionClient interface {
	ListMarkets(ctx context.Context) ([]byte, error)
	LatestPrice(ctx context.Context, tokenID string) ([]byte, error)
}

// OpinionConfig tunes envelope and field tolerance for Opinion payloads.
type OpinionConfig struct {
	EnvelopeKeys []string
	Fields       FieldMap
}

// DefaultOpinionConfig reads the "result.list" envelope before the generic
// shapes.
func DefaultOpinionConfig() OpinionConfig {
	return OpinionConfig{
		EnvelopeKeys: append([]string{"result.list"}, DefaultListKeys...),
		Fields:       DefaultFieldMap(),
	}
}

// Opinion is the cached market source for provider A.
type Opinion struct {
	client     OpinionClient
	cache      domain.SlotCache
	strategies []Strategy
	fields     FieldMap
	logger     *slog.Logger
}

// NewOpinion creates the Opinion source. Empty config fields fall back to
// DefaultOpinionConfig.
func NewOpinion(client OpinionClient, cache domain.SlotCache, cfg OpinionConfig, logger *slog.Logger) *Opinion {
	def := DefaultOpinionConfig()
	if len(cfg.EnvelopeKeys) == 0 {
		cfg.EnvelopeKeys = def.EnvelopeKeys
	}
	if len(cfg.Fields.ID) == 0 {
		cfg.Fields = def.Fields
	}
	return &Opinion{
		client:     client,
		cache:      cache,
		strategies: ParseStrategies(cfg.EnvelopeKeys),
		fields:     cfg.Fields,
		logger:     logger.With(slog.String("source", domain.SourceOpinion)),
	}
}

// Name implements MarketSource.
func (o *Opinion) Name() string { return domain.SourceOpinion }

// FetchMarkets returns Opinion's active markets, from cache when fresh.
func (o *Opinion) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	markets, err := loadCached(ctx, o.cache, KeyOpinionMarkets, o.logger,
		o.client.ListMarkets, o.derive, emptyMarkets)
	if err != nil {
		return nil, fmt.Errorf("opinion source: %w", err)
	}
	return markets, nil
}

func (o *Opinion) derive(body []byte) ([]domain.Market, error) {
	items, err := ExtractList(body, o.strategies)
	if err != nil {
		return nil, err
	}
	return NormalizeMarkets(domain.SourceOpinion, items, o.fields), nil
}

// LatestPrice returns the provider's latest-price payload for tokenID
// unchanged. It is never cached.
func (o *Opinion) LatestPrice(ctx context.Context, tokenID string) (json.RawMessage, error) {
	body, err := o.client.LatestPrice(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("opinion source: %w", err)
	}
	if !LooksLikeJSON(body) || !json.Valid(body) {
		return nil, fmt.Errorf("opinion source: latest price %s: %w", tokenID, domain.ErrUpstreamMalformed)
	}
	return json.RawMessage(body), nil
}

func emptyMarkets() []domain.Market { return []domain.Market{} }

// Compile-time interface check.
var _ MarketSource = (*Opinion)(nil)
