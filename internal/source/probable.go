package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// ProbableClient is the subset of the Probable platform client used here.
type ProbableClient interface {
	ListMarkets(ctx context.Context) ([]byte, error)
	Prices(ctx context.Context) ([]byte, error)
	HasPrices() bool
}

// ProbableConfig tunes envelope and field tolerance for Probable payloads.
// EventNested selects between an events listing (markets nested per event,
// enriched with event metadata) and a flat market listing.
type ProbableConfig struct {
	EventNested       bool
	EnvelopeKeys      []string
	PriceEnvelopeKeys []string
	Fields            FieldMap
	EventFields       EventFieldMap
}

// DefaultProbableConfig matches the events-plus-price-table integration.
func DefaultProbableConfig() ProbableConfig {
	return ProbableConfig{
		EventNested:       true,
		EnvelopeKeys:      []string{".", "events", "markets", "data"},
		PriceEnvelopeKeys: DefaultPriceKeys,
		Fields:            DefaultFieldMap(),
		EventFields:       DefaultEventFieldMap(),
	}
}

// Probable is the cached market source for provider B.
type Probable struct {
	client          ProbableClient
	cache           domain.SlotCache
	eventNested     bool
	strategies      []Strategy
	priceStrategies []Strategy
	fields          FieldMap
	eventFields     EventFieldMap
	logger          *slog.Logger
}

// NewProbable creates the Probable source. Empty config lists fall back to
// DefaultProbableConfig; EventNested is taken as given.
func NewProbable(client ProbableClient, cache domain.SlotCache, cfg ProbableConfig, logger *slog.Logger) *Probable {
	def := DefaultProbableConfig()
	if len(cfg.EnvelopeKeys) == 0 {
		if cfg.EventNested {
			cfg.EnvelopeKeys = def.EnvelopeKeys
		} else {
			cfg.EnvelopeKeys = DefaultListKeys
		}
	}
	if len(cfg.PriceEnvelopeKeys) == 0 {
		cfg.PriceEnvelopeKeys = def.PriceEnvelopeKeys
	}
	if len(cfg.Fields.ID) == 0 {
		cfg.Fields = def.Fields
	}
	if len(cfg.EventFields.Markets) == 0 {
		cfg.EventFields = def.EventFields
	}
	return &Probable{
		client:          client,
		cache:           cache,
		eventNested:     cfg.EventNested,
		strategies:      ParseStrategies(cfg.EnvelopeKeys),
		priceStrategies: ParseStrategies(cfg.PriceEnvelopeKeys),
		fields:          cfg.Fields,
		eventFields:     cfg.EventFields,
		logger:          logger.With(slog.String("source", domain.SourceProbable)),
	}
}

// Name implements MarketSource.
func (p *Probable) Name() string { return domain.SourceProbable }

// HasPrices reports whether a price table is configured.
func (p *Probable) HasPrices() bool { return p.client.HasPrices() }

// FetchMarkets returns Probable's active markets, from cache when fresh,
// joined against the price table when one is configured. Both slots load
// concurrently; a price table failure leaves the markets unpriced.
func (p *Probable) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var (
		markets   []domain.Market
		marketErr error
		prices    map[string]float64
		priceErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		markets, marketErr = loadCached(ctx, p.cache, KeyProbableMarkets, p.logger,
			p.client.ListMarkets, p.derive, emptyMarkets)
		return nil
	})
	if p.client.HasPrices() {
		g.Go(func() error {
			prices, priceErr = p.Prices(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if marketErr != nil {
		return nil, fmt.Errorf("probable source: %w", marketErr)
	}
	if !p.client.HasPrices() || len(markets) == 0 {
		return markets, nil
	}
	if priceErr != nil {
		p.logger.WarnContext(ctx, "probable source: price table unavailable, markets left unpriced",
			slog.String("error", priceErr.Error()),
		)
		return markets, nil
	}
	for i := range markets {
		markets[i].SetPrice(prices)
	}
	return markets, nil
}

// Prices returns the token id -> price table, from cache when fresh.
func (p *Probable) Prices(ctx context.Context) (map[string]float64, error) {
	prices, err := loadCached(ctx, p.cache, KeyProbablePrices, p.logger,
		p.client.Prices, p.derivePrices, emptyPrices)
	if err != nil {
		return nil, fmt.Errorf("probable source: %w", err)
	}
	return prices, nil
}

func (p *Probable) derive(body []byte) ([]domain.Market, error) {
	items, err := ExtractList(body, p.strategies)
	if err != nil {
		return nil, err
	}
	if p.eventNested {
		return NormalizeEvents(domain.SourceProbable, items, p.eventFields, p.fields), nil
	}
	return NormalizeMarkets(domain.SourceProbable, items, p.fields), nil
}

func (p *Probable) derivePrices(body []byte) (map[string]float64, error) {
	return ParsePriceTable(body, p.priceStrategies)
}

func emptyPrices() map[string]float64 { return map[string]float64{} }

// Compile-time interface check.
var _ MarketSource = (*Probable)(nil)
