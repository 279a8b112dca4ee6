package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbscanner/internal/cache/memory"
	"github.com/alanyoungcy/arbscanner/internal/cache/redis"
	"github.com/alanyoungcy/arbscanner/internal/config"
	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/fetch"
	"github.com/alanyoungcy/arbscanner/internal/platform/opinion"
	"github.com/alanyoungcy/arbscanner/internal/platform/probable"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/service"
	"github.com/alanyoungcy/arbscanner/internal/source"
)

// Dependencies bundles every dependency the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Fetcher   *fetch.Client
	SlotCache domain.SlotCache
	SignalBus domain.SignalBus
	// CachePing is set only for the shared redis backend.
	CachePing handler.Pinger

	Opinion  *source.Opinion
	Probable *source.Probable
	Scans    *service.ScanService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Fetcher: fetch.NewClient(fetch.WithTimeout(cfg.Upstream.Timeout.Duration)),
	}

	// --- Slot cache and signal bus ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SlotCache = redis.NewSlotCache(redisClient, cfg.Cache.TTL.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.CachePing = redisClient
	default:
		deps.SlotCache = memory.NewSlotCache(cfg.Cache.TTL.Duration)
		deps.SignalBus = memory.NewSignalBus()
	}

	// --- Sources ---
	opinionClient := opinion.NewClient(opinion.Config{
		BaseURL:      cfg.Opinion.BaseURL,
		APIKey:       cfg.Opinion.APIKey,
		MarketsPath:  cfg.Opinion.MarketsPath,
		MarketsQuery: cfg.Opinion.MarketsQuery,
		PricePath:    cfg.Opinion.PricePath,
	}, deps.Fetcher)

	opinionCfg := source.DefaultOpinionConfig()
	if len(cfg.Opinion.EnvelopeKeys) > 0 {
		opinionCfg.EnvelopeKeys = cfg.Opinion.EnvelopeKeys
	}
	deps.Opinion = source.NewOpinion(opinionClient, deps.SlotCache, opinionCfg, logger)

	probableClient := probable.NewClient(probable.Config{
		BaseURL:      cfg.Probable.BaseURL,
		MarketsPath:  cfg.Probable.MarketsPath,
		MarketsQuery: cfg.Probable.MarketsQuery,
		PricesPath:   cfg.Probable.PricesPath,
	}, deps.Fetcher)

	probableCfg := source.DefaultProbableConfig()
	probableCfg.EventNested = cfg.Probable.EventNested
	probableCfg.EnvelopeKeys = cfg.Probable.EnvelopeKeys
	if len(cfg.Probable.PriceEnvelopeKeys) > 0 {
		probableCfg.PriceEnvelopeKeys = cfg.Probable.PriceEnvelopeKeys
	}
	deps.Probable = source.NewProbable(probableClient, deps.SlotCache, probableCfg, logger)

	// --- Scan service ---
	deps.Scans = service.NewScanService(deps.Opinion, deps.Probable, deps.SignalBus,
		logger.With(slog.String("component", "scan")))

	if cfg.Opinion.APIKey == "" {
		logger.WarnContext(ctx, "wire: opinion api_key is empty, Opinion requests will be unauthenticated")
	}

	return deps, cleanup, nil
}
