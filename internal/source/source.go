package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// MarketSource is one provider's market feed as seen by the scan service.
type MarketSource interface {
	Name() string
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}

// Cache keys, one slot per provider endpoint.
const (
	KeyOpinionMarkets  = "opinion:markets"
	KeyProbableMarkets = "probable:markets"
	KeyProbablePrices  = "probable:prices"
)

// loadCached serves key from the slot cache while fresh. On a miss it calls
// fetch, returns empty for bodies that are not JSON at all, derives the result
// and only then stores the raw body, so a cached payload always re-derives.
// Cache failures are logged and treated as a miss.
func loadCached[T any](
	ctx context.Context,
	cache domain.SlotCache,
	key string,
	logger *slog.Logger,
	fetch func(context.Context) ([]byte, error),
	derive func([]byte) (T, error),
	empty func() T,
) (T, error) {
	if body, ok := cachedBody(ctx, cache, key, logger); ok {
		if v, err := derive(body); err == nil {
			return v, nil
		}
		logger.WarnContext(ctx, "source: cached payload no longer derives, refetching",
			slog.String("key", key),
		)
	}

	body, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if !LooksLikeJSON(body) {
		logger.WarnContext(ctx, "source: non-JSON body treated as empty",
			slog.String("key", key),
			slog.Int("bytes", len(body)),
		)
		return empty(), nil
	}

	v, err := derive(body)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := cache.Put(ctx, key, body); err != nil {
		logger.WarnContext(ctx, "source: cache put failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}

func cachedBody(ctx context.Context, cache domain.SlotCache, key string, logger *slog.Logger) ([]byte, bool) {
	fresh, err := cache.IsFresh(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "source: cache freshness check failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if !fresh {
		return nil, false
	}
	slot, err := cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.WarnContext(ctx, "source: cache get failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}
	return slot.Payload, true
}
