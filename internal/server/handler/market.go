package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// MarketSource defines what the market handler requires from a venue's
// source. It is declared locally so the handler package does not depend on
// the concrete source implementation.
type MarketSource interface {
	Name() string
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}

// MarketHandler serves the normalized market listing of one venue.
type MarketHandler struct {
	source MarketSource
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler for src.
func NewMarketHandler(src MarketSource, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		source: src,
		logger: logHandler(logger, src.Name()+"_markets"),
	}
}

// listMarketsResponse wraps a venue's markets with its name and count.
type listMarketsResponse struct {
	Source  string          `json:"source"`
	Count   int             `json:"count"`
	Markets []domain.Market `json:"markets"`
}

// ListMarkets returns the venue's active markets. Unlike the scan endpoint,
// an upstream failure here is reported as a 500 with the error message.
// GET /api/{source}/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.source.FetchMarkets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sm := domain.NewSourceMarkets(markets)
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Source:  h.source.Name(),
		Count:   sm.Count,
		Markets: sm.Markets,
	})
}
