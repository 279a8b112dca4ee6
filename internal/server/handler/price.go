package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// LatestPricer returns a provider's latest-price payload for one token.
type LatestPricer interface {
	LatestPrice(ctx context.Context, tokenID string) (json.RawMessage, error)
}

// PriceTable returns a cached token id -> price table.
type PriceTable interface {
	HasPrices() bool
	Prices(ctx context.Context) (map[string]float64, error)
}

// PriceHandler serves per-venue price endpoints.
type PriceHandler struct {
	latest LatestPricer
	table  PriceTable
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler. Either dependency may be nil when
// the corresponding route is not registered.
func NewPriceHandler(latest LatestPricer, table PriceTable, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		latest: latest,
		table:  table,
		logger: logHandler(logger, "prices"),
	}
}

// LatestPrice passes the provider's latest-price JSON through unchanged.
// GET /api/opinion/price/{tokenId}
func (h *PriceHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	tokenID := pathParam(r, "tokenId")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing token id")
		return
	}

	raw, err := h.latest.LatestPrice(r.Context(), tokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: latest price failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

// Prices returns the cached price table.
// GET /api/probable/prices
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	if h.table == nil || !h.table.HasPrices() {
		writeError(w, http.StatusNotFound, "price table not configured")
		return
	}

	prices, err := h.table.Prices(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: price table failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prices)
}
