package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// ScanService defines what the scan handler requires from the service layer.
type ScanService interface {
	Scan(ctx context.Context) domain.ScanResult
}

// ScanHandler serves the combined cross-venue listing.
type ScanHandler struct {
	scans  ScanService
	encode func(any) ([]byte, error)
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler with the given service and logger.
func NewScanHandler(scans ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		scans:  scans,
		encode: json.Marshal,
		logger: logHandler(logger, "scan"),
	}
}

type scanResponse struct {
	Success bool `json:"success"`
	domain.ScanResult
}

// Scan returns both venues' markets. Source failures only empty that
// source's listing; the endpoint fails only when the response itself
// cannot be assembled.
// GET /api/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	result := h.scans.Scan(r.Context())

	data, err := h.encode(scanResponse{Success: true, ScanResult: result})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: encode scan failed",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeRaw(w, http.StatusOK, data)
}
