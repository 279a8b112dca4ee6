package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/server/middleware"
	"github.com/alanyoungcy/arbscanner/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	StaticDir   string // served at "/" when non-empty
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health          *handler.HealthHandler
	OpinionMarkets  *handler.MarketHandler
	OpinionPrices   *handler.PriceHandler
	ProbableMarkets *handler.MarketHandler
	ProbablePrices  *handler.PriceHandler
	Scan            *handler.ScanHandler
}

// Server is the HTTP + WebSocket API server for the scanner.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (request ID, logging, CORS) and attaches the
// WebSocket hub when one is given.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     NewHandler(cfg, handlers, wsHub, logger),
		ReadTimeout: 15 * time.Second,
		// Scans wait on two upstreams, each bounded by the fetch timeout.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// NewHandler builds the routed and wrapped http.Handler.
func NewHandler(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/opinion/markets", handlers.OpinionMarkets.ListMarkets)
	mux.HandleFunc("GET /api/opinion/price/{tokenId}", handlers.OpinionPrices.LatestPrice)

	mux.HandleFunc("GET /api/probable/markets", handlers.ProbableMarkets.ListMarkets)
	mux.HandleFunc("GET /api/probable/prices", handlers.ProbablePrices.Prices)

	mux.HandleFunc("GET /api/scan", handlers.Scan.Scan)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting",
		slog.String("addr", ln.Addr().String()),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
