package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/server"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/server/ws"
	"github.com/alanyoungcy/arbscanner/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ServerMode serves the HTTP API and the WebSocket scan feed, and runs the
// periodic scan loop when feed.interval is set.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Int("port", a.cfg.Server.Port),
		slog.Duration("feed_interval", a.cfg.Feed.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.SignalBus, service.ScanChannel, a.logger.With(slog.String("component", "ws")))
	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("server mode: ws hub: %w", err)
		}
		return nil
	})

	if interval := a.cfg.Feed.Interval.Duration; interval > 0 {
		g.Go(func() error {
			_ = deps.Scans.RunLoop(ctx, interval)
			return nil
		})
	}

	a.startHTTPServer(ctx, g, deps, hub)

	return g.Wait()
}

// ScanMode runs a single scan and writes it to stdout as JSON.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	result := deps.Scans.Scan(ctx)

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("scan mode: encode result: %w", err)
	}
	return nil
}

// buildHandlers constructs every REST handler from deps.
func (a *App) buildHandlers(deps *Dependencies) server.Handlers {
	return server.Handlers{
		Health:          handler.NewHealthHandler(deps.CachePing, a.logger),
		OpinionMarkets:  handler.NewMarketHandler(deps.Opinion, a.logger),
		OpinionPrices:   handler.NewPriceHandler(deps.Opinion, nil, a.logger),
		ProbableMarkets: handler.NewMarketHandler(deps.Probable, a.logger),
		ProbablePrices:  handler.NewPriceHandler(nil, deps.Probable, a.logger),
		Scan:            handler.NewScanHandler(deps.Scans, a.logger),
	}
}

// startHTTPServer adds an HTTP server goroutine to the given errgroup. The
// server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, hub *ws.Hub) {
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		StaticDir:   a.cfg.Server.StaticDir,
	}, a.buildHandlers(deps), hub, a.logger.With(slog.String("component", "http")))

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
