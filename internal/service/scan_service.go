package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/source"
)

// ScanChannel is the signal bus channel every completed scan is published on.
const ScanChannel = "scan"

// Result is what one source produced during a scan.
type Result struct {
	Source  string
	Markets []domain.Market
	Err     error
}

// ScanService queries both venues concurrently and assembles a ScanResult in
// which a failing venue degrades to an empty listing instead of failing the
// whole scan.
type ScanService struct {
	opinion  source.MarketSource
	probable source.MarketSource
	bus      domain.SignalBus
	now      func() time.Time
	logger   *slog.Logger
}

// NewScanService creates a ScanService. bus may be nil, in which case scans
// are not published.
func NewScanService(
	opinion source.MarketSource,
	probable source.MarketSource,
	bus domain.SignalBus,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		opinion:  opinion,
		probable: probable,
		bus:      bus,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used for scan timestamps.
func (s *ScanService) WithClock(now func() time.Time) *ScanService {
	s.now = now
	return s
}

// Scan fetches every source in parallel and waits for all of them. It never
// returns an error: per-source failures are logged and reported in
// ScanResult.Errors.
func (s *ScanService) Scan(ctx context.Context) domain.ScanResult {
	sources := []source.MarketSource{s.opinion, s.probable}
	results := make([]Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = s.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	scan := domain.ScanResult{
		Timestamp: s.now().UnixMilli(),
		Opinion:   domain.NewSourceMarkets(nil),
		Probable:  domain.NewSourceMarkets(nil),
	}
	for _, r := range results {
		if r.Err != nil {
			if scan.Errors == nil {
				scan.Errors = make(map[string]string)
			}
			scan.Errors[r.Source] = r.Err.Error()
		}
		switch r.Source {
		case domain.SourceOpinion:
			scan.Opinion = domain.NewSourceMarkets(r.Markets)
		case domain.SourceProbable:
			scan.Probable = domain.NewSourceMarkets(r.Markets)
		}
	}

	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("opinion", scan.Opinion.Count),
		slog.Int("probable", scan.Probable.Count),
		slog.Int("failed_sources", len(scan.Errors)),
	)

	s.publish(ctx, scan)
	return scan
}

func (s *ScanService) fetch(ctx context.Context, src source.MarketSource) Result {
	start := time.Now()
	markets, err := src.FetchMarkets(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "scan: source failed, continuing with empty list",
			slog.String("source", src.Name()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return Result{Source: src.Name(), Markets: []domain.Market{}, Err: err}
	}
	return Result{Source: src.Name(), Markets: markets}
}

func (s *ScanService) publish(ctx context.Context, scan domain.ScanResult) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(scan)
	if err != nil {
		s.logger.WarnContext(ctx, "scan: encode for publish failed", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Publish(ctx, ScanChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "scan: publish failed", slog.String("error", err.Error()))
	}
}

// RunLoop scans immediately and then on every tick until ctx is cancelled.
func (s *ScanService) RunLoop(ctx context.Context, interval time.Duration) error {
	s.Scan(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}
