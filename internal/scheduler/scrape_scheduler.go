package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confscout/confscout/internal/ingestion"
	"github.com/confscout/confscout/internal/metrics"
	"github.com/confscout/confscout/internal/models"
)

// ScrapeScheduler runs the full ingestion pipeline on a fixed interval.
type ScrapeScheduler struct {
	pipeline  *ingestion.Pipeline
	collector *metrics.HTTPCollector
	logger    *slog.Logger
	stopChan  chan struct{}
	interval  time.Duration
	runOnce   bool
}

// NewScrapeScheduler creates a scheduler. The metrics collector may be nil.
// When runOnStart is set the first run happens immediately instead of after
// one full interval.
func NewScrapeScheduler(pipeline *ingestion.Pipeline, collector *metrics.HTTPCollector, interval time.Duration, runOnStart bool, logger *slog.Logger) *ScrapeScheduler {
	return &ScrapeScheduler{
		pipeline:  pipeline,
		collector: collector,
		logger:    logger,
		stopChan:  make(chan struct{}),
		interval:  interval,
		runOnce:   runOnStart,
	}
}

// Start begins the scheduler loop. It blocks until Stop is called or the
// context is cancelled; call it from its own goroutine.
func (s *ScrapeScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scrape scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.runOnce {
		s.runScrape(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.runScrape(ctx)
		case <-s.stopChan:
			s.logger.Info("Scrape scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Scrape scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler
func (s *ScrapeScheduler) Stop() {
	close(s.stopChan)
}

// runScrape executes one full pipeline run. A run already in flight (for
// example one triggered through the admin API) is skipped, not queued.
func (s *ScrapeScheduler) runScrape(ctx context.Context) {
	start := time.Now()
	result, err := s.pipeline.Run(ctx, models.ScrapeTypeFull)
	if errors.Is(err, ingestion.ErrRunInProgress) {
		s.logger.Info("Skipping scheduled scrape, a run is already in progress")
		return
	}
	if result == nil {
		s.logger.Error("Scheduled scrape failed to start", "error", err)
		return
	}

	if s.collector != nil {
		s.collector.RecordScrapeRun(string(models.ScrapeTypeFull), string(result.Status), time.Since(start), result.Added, result.Updated, result.Dropped)
	}

	s.logger.Info("Scheduled scrape finished",
		"log_id", result.LogID,
		"status", result.Status,
		"found", result.Found,
		"added", result.Added,
		"updated", result.Updated,
		"dropped", result.Dropped,
	)
	if err != nil {
		s.logger.Error("Scheduled scrape ended with errors", "log_id", result.LogID, "error", err)
	}
}
