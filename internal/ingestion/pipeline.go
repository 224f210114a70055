package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confscout/confscout/internal/models"
	"github.com/confscout/confscout/internal/reconcile"
	"github.com/google/uuid"
)

// ErrRunInProgress is returned when a run is triggered while another run
// holds the pipeline.
var ErrRunInProgress = errors.New("scrape run already in progress")

// Pipeline orchestrates collectors: fetch, normalize, deduplicate and
// reconcile, with an audit log entry per run. Only one run executes at a
// time; overlapping triggers are rejected rather than queued.
type Pipeline struct {
	collectors []Collector
	reconciler *reconcile.Reconciler
	logs       ScrapeLogRepository
	normalizer *Normalizer
	logger     *slog.Logger
	now        func() time.Time

	runMu sync.Mutex
}

// NewPipeline creates a pipeline over the given collectors.
func NewPipeline(
	collectors []Collector,
	reconciler *reconcile.Reconciler,
	logs ScrapeLogRepository,
	normalizer *Normalizer,
	logger *slog.Logger,
) *Pipeline {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &Pipeline{
		collectors: collectors,
		reconciler: reconciler,
		logs:       logs,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	LogID   string              `json:"log_id"`
	Type    models.ScrapeType   `json:"type"`
	Status  models.ScrapeStatus `json:"status"`
	Found   int                 `json:"found"`
	Added   int                 `json:"added"`
	Updated int                 `json:"updated"`
	Dropped int                 `json:"dropped"`
	Failed  int                 `json:"failed"`
}

// Run executes the collectors matching scrapeType (all of them for
// ScrapeTypeFull). Collector failures are isolated: the run degrades to
// partial when some stages fail, and errors out only when every stage fails
// and nothing was processed.
func (p *Pipeline) Run(ctx context.Context, scrapeType models.ScrapeType) (*RunResult, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	selected := p.selectCollectors(scrapeType)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no collector registered for scrape type %s", scrapeType)
	}

	log := models.ScrapeLog{
		ID:        uuid.NewString(),
		Type:      scrapeType,
		Status:    models.ScrapeStatusPending,
		StartedAt: p.now(),
	}
	if err := p.logs.LogRun(ctx, log); err != nil {
		return nil, fmt.Errorf("recording scrape run: %w", err)
	}

	p.logger.Info("scrape run started",
		"log_id", log.ID,
		"type", scrapeType,
		"collectors", len(selected),
	)

	result := RunResult{LogID: log.ID, Type: scrapeType}
	var failedStages int
	var lastErr error

	for _, collector := range selected {
		stage, err := p.runCollector(ctx, collector)
		if err != nil {
			failedStages++
			lastErr = err
			p.logger.Error("collector stage failed",
				"log_id", log.ID,
				"collector", collector.Name(),
				"error", err,
			)
			continue
		}
		result.Found += stage.Found
		result.Added += stage.Added
		result.Updated += stage.Updated
		result.Dropped += stage.Dropped
		result.Failed += stage.Failed
	}

	status := models.ScrapeStatusSuccess
	switch {
	case failedStages == len(selected):
		status = models.ScrapeStatusError
		if lastErr != nil {
			log.ErrorMessage = lastErr.Error()
		}
	case failedStages > 0 || result.Failed > 0:
		status = models.ScrapeStatusPartial
		if lastErr != nil {
			log.ErrorMessage = lastErr.Error()
		}
	}

	log.Found = result.Found
	log.Added = result.Added
	log.Updated = result.Updated
	if err := log.Complete(status, p.now()); err != nil {
		return nil, err
	}
	if err := p.logs.CompleteRun(ctx, log); err != nil {
		p.logger.Error("failed to complete scrape log", "log_id", log.ID, "error", err)
	}
	result.Status = status

	p.logger.Info("scrape run finished",
		"log_id", log.ID,
		"status", status,
		"found", result.Found,
		"added", result.Added,
		"updated", result.Updated,
		"dropped", result.Dropped,
	)

	if status == models.ScrapeStatusError && lastErr != nil {
		return &result, lastErr
	}
	return &result, nil
}

// runCollector executes one collector stage end to end.
func (p *Pipeline) runCollector(ctx context.Context, collector Collector) (*RunResult, error) {
	start := p.now()

	raws, err := collector.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	stage := RunResult{Found: len(raws)}

	batch := make([]models.Conference, 0, len(raws))
	for _, raw := range raws {
		conf, err := p.normalizer.Convert(raw, collector.Source())
		if err != nil {
			stage.Dropped++
			p.logger.Debug("record dropped",
				"collector", collector.Name(),
				"name", raw.Name,
				"reason", err,
			)
			continue
		}
		batch = append(batch, conf)
	}

	before := len(batch)
	batch = Dedupe(batch)

	merged := p.reconciler.Reconcile(ctx, batch)
	stage.Added = merged.Added
	stage.Updated = merged.Updated
	stage.Failed = merged.Failed

	p.logger.Info("collector stage complete",
		"collector", collector.Name(),
		"found", stage.Found,
		"dropped", stage.Dropped,
		"duplicates", before-len(batch),
		"added", stage.Added,
		"updated", stage.Updated,
		"duration", time.Since(start),
	)
	return &stage, nil
}

// selectCollectors returns the collectors participating in a run.
func (p *Pipeline) selectCollectors(scrapeType models.ScrapeType) []Collector {
	if scrapeType == models.ScrapeTypeFull {
		return p.collectors
	}
	var selected []Collector
	for _, c := range p.collectors {
		if c.ScrapeType() == scrapeType {
			selected = append(selected, c)
		}
	}
	return selected
}

// HealthCheck checks the health of all collectors.
func (p *Pipeline) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, c := range p.collectors {
		results[c.Name()] = c.HealthCheck(ctx)
	}
	return results
}
