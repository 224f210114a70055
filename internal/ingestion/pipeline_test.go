package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/confscout/confscout/internal/models"
	"github.com/confscout/confscout/internal/reconcile"
)

// fakeCollector returns canned raw items or a canned error.
type fakeCollector struct {
	name       string
	source     models.SourceType
	scrapeType models.ScrapeType
	items      []RawConference
	err        error
}

func (c *fakeCollector) Name() string                  { return c.name }
func (c *fakeCollector) Source() models.SourceType     { return c.source }
func (c *fakeCollector) ScrapeType() models.ScrapeType { return c.scrapeType }
func (c *fakeCollector) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *fakeCollector) Fetch(ctx context.Context) ([]RawConference, error) {
	return c.items, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(collectors ...Collector) (*Pipeline, *MemoryConferenceRepository, *MemoryScrapeLogRepository) {
	conferences := NewMemoryConferenceRepository()
	logs := NewMemoryScrapeLogRepository()
	logger := discardLogger()
	p := NewPipeline(collectors, reconcile.New(conferences, logger), logs, nil, logger)
	return p, conferences, logs
}

func futureRaw(name, url string) RawConference {
	return RawConference{Name: name, URL: url, StartDate: "2099-06-01"}
}

func TestPipelineRunSuccess(t *testing.T) {
	collector := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items: []RawConference{
			futureRaw("GopherCon", "https://gophercon.com"),
			futureRaw("PyCon", "https://pycon.org"),
		},
	}
	p, conferences, logs := newTestPipeline(collector)

	result, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.ScrapeStatusSuccess {
		t.Errorf("expected success, got %s", result.Status)
	}
	if result.Found != 2 || result.Added != 2 || result.Updated != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if conferences.Size() != 2 {
		t.Errorf("expected 2 stored conferences, got %d", conferences.Size())
	}

	stored, err := logs.GetByID(context.Background(), result.LogID)
	if err != nil || stored == nil {
		t.Fatalf("scrape log not stored: %v", err)
	}
	if stored.Status != models.ScrapeStatusSuccess || stored.CompletedAt == nil {
		t.Errorf("log not completed: %+v", stored)
	}
	if stored.Found != 2 || stored.Added != 2 {
		t.Errorf("log counts wrong: %+v", stored)
	}
}

func TestPipelineSecondRunCountsUpdates(t *testing.T) {
	collector := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items:      []RawConference{futureRaw("GopherCon", "https://gophercon.com")},
	}
	p, conferences, _ := newTestPipeline(collector)

	if _, err := p.Run(context.Background(), models.ScrapeTypeGitHub); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Added != 0 || result.Updated != 1 {
		t.Errorf("second run should update, not add: %+v", result)
	}
	if conferences.Size() != 1 {
		t.Errorf("expected 1 stored conference, got %d", conferences.Size())
	}
}

func TestPipelineCollectorFailureIsolated(t *testing.T) {
	broken := &fakeCollector{
		name:       "search",
		source:     models.SourceTypeSearch,
		scrapeType: models.ScrapeTypeSearch,
		err:        errors.New("provider down"),
	}
	healthy := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items:      []RawConference{futureRaw("GopherCon", "https://gophercon.com")},
	}
	p, conferences, _ := newTestPipeline(broken, healthy)

	result, err := p.Run(context.Background(), models.ScrapeTypeFull)
	if err != nil {
		t.Fatalf("partial run should not return an error: %v", err)
	}
	if result.Status != models.ScrapeStatusPartial {
		t.Errorf("expected partial status, got %s", result.Status)
	}
	if result.Added != 1 {
		t.Errorf("healthy collector's records should land: %+v", result)
	}
	if conferences.Size() != 1 {
		t.Errorf("expected 1 stored conference, got %d", conferences.Size())
	}
}

func TestPipelineAllCollectorsFailing(t *testing.T) {
	broken := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		err:        errors.New("provider down"),
	}
	p, _, logs := newTestPipeline(broken)

	result, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if err == nil {
		t.Fatal("expected an error when every stage fails")
	}
	if result.Status != models.ScrapeStatusError {
		t.Errorf("expected error status, got %s", result.Status)
	}

	stored, _ := logs.GetByID(context.Background(), result.LogID)
	if stored == nil || stored.Status != models.ScrapeStatusError {
		t.Errorf("log should record the error status: %+v", stored)
	}
	if stored.ErrorMessage == "" {
		t.Error("log should carry the failure message")
	}
}

func TestPipelineDropsInvalidRecords(t *testing.T) {
	collector := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items: []RawConference{
			futureRaw("GopherCon", "https://gophercon.com"),
			{Name: "No URL", StartDate: "2099-06-01"},
			{Name: "Ancient Conf", URL: "https://old.example.com", StartDate: "2001-06-01"},
		},
	}
	p, conferences, _ := newTestPipeline(collector)

	result, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found != 3 || result.Added != 1 || result.Dropped != 2 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if conferences.Size() != 1 {
		t.Errorf("expected 1 stored conference, got %d", conferences.Size())
	}
}

func TestPipelineDeduplicatesWithinRun(t *testing.T) {
	collector := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items: []RawConference{
			futureRaw("GopherCon", "https://gophercon.com"),
			futureRaw("gophercon", "HTTPS://GOPHERCON.COM"),
		},
	}
	p, conferences, _ := newTestPipeline(collector)

	result, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Added != 1 {
		t.Errorf("duplicate within one run should collapse: %+v", result)
	}
	if conferences.Size() != 1 {
		t.Errorf("expected 1 stored conference, got %d", conferences.Size())
	}
}

func TestPipelineRejectsOverlappingRun(t *testing.T) {
	collector := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
	}
	p, _, _ := newTestPipeline(collector)

	p.runMu.Lock()
	defer p.runMu.Unlock()

	_, err := p.Run(context.Background(), models.ScrapeTypeGitHub)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestPipelineSelectsCollectorsByType(t *testing.T) {
	github := &fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
		items:      []RawConference{futureRaw("GopherCon", "https://gophercon.com")},
	}
	search := &fakeCollector{
		name:       "search",
		source:     models.SourceTypeSearch,
		scrapeType: models.ScrapeTypeSearch,
		items:      []RawConference{futureRaw("FoundConf", "https://found.example.com")},
	}
	p, conferences, _ := newTestPipeline(github, search)

	result, err := p.Run(context.Background(), models.ScrapeTypeSearch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found != 1 || result.Added != 1 {
		t.Errorf("only the search collector should run: %+v", result)
	}
	if conferences.Size() != 1 {
		t.Errorf("expected 1 stored conference, got %d", conferences.Size())
	}
}

func TestPipelineUnknownScrapeType(t *testing.T) {
	p, _, logs := newTestPipeline(&fakeCollector{
		name:       "github",
		source:     models.SourceTypeGitHub,
		scrapeType: models.ScrapeTypeGitHub,
	})

	if _, err := p.Run(context.Background(), models.ScrapeTypeActor); err == nil {
		t.Fatal("expected error for scrape type with no collector")
	}
	if logs.Size() != 0 {
		t.Errorf("no log entry should be written, got %d", logs.Size())
	}
}
