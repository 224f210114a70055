package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/confscout/confscout/internal/models"
)

// Per-record errors. Records hitting any of these are dropped with a logged
// diagnostic; none of them is fatal to a run.
var (
	ErrMissingField = errors.New("record missing name or url")
	ErrPastEvent    = errors.New("event start date is in the past")
)

// ErrUpstreamUnavailable marks a collector whose API stayed unreachable after
// the retry budget was exhausted. The stage is marked failed; other stages
// still run.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Collector is a single data-acquisition stage. All collectors produce raw
// items; normalization, classification and deduplication happen downstream
// in the pipeline.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Source returns the provenance tag stamped on produced records.
	Source() models.SourceType

	// ScrapeType returns the audit-log run type for this collector.
	ScrapeType() models.ScrapeType

	// Fetch retrieves raw conference items from the upstream source.
	Fetch(ctx context.Context) ([]RawConference, error)

	// HealthCheck verifies the collector can reach its data source.
	HealthCheck(ctx context.Context) error
}

// RawConference is a collector's untyped view of one listing before
// normalization. Dates are still strings; domain and tags are unset unless
// the upstream source provides them.
type RawConference struct {
	Name         string
	URL          string
	StartDate    string
	EndDate      string
	City         string
	Country      string
	Online       bool
	Hybrid       bool
	CFPEndDate   string
	CFPURL       string
	AidAvailable bool
	AidTypes     []string
	AidURL       string
	AidNotes     string
	Twitter      string
	Description  string
	Domain       string // pre-assigned by the source, empty to classify
}

// CollectorConfig holds common knobs shared by all collectors.
type CollectorConfig struct {
	Name        string
	Enabled     bool
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

// DefaultCollectorConfig returns the shared defaults.
func DefaultCollectorConfig(name string) CollectorConfig {
	return CollectorConfig{
		Name:        name,
		Enabled:     true,
		Timeout:     30 * time.Second,
		RetryPolicy: DefaultRetryPolicy(),
	}
}
