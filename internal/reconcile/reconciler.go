// Package reconcile merges incoming conference batches into the persistent
// store. It is the only component with write access to stored conferences.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/confscout/confscout/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence surface the reconciler writes through. Lookup is
// by the exact natural key (name, url, start date).
type Store interface {
	FindByKey(ctx context.Context, name, url string, startDate time.Time) (*models.Conference, error)
	Insert(ctx context.Context, conf models.Conference) error
	Update(ctx context.Context, conf models.Conference) error
}

// Result reports the outcome of one reconciliation pass.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Reconciler upserts deduplicated conference batches. Records whose keys are
// absent from a batch are never touched; a failed write on one record is
// logged and skipped without aborting the rest.
type Reconciler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a reconciler over the given store.
func New(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Reconcile merges a batch into the store and reports counts. Running the
// same batch twice yields the same stored state, with every record counted
// as updated rather than added on the second pass.
func (r *Reconciler) Reconcile(ctx context.Context, batch []models.Conference) Result {
	var result Result

	for _, incoming := range batch {
		existing, err := r.store.FindByKey(ctx, incoming.Name, incoming.URL, incoming.StartDate)
		if err != nil {
			r.logger.Error("conference lookup failed",
				"name", incoming.Name,
				"url", incoming.URL,
				"error", err,
			)
			result.Failed++
			continue
		}

		if existing == nil {
			if err := r.insert(ctx, incoming); err != nil {
				r.logger.Error("conference insert failed",
					"name", incoming.Name,
					"error", err,
				)
				result.Failed++
				continue
			}
			result.Added++
			continue
		}

		if err := r.update(ctx, *existing, incoming); err != nil {
			r.logger.Error("conference update failed",
				"name", incoming.Name,
				"error", err,
			)
			result.Failed++
			continue
		}
		result.Updated++
	}

	return result
}

func (r *Reconciler) insert(ctx context.Context, conf models.Conference) error {
	now := r.now()
	conf.ID = uuid.NewString()
	conf.IsNew = true
	conf.CreatedAt = now
	conf.UpdatedAt = now
	return r.store.Insert(ctx, conf)
}

// update overwrites mutable fields while preserving the stored identity and
// creation timestamp. A domain change from reclassification is an ordinary
// update; the row keeps its identity.
func (r *Reconciler) update(ctx context.Context, existing, incoming models.Conference) error {
	merged := existing
	merged.EndDate = incoming.EndDate
	merged.City = incoming.City
	merged.Country = incoming.Country
	merged.Online = incoming.Online
	merged.Hybrid = incoming.Hybrid
	merged.CFP = incoming.CFP
	merged.FinancialAid = incoming.FinancialAid
	merged.Domain = incoming.Domain
	merged.Tags = incoming.Tags
	merged.Description = incoming.Description
	merged.Twitter = incoming.Twitter
	merged.Source = incoming.Source
	merged.ScrapedAt = incoming.ScrapedAt
	merged.IsNew = false
	merged.UpdatedAt = r.now()
	return r.store.Update(ctx, merged)
}
