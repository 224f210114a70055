package ingestion

import (
	"github.com/confscout/confscout/internal/models"
)

// Dedupe collapses a batch to one entry per case-insensitive (name, url)
// pair. The first occurrence wins and input order is preserved; merging on
// conflict only happens across batches, in the reconciler.
func Dedupe(batch []models.Conference) []models.Conference {
	seen := make(map[string]struct{}, len(batch))
	unique := make([]models.Conference, 0, len(batch))

	for _, conf := range batch {
		key := conf.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, conf)
	}

	return unique
}
