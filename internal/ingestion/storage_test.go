package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/confscout/confscout/internal/models"
)

func seedConferences(t *testing.T, repo *MemoryConferenceRepository) {
	t.Helper()
	ctx := context.Background()
	future := time.Now().UTC().AddDate(0, 2, 0)

	confs := []models.Conference{
		{
			ID: "1", Name: "KubeCon", URL: "https://kubecon.io", Domain: "devops",
			StartDate: models.Midnight(future), City: "Amsterdam",
			CFP: &models.CFP{EndDate: models.Midnight(future.AddDate(0, -1, 0))},
		},
		{
			ID: "2", Name: "BSides Berlin", URL: "https://bsides.example.com", Domain: "security",
			StartDate: models.Midnight(future.AddDate(0, 0, 10)), Online: true,
		},
		{
			ID: "3", Name: "DataConf", URL: "https://dataconf.example.com", Domain: "data",
			StartDate: models.Midnight(future.AddDate(0, 1, 0)),
			FinancialAid: &models.FinancialAid{Available: true},
		},
	}
	for _, c := range confs {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
}

func TestMemoryRepositoryFindByKey(t *testing.T) {
	repo := NewMemoryConferenceRepository()
	seedConferences(t, repo)
	ctx := context.Background()

	stored, _ := repo.GetByID(ctx, "1")
	found, err := repo.FindByKey(ctx, "kubecon", "HTTPS://KUBECON.IO", stored.StartDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != "1" {
		t.Errorf("case-insensitive key lookup failed: %+v", found)
	}

	missing, err := repo.FindByKey(ctx, "kubecon", "https://kubecon.io", stored.StartDate.AddDate(0, 0, 1))
	if err != nil || missing != nil {
		t.Errorf("different start date is a different key: %+v, %v", missing, err)
	}
}

func TestMemoryRepositoryQueryFilters(t *testing.T) {
	repo := NewMemoryConferenceRepository()
	seedConferences(t, repo)
	ctx := context.Background()

	resp, err := repo.Query(ctx, models.ConferenceQuery{Domain: "security"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || resp.Conferences[0].Name != "BSides Berlin" {
		t.Errorf("domain filter wrong: %+v", resp)
	}

	online := true
	resp, _ = repo.Query(ctx, models.ConferenceQuery{Online: &online})
	if resp.Total != 1 || resp.Conferences[0].ID != "2" {
		t.Errorf("online filter wrong: %+v", resp)
	}

	aid := true
	resp, _ = repo.Query(ctx, models.ConferenceQuery{FinancialAid: &aid})
	if resp.Total != 1 || resp.Conferences[0].ID != "3" {
		t.Errorf("aid filter wrong: %+v", resp)
	}

	open := true
	resp, _ = repo.Query(ctx, models.ConferenceQuery{CFPOpen: &open})
	if resp.Total != 1 || resp.Conferences[0].ID != "1" {
		t.Errorf("cfp filter wrong: %+v", resp)
	}

	resp, _ = repo.Query(ctx, models.ConferenceQuery{Search: "berlin"})
	if resp.Total != 1 || resp.Conferences[0].ID != "2" {
		t.Errorf("search filter wrong: %+v", resp)
	}

	resp, _ = repo.Query(ctx, models.ConferenceQuery{Domain: "all"})
	if resp.Total != 3 {
		t.Errorf("domain 'all' should match everything, got %d", resp.Total)
	}
}

func TestMemoryRepositoryQuerySortAndPaginate(t *testing.T) {
	repo := NewMemoryConferenceRepository()
	seedConferences(t, repo)
	ctx := context.Background()

	resp, err := repo.Query(ctx, models.ConferenceQuery{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Conferences) != 2 || !resp.HasMore {
		t.Fatalf("pagination wrong: %+v", resp)
	}
	if resp.Conferences[0].ID != "1" || resp.Conferences[1].ID != "2" {
		t.Errorf("default sort should be start date ascending: %+v", resp.Conferences)
	}

	resp, _ = repo.Query(ctx, models.ConferenceQuery{Page: 2, Limit: 2})
	if len(resp.Conferences) != 1 || resp.HasMore {
		t.Errorf("last page wrong: %+v", resp)
	}

	resp, _ = repo.Query(ctx, models.ConferenceQuery{SortBy: models.SortByName, SortOrder: models.SortOrderDesc})
	if resp.Conferences[0].Name != "KubeCon" {
		t.Errorf("name descending should lead with KubeCon: %+v", resp.Conferences[0])
	}

	// Conferences without a CFP sort after those with one.
	resp, _ = repo.Query(ctx, models.ConferenceQuery{SortBy: models.SortByCFPDeadline})
	if resp.Conferences[0].ID != "1" {
		t.Errorf("cfp deadline sort wrong: %+v", resp.Conferences[0])
	}
}

func TestMemoryScrapeLogRepository(t *testing.T) {
	repo := NewMemoryScrapeLogRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	logs := []models.ScrapeLog{
		{ID: "a", Type: models.ScrapeTypeGitHub, Status: models.ScrapeStatusSuccess, StartedAt: base},
		{ID: "b", Type: models.ScrapeTypeGitHub, Status: models.ScrapeStatusError, StartedAt: base.Add(time.Hour)},
		{ID: "c", Type: models.ScrapeTypeSearch, Status: models.ScrapeStatusSuccess, StartedAt: base.Add(2 * time.Hour)},
	}
	for _, l := range logs {
		if err := repo.LogRun(ctx, l); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("expected newest first, got %+v", recent)
	}

	last, err := repo.LastSuccessfulAt(ctx, models.ScrapeTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "b" is newer but failed; the last github success is "a".
	if last == nil || !last.Equal(base) {
		t.Errorf("expected %v, got %v", base, last)
	}

	none, _ := repo.LastSuccessfulAt(ctx, models.ScrapeTypeActor)
	if none != nil {
		t.Errorf("expected nil for type with no successes, got %v", none)
	}
}
