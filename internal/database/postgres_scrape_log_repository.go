package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confscout/confscout/internal/models"
)

// PostgresScrapeLogRepository implements ScrapeLogRepository using PostgreSQL.
// Rows are append-only: runs are inserted as pending and completed once.
type PostgresScrapeLogRepository struct {
	db *sql.DB
}

// NewPostgresScrapeLogRepository creates a new PostgreSQL scrape log repository.
func NewPostgresScrapeLogRepository(db *sql.DB) *PostgresScrapeLogRepository {
	return &PostgresScrapeLogRepository{db: db}
}

// LogRun stores a new scrape log entry.
func (r *PostgresScrapeLogRepository) LogRun(ctx context.Context, log models.ScrapeLog) error {
	metadataJSON, err := json.Marshal(log.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal scrape log metadata: %w", err)
	}

	query := `
		INSERT INTO scrape_logs (id, type, status, found, added, updated, error_message, started_at, completed_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		log.ID, string(log.Type), string(log.Status),
		log.Found, log.Added, log.Updated,
		nullIfEmpty(log.ErrorMessage), log.StartedAt, log.CompletedAt, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrape log: %w", err)
	}
	return nil
}

// CompleteRun finalizes a pending run. The status guard keeps completed rows
// immutable even if called twice.
func (r *PostgresScrapeLogRepository) CompleteRun(ctx context.Context, log models.ScrapeLog) error {
	query := `
		UPDATE scrape_logs
		SET status = $2, found = $3, added = $4, updated = $5, error_message = $6, completed_at = $7
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query,
		log.ID, string(log.Status),
		log.Found, log.Added, log.Updated,
		nullIfEmpty(log.ErrorMessage), log.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete scrape log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check scrape log update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scrape log %s is not pending", log.ID)
	}
	return nil
}

// GetByID retrieves a scrape log by its ID.
func (r *PostgresScrapeLogRepository) GetByID(ctx context.Context, id string) (*models.ScrapeLog, error) {
	query := `
		SELECT id, type, status, found, added, updated, error_message, started_at, completed_at, metadata
		FROM scrape_logs
		WHERE id = $1
	`
	log, err := scanScrapeLog(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape log: %w", err)
	}
	return log, nil
}

// ListRecent retrieves the most recent scrape logs, newest first.
func (r *PostgresScrapeLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ScrapeLog, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, type, status, found, added, updated, error_message, started_at, completed_at, metadata
		FROM scrape_logs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ScrapeLog, 0, limit)
	for rows.Next() {
		log, err := scanScrapeLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrape log: %w", err)
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

// LastSuccessfulAt returns the start time of the latest successful run of the
// given type, or nil when none exists.
func (r *PostgresScrapeLogRepository) LastSuccessfulAt(ctx context.Context, scrapeType models.ScrapeType) (*time.Time, error) {
	query := `
		SELECT started_at
		FROM scrape_logs
		WHERE type = $1 AND status = 'success'
		ORDER BY started_at DESC
		LIMIT 1
	`
	var started time.Time
	err := r.db.QueryRowContext(ctx, query, string(scrapeType)).Scan(&started)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last successful run: %w", err)
	}
	return &started, nil
}

func scanScrapeLog(row rowScanner) (*models.ScrapeLog, error) {
	var log models.ScrapeLog
	var errorMessage sql.NullString
	var completedAt sql.NullTime
	var metadataJSON []byte

	err := row.Scan(
		&log.ID,
		&log.Type,
		&log.Status,
		&log.Found,
		&log.Added,
		&log.Updated,
		&errorMessage,
		&log.StartedAt,
		&completedAt,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	log.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &log.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scrape log metadata: %w", err)
		}
	}

	return &log, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
