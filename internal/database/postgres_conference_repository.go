package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/models"
	"github.com/lib/pq"
)

// PostgresConferenceRepository implements ConferenceRepository using PostgreSQL.
type PostgresConferenceRepository struct {
	db *sql.DB
}

// NewPostgresConferenceRepository creates a new PostgreSQL conference repository.
func NewPostgresConferenceRepository(db *sql.DB) *PostgresConferenceRepository {
	return &PostgresConferenceRepository{db: db}
}

const conferenceColumns = `
	id, name, url, start_date, end_date, city, country, online, hybrid,
	cfp_end_date, cfp_url, aid_available, aid_types, aid_url, aid_notes,
	domain, tags, description, twitter, source, scraped_at, is_new,
	created_at, updated_at
`

// FindByKey retrieves a conference by its natural key. The name and URL
// comparison is case-insensitive.
func (r *PostgresConferenceRepository) FindByKey(ctx context.Context, name, url string, startDate time.Time) (*models.Conference, error) {
	query := `
		SELECT ` + conferenceColumns + `
		FROM conferences
		WHERE LOWER(name) = LOWER($1) AND LOWER(url) = LOWER($2) AND start_date = $3
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, name, url, models.Midnight(startDate))
	conf, err := scanConference(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conference by key: %w", err)
	}
	return conf, nil
}

// Insert stores a new conference.
func (r *PostgresConferenceRepository) Insert(ctx context.Context, conf models.Conference) error {
	query := `
		INSERT INTO conferences (` + conferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	args := conferenceArgs(conf)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert conference: %w", err)
	}
	return nil
}

// Update overwrites an existing conference row by ID.
func (r *PostgresConferenceRepository) Update(ctx context.Context, conf models.Conference) error {
	query := `
		UPDATE conferences SET
			name = $2, url = $3, start_date = $4, end_date = $5, city = $6,
			country = $7, online = $8, hybrid = $9, cfp_end_date = $10,
			cfp_url = $11, aid_available = $12, aid_types = $13, aid_url = $14,
			aid_notes = $15, domain = $16, tags = $17, description = $18,
			twitter = $19, source = $20, scraped_at = $21, is_new = $22,
			created_at = $23, updated_at = $24
		WHERE id = $1
	`
	args := conferenceArgs(conf)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update conference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conference %s not found", conf.ID)
	}
	return nil
}

// GetByID retrieves a conference by its ID.
func (r *PostgresConferenceRepository) GetByID(ctx context.Context, id string) (*models.Conference, error) {
	query := `SELECT ` + conferenceColumns + ` FROM conferences WHERE id = $1`
	conf, err := scanConference(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conference by ID: %w", err)
	}
	return conf, nil
}

// Query retrieves conferences matching the given filters, paginated.
// The CFP-open filter compares the stored deadline against the current date
// at query time.
func (r *PostgresConferenceRepository) Query(ctx context.Context, query models.ConferenceQuery) (*models.ConferenceResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	where, args := buildConferenceWhere(query)

	countQuery := "SELECT COUNT(*) FROM conferences" + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count conferences: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM conferences%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d",
		conferenceColumns, where,
		sortColumn(query.SortBy), sortDirection(query.SortOrder),
		len(args)+1, len(args)+2,
	)
	args = append(args, query.Limit, query.GetOffset())

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conferences: %w", err)
	}
	defer rows.Close()

	conferences := make([]models.Conference, 0, query.Limit)
	for rows.Next() {
		conf, err := scanConference(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conference: %w", err)
		}
		conferences = append(conferences, *conf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conferences: %w", err)
	}

	return &models.ConferenceResponse{
		Conferences: conferences,
		Page:        query.Page,
		Limit:       query.Limit,
		Total:       total,
		HasMore:     query.GetOffset()+len(conferences) < total,
	}, nil
}

// ListAll retrieves every stored conference ordered by start date.
func (r *PostgresConferenceRepository) ListAll(ctx context.Context) ([]models.Conference, error) {
	query := `SELECT ` + conferenceColumns + ` FROM conferences ORDER BY start_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	defer rows.Close()

	var conferences []models.Conference
	for rows.Next() {
		conf, err := scanConference(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conference: %w", err)
		}
		conferences = append(conferences, *conf)
	}
	return conferences, rows.Err()
}

// CountByDomain returns the number of conferences per domain slug.
func (r *PostgresConferenceRepository) CountByDomain(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM conferences GROUP BY domain")
	if err != nil {
		return nil, fmt.Errorf("failed to count by domain: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var domain string
		var count int
		if err := rows.Scan(&domain, &count); err != nil {
			return nil, fmt.Errorf("failed to scan domain count: %w", err)
		}
		counts[domain] = count
	}
	return counts, rows.Err()
}

// Delete removes a conference by its ID.
func (r *PostgresConferenceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM conferences WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete conference: %w", err)
	}
	return nil
}

// Count returns the total number of conferences.
func (r *PostgresConferenceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conferences").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conferences: %w", err)
	}
	return count, nil
}

// buildConferenceWhere assembles the WHERE clause for a query's filters.
func buildConferenceWhere(query models.ConferenceQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Domain != "" && query.Domain != "all" {
		clauses = append(clauses, "domain = "+arg(query.Domain))
	}
	if query.Search != "" {
		p := arg("%" + query.Search + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE %s OR city ILIKE %s OR country ILIKE %s OR description ILIKE %s)", p, p, p, p))
	}
	if query.CFPOpen != nil {
		if *query.CFPOpen {
			clauses = append(clauses, "cfp_end_date IS NOT NULL AND cfp_end_date >= "+arg(models.Midnight(time.Now())))
		} else {
			clauses = append(clauses, "(cfp_end_date IS NULL OR cfp_end_date < "+arg(models.Midnight(time.Now()))+")")
		}
	}
	if query.FinancialAid != nil {
		clauses = append(clauses, "aid_available = "+arg(*query.FinancialAid))
	}
	if query.Online != nil {
		clauses = append(clauses, "online = "+arg(*query.Online))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func sortColumn(field models.ConferenceSortField) string {
	switch field {
	case models.SortByName:
		return "name"
	case models.SortByCFPDeadline:
		// NULL deadlines sort last either way.
		return "cfp_end_date NULLS LAST, start_date"
	default:
		return "start_date"
	}
}

func sortDirection(order models.SortOrder) string {
	if order == models.SortOrderDesc {
		return "DESC"
	}
	return "ASC"
}

// conferenceArgs flattens a conference into the column order used by insert
// and update.
func conferenceArgs(conf models.Conference) []interface{} {
	var cfpEnd *time.Time
	var cfpURL string
	if conf.CFP != nil {
		end := models.Midnight(conf.CFP.EndDate)
		cfpEnd = &end
		cfpURL = conf.CFP.URL
	}

	var aidAvailable bool
	var aidTypes []string
	var aidURL, aidNotes string
	if conf.FinancialAid != nil {
		aidAvailable = conf.FinancialAid.Available
		aidTypes = conf.FinancialAid.Types
		aidURL = conf.FinancialAid.URL
		aidNotes = conf.FinancialAid.Notes
	}

	return []interface{}{
		conf.ID,
		conf.Name,
		conf.URL,
		models.Midnight(conf.StartDate),
		models.Midnight(conf.EndDate),
		conf.City,
		conf.Country,
		conf.Online,
		conf.Hybrid,
		cfpEnd,
		cfpURL,
		aidAvailable,
		pq.Array(aidTypes),
		aidURL,
		aidNotes,
		conf.Domain,
		pq.Array(conf.Tags),
		conf.Description,
		conf.Twitter,
		string(conf.Source),
		conf.ScrapedAt,
		conf.IsNew,
		conf.CreatedAt,
		conf.UpdatedAt,
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConference(row rowScanner) (*models.Conference, error) {
	var conf models.Conference
	var cfpEnd sql.NullTime
	var cfpURL sql.NullString
	var aidAvailable bool
	var aidTypes pq.StringArray
	var aidURL, aidNotes sql.NullString
	var tags pq.StringArray
	var scrapedAt sql.NullTime

	err := row.Scan(
		&conf.ID,
		&conf.Name,
		&conf.URL,
		&conf.StartDate,
		&conf.EndDate,
		&conf.City,
		&conf.Country,
		&conf.Online,
		&conf.Hybrid,
		&cfpEnd,
		&cfpURL,
		&aidAvailable,
		&aidTypes,
		&aidURL,
		&aidNotes,
		&conf.Domain,
		&tags,
		&conf.Description,
		&conf.Twitter,
		&conf.Source,
		&scrapedAt,
		&conf.IsNew,
		&conf.CreatedAt,
		&conf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conf.StartDate = models.Midnight(conf.StartDate)
	conf.EndDate = models.Midnight(conf.EndDate)
	conf.Tags = []string(tags)

	if cfpEnd.Valid {
		conf.CFP = &models.CFP{EndDate: models.Midnight(cfpEnd.Time), URL: cfpURL.String}
	}
	if aidAvailable || len(aidTypes) > 0 {
		conf.FinancialAid = &models.FinancialAid{
			Available: aidAvailable,
			Types:     []string(aidTypes),
			URL:       aidURL.String,
			Notes:     aidNotes.String,
		}
	}
	if scrapedAt.Valid {
		t := scrapedAt.Time
		conf.ScrapedAt = &t
	}

	return &conf, nil
}
