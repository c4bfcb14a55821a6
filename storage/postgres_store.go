package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"seloger-notifier/models"
	"seloger-notifier/utils"
)

const insertBatchSize = 50

// PostgresStore persists the processed set and the record map to PostgreSQL.
// Each save runs in a single transaction so the stored collection is replaced
// as a whole.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

var _ RecordStore = (*PostgresStore)(nil)

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		logger.Warn("[postgres] Ping failed (attempt %d/10): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_listings (
			id           TEXT        PRIMARY KEY,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS listing_records (
			id              TEXT        PRIMARY KEY,
			url             TEXT        NOT NULL,
			location        TEXT        NOT NULL DEFAULT '',
			description     TEXT        NOT NULL DEFAULT '',
			additional_info TEXT        NOT NULL DEFAULT '',
			image           TEXT        NOT NULL DEFAULT '',
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (ps *PostgresStore) LoadProcessedSet(ctx context.Context) models.ProcessedSet {
	set := models.NewProcessedSet()

	rows, err := ps.db.QueryContext(ctx, `SELECT id FROM processed_listings`)
	if err != nil {
		ps.logger.Warn("[postgres] Load processed ids failed, starting empty: %v", err)
		return set
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			ps.logger.Warn("[postgres] Scan processed id failed, starting empty: %v", err)
			return models.NewProcessedSet()
		}
		set.Add(id)
	}
	if err := rows.Err(); err != nil {
		ps.logger.Warn("[postgres] Load processed ids failed, starting empty: %v", err)
		return models.NewProcessedSet()
	}
	return set
}

func (ps *PostgresStore) SaveProcessedSet(ctx context.Context, set models.ProcessedSet) error {
	ids := set.Sorted()
	rows := make([][]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []any{id})
	}
	return ps.replace(ctx, "processed_listings", []string{"id"}, rows)
}

func (ps *PostgresStore) LoadRecords(ctx context.Context) models.RecordMap {
	records := models.RecordMap{}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, url, location, description, additional_info, image
		FROM listing_records
	`)
	if err != nil {
		ps.logger.Warn("[postgres] Load records failed, starting empty: %v", err)
		return records
	}
	defer rows.Close()

	for rows.Next() {
		r := &models.ListingRecord{}
		if err := rows.Scan(&r.ID, &r.URL, &r.LocationText, &r.DescriptionText, &r.AdditionalInfo, &r.ImagePath); err != nil {
			ps.logger.Warn("[postgres] Scan record failed, starting empty: %v", err)
			return models.RecordMap{}
		}
		records[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		ps.logger.Warn("[postgres] Load records failed, starting empty: %v", err)
		return models.RecordMap{}
	}
	return records
}

func (ps *PostgresStore) SaveRecords(ctx context.Context, records models.RecordMap) error {
	rows := make([][]any, 0, len(records))
	for _, id := range records.IDs() {
		r := records[id]
		if r == nil {
			continue
		}
		rows = append(rows, []any{id, r.URL, r.LocationText, r.DescriptionText, r.AdditionalInfo, r.ImagePath})
	}
	return ps.replace(ctx, "listing_records",
		[]string{"id", "url", "location", "description", "additional_info", "image"}, rows)
}

// replace clears table and batch-inserts rows inside one transaction.
func (ps *PostgresStore) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", table, err)
	}

	for i := 0; i < len(rows); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsert(table, columns, rows[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", table, err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT with numbered placeholders.
func buildInsert(table string, columns []string, batch [][]any) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(columns))

	n := 1
	for _, row := range batch {
		placeholders := make([]string, len(columns))
		for c := range columns {
			placeholders[c] = fmt.Sprintf("$%d", n)
			n++
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (id) DO NOTHING",
		table, strings.Join(columns, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
