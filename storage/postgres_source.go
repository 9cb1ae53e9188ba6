package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// PostgresStore reads raw listings from, and imports raw listings into, a
// PostgreSQL table holding the four dataset columns as text.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore opens a connection, waits for the server with back-off,
// and ensures the listings table exists. table must be a plain identifier;
// config.Validate enforces that.
func NewPostgresStore(ctx context.Context, dsn, table string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db, table: table}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) Name() string { return "postgres:" + ps.table }

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id                     SERIAL PRIMARY KEY,
			price                  TEXT NOT NULL DEFAULT '',
			review_scores_rating   TEXT NOT NULL DEFAULT '',
			beds                   TEXT NOT NULL DEFAULT '',
			neighbourhood_cleansed TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_neighbourhood ON %[1]s(neighbourhood_cleansed);
	`, ps.table))
	return err
}

// checkColumns fails with ErrMissingColumn when the table was created by
// something else and lacks a dataset column.
func (ps *PostgresStore) checkColumns(ctx context.Context) error {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
	`, ps.table)
	if err != nil {
		return fmt.Errorf("postgres: list columns: %w", err)
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("postgres: scan column: %w", err)
		}
		header = append(header, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = columnIndex(header)
	return err
}

// Load retrieves every stored row in insertion order. NULLs come back as
// empty strings and are dropped by the cleaner like any other missing value.
func (ps *PostgresStore) Load(ctx context.Context) ([]*models.RawListing, error) {
	if err := ps.checkColumns(ctx); err != nil {
		return nil, err
	}

	rows, err := ps.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT COALESCE(price::text, ''),
		       COALESCE(review_scores_rating::text, ''),
		       COALESCE(beds::text, ''),
		       COALESCE(neighbourhood_cleansed::text, '')
		FROM %s
		ORDER BY id
	`, ps.table))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.RawListing
	for rows.Next() {
		l := &models.RawListing{}
		if err := rows.Scan(&l.Price, &l.Rating, &l.Beds, &l.Neighbourhood); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Clear deletes all existing rows from the table.
func (ps *PostgresStore) Clear(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, "DELETE FROM "+ps.table); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteRaw replaces the table contents with listings inside one transaction.
func (ps *PostgresStore) WriteRaw(ctx context.Context, listings []*models.RawListing) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+ps.table); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 200
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := ps.insertBatch(listings[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch []*models.RawListing) (string, []interface{}) {
	const cols = 4
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs, l.Price, l.Rating, l.Beds, l.Neighbourhood)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (price, review_scores_rating, beds, neighbourhood_cleansed) VALUES %s",
		ps.table, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
