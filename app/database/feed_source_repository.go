package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedSourceRepository = (*FeedSourceRepo)(nil)

// FeedSourceRepo registers configured RSS sources and their fetch health.
type FeedSourceRepo struct {
	db *DB
}

func NewFeedSourceRepository(db *DB) *FeedSourceRepo {
	return &FeedSourceRepo{db: db}
}

func (r *FeedSourceRepo) UpsertSource(name, url string, enabled bool) error {
	_, err := r.db.Exec(`
		INSERT INTO feed_sources (name, url, enabled, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, name, url, enabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert feed source: %w", err)
	}
	return nil
}

func (r *FeedSourceRepo) GetSource(name string) (*FeedSource, error) {
	var src FeedSource
	err := r.db.QueryRow(`
		SELECT name, url, enabled, last_fetched_at, last_error, created_at, updated_at
		FROM feed_sources
		WHERE name = ?
	`, name).Scan(
		&src.Name, &src.URL, &src.Enabled, &src.LastFetchedAt, &src.LastError,
		&src.CreatedAt, &src.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed source: %w", err)
	}

	return &src, nil
}

func (r *FeedSourceRepo) GetSources() ([]FeedSource, error) {
	rows, err := r.db.Query(`
		SELECT name, url, enabled, last_fetched_at, last_error, created_at, updated_at
		FROM feed_sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed sources: %w", err)
	}
	defer rows.Close()

	var sources []FeedSource
	for rows.Next() {
		var src FeedSource
		err := rows.Scan(
			&src.Name, &src.URL, &src.Enabled, &src.LastFetchedAt, &src.LastError,
			&src.CreatedAt, &src.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed source row: %w", err)
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed source rows: %w", err)
	}

	return sources, nil
}

// RecordFetch stores the outcome of one fetch attempt; fetchErr is empty on
// success.
func (r *FeedSourceRepo) RecordFetch(name string, fetchedAt time.Time, fetchErr string) error {
	_, err := r.db.Exec(`
		UPDATE feed_sources
		SET last_fetched_at = ?, last_error = ?, updated_at = ?
		WHERE name = ?
	`, fetchedAt.UTC(), fetchErr, time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("failed to record feed fetch: %w", err)
	}
	return nil
}

func (r *FeedSourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feed_sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed sources: %w", err)
	}
	return count, nil
}
