package store

import (
	"context"
	"fmt"
	"time"
)

// InsertProviderRecord appends one normalized provider payload to the audit
// log. Rows are append-only; a movie fetched twice keeps both snapshots.
func (s *Store) InsertProviderRecord(ctx context.Context, row ProviderRecordRow) error {
	if row.MovieKey == "" || row.Provider == "" {
		return fmt.Errorf("provider record requires movie key and provider, got %q/%q", row.MovieKey, row.Provider)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO provider_records (movie_key, provider, schema_version, fetched_at, payload_json)
         VALUES (?, ?, ?, ?, ?)`,
		row.MovieKey,
		row.Provider,
		row.SchemaVersion,
		row.FetchedAt.UTC().Format(time.RFC3339Nano),
		row.PayloadJSON,
	)
	if err != nil {
		return fmt.Errorf("insert provider record: %w", err)
	}
	return nil
}

// ProviderRecordsForMovie returns the audit trail for one movie ordered
// oldest first.
func (s *Store) ProviderRecordsForMovie(ctx context.Context, movieKey string) ([]ProviderRecordRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, movie_key, provider, schema_version, fetched_at, payload_json
         FROM provider_records WHERE movie_key = ? ORDER BY fetched_at, id`,
		movieKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query provider records: %w", err)
	}
	defer rows.Close()

	var records []ProviderRecordRow
	for rows.Next() {
		var (
			row        ProviderRecordRow
			fetchedRaw string
		)
		if err := rows.Scan(&row.ID, &row.MovieKey, &row.Provider, &row.SchemaVersion, &fetchedRaw, &row.PayloadJSON); err != nil {
			return nil, fmt.Errorf("scan provider record: %w", err)
		}
		if fetched, err := parseTimeString(fetchedRaw); err == nil {
			row.FetchedAt = fetched
		}
		records = append(records, row)
	}
	return records, rows.Err()
}
