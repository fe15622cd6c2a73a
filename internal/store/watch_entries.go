package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertWatchEntry stores one viewing-history row. Re-importing the same
// entry is a no-op; the returned bool reports whether a row was inserted.
func (s *Store) InsertWatchEntry(ctx context.Context, entry WatchEntry) (bool, error) {
	if entry.Title == "" {
		return false, errors.New("watch entry title must not be empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO watch_entries (
            imdb_id, title, year, watched_at, user_rating, notes, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.IMDbID,
		entry.Title,
		entry.Year,
		entry.WatchedAt.UTC().Format(time.RFC3339Nano),
		entry.UserRating,
		entry.Notes,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("insert watch entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListWatchEntries returns the backlog ordered by watch date ascending, with
// the row id as a stable tie-break.
func (s *Store) ListWatchEntries(ctx context.Context) ([]WatchEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, imdb_id, title, year, watched_at, user_rating, notes, created_at
         FROM watch_entries ORDER BY watched_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}
	defer rows.Close()

	var entries []WatchEntry
	for rows.Next() {
		entry, err := scanWatchEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountWatchEntries returns the total imported history size.
func (s *Store) CountWatchEntries(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM watch_entries`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count watch entries: %w", err)
	}
	return count, nil
}

func scanWatchEntry(scanner interface{ Scan(dest ...any) error }) (WatchEntry, error) {
	var (
		entry      WatchEntry
		watchedRaw string
		createdRaw string
		imdbID     sql.NullString
		notes      sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&imdbID,
		&entry.Title,
		&entry.Year,
		&watchedRaw,
		&entry.UserRating,
		&notes,
		&createdRaw,
	); err != nil {
		return WatchEntry{}, fmt.Errorf("scan watch entry: %w", err)
	}
	entry.IMDbID = imdbID.String
	entry.Notes = notes.String
	if watched, err := parseTimeString(watchedRaw); err == nil {
		entry.WatchedAt = watched
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}
