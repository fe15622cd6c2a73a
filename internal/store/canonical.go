package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const canonicalColumns = "movie_key, title, original_title, genres, plot, tagline, release_date, content_rating, poster_path, awards, year, runtime_minutes, imdb_rating, tmdb_rating, tmdb_votes, metascore, rotten_tomatoes, provenance_json, provider_status_json, created_at, updated_at"

// UpsertCanonical writes the merged record and its list tables in one
// transaction, so a crash mid-write leaves the previously committed row
// intact. Callers are expected to have merged into the prior persisted state
// already; this method replaces, it does not reconcile.
func (s *Store) UpsertCanonical(ctx context.Context, rec *CanonicalMovie) error {
	if rec == nil {
		return errors.New("canonical record is nil")
	}
	if strings.TrimSpace(rec.MovieKey) == "" {
		return errors.New("canonical record requires a movie key")
	}

	provenanceJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return fmt.Errorf("marshal provenance: %w", err)
	}
	statusJSON, err := json.Marshal(rec.ProviderStatus)
	if err != nil {
		return fmt.Errorf("marshal provider status: %w", err)
	}

	now := time.Now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	num := func(field string) any {
		v, ok := rec.Number[field]
		return nullableFloat(v, ok)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO canonical_movies (`+canonicalColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (movie_key) DO UPDATE SET
             title = excluded.title,
             original_title = excluded.original_title,
             genres = excluded.genres,
             plot = excluded.plot,
             tagline = excluded.tagline,
             release_date = excluded.release_date,
             content_rating = excluded.content_rating,
             poster_path = excluded.poster_path,
             awards = excluded.awards,
             year = excluded.year,
             runtime_minutes = excluded.runtime_minutes,
             imdb_rating = excluded.imdb_rating,
             tmdb_rating = excluded.tmdb_rating,
             tmdb_votes = excluded.tmdb_votes,
             metascore = excluded.metascore,
             rotten_tomatoes = excluded.rotten_tomatoes,
             provenance_json = excluded.provenance_json,
             provider_status_json = excluded.provider_status_json,
             updated_at = excluded.updated_at`,
		rec.MovieKey,
		nullableString(rec.Text[FieldTitle]),
		nullableString(rec.Text[FieldOriginalTitle]),
		nullableString(rec.Text[FieldGenres]),
		nullableString(rec.Text[FieldPlot]),
		nullableString(rec.Text[FieldTagline]),
		nullableString(rec.Text[FieldReleaseDate]),
		nullableString(rec.Text[FieldContentRating]),
		nullableString(rec.Text[FieldPosterPath]),
		nullableString(rec.Text[FieldAwards]),
		num(FieldYear),
		num(FieldRuntimeMinutes),
		num(FieldIMDBRating),
		num(FieldTMDBRating),
		num(FieldTMDBVotes),
		num(FieldMetascore),
		num(FieldRottenTomatoes),
		string(provenanceJSON),
		string(statusJSON),
		created.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert canonical row: %w", err)
	}

	for _, table := range []string{"movie_cast", "movie_keywords", "movie_content_flags"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE movie_key = ?`, rec.MovieKey); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, member := range rec.Cast {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO movie_cast (movie_key, person, normalized, provider, ord) VALUES (?, ?, ?, ?, ?)`,
			rec.MovieKey, member.Name, member.Normalized, member.Provider, member.Ord,
		); err != nil {
			return fmt.Errorf("insert cast member: %w", err)
		}
	}
	for _, keyword := range rec.Keywords {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO movie_keywords (movie_key, keyword, normalized, provider) VALUES (?, ?, ?, ?)`,
			rec.MovieKey, keyword.Keyword, keyword.Normalized, keyword.Provider,
		); err != nil {
			return fmt.Errorf("insert keyword: %w", err)
		}
	}
	for _, flag := range rec.ContentFlags {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO movie_content_flags (movie_key, topic, normalized, yes_votes, no_votes, provider) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.MovieKey, flag.Topic, flag.Normalized, flag.YesVotes, flag.NoVotes, flag.Provider,
		); err != nil {
			return fmt.Errorf("insert content flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// GetCanonical fetches the canonical record for a movie key, or nil when the
// movie has not been enriched yet.
func (s *Store) GetCanonical(ctx context.Context, movieKey string) (*CanonicalMovie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+canonicalColumns+` FROM canonical_movies WHERE movie_key = ?`, movieKey)
	rec, err := scanCanonical(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get canonical: %w", err)
	}
	if err := s.loadCanonicalLists(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FindCanonical locates a canonical record by movie key, IMDb id, or title.
func (s *Store) FindCanonical(ctx context.Context, query string) (*CanonicalMovie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if rec, err := s.GetCanonical(ctx, query); err != nil || rec != nil {
		return rec, err
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+canonicalColumns+` FROM canonical_movies WHERE LOWER(title) = LOWER(?) ORDER BY movie_key LIMIT 1`,
		query,
	)
	rec, err := scanCanonical(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find canonical: %w", err)
	}
	if err := s.loadCanonicalLists(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CanonicalCount returns the number of merged records in the store.
func (s *Store) CanonicalCount(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM canonical_movies`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count canonical movies: %w", err)
	}
	return count, nil
}

// ProviderStatusCounts aggregates per-provider enrichment outcomes across all
// canonical records.
func (s *Store) ProviderStatusCounts(ctx context.Context) (map[string]map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT provider_status_json FROM canonical_movies`)
	if err != nil {
		return nil, fmt.Errorf("query provider statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan provider status: %w", err)
		}
		statuses := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &statuses); err != nil {
			continue
		}
		for provider, status := range statuses {
			if counts[provider] == nil {
				counts[provider] = make(map[string]int)
			}
			counts[provider][status]++
		}
	}
	return counts, rows.Err()
}

func (s *Store) loadCanonicalLists(ctx context.Context, rec *CanonicalMovie) error {
	castRows, err := s.db.QueryContext(
		ctx,
		`SELECT person, normalized, provider, ord FROM movie_cast WHERE movie_key = ? ORDER BY normalized`,
		rec.MovieKey,
	)
	if err != nil {
		return fmt.Errorf("query cast: %w", err)
	}
	defer castRows.Close()
	for castRows.Next() {
		var member CastMember
		if err := castRows.Scan(&member.Name, &member.Normalized, &member.Provider, &member.Ord); err != nil {
			return fmt.Errorf("scan cast member: %w", err)
		}
		rec.Cast = append(rec.Cast, member)
	}
	if err := castRows.Err(); err != nil {
		return err
	}

	keywordRows, err := s.db.QueryContext(
		ctx,
		`SELECT keyword, normalized, provider FROM movie_keywords WHERE movie_key = ? ORDER BY normalized`,
		rec.MovieKey,
	)
	if err != nil {
		return fmt.Errorf("query keywords: %w", err)
	}
	defer keywordRows.Close()
	for keywordRows.Next() {
		var keyword Keyword
		if err := keywordRows.Scan(&keyword.Keyword, &keyword.Normalized, &keyword.Provider); err != nil {
			return fmt.Errorf("scan keyword: %w", err)
		}
		rec.Keywords = append(rec.Keywords, keyword)
	}
	if err := keywordRows.Err(); err != nil {
		return err
	}

	flagRows, err := s.db.QueryContext(
		ctx,
		`SELECT topic, normalized, yes_votes, no_votes, provider FROM movie_content_flags WHERE movie_key = ? ORDER BY normalized`,
		rec.MovieKey,
	)
	if err != nil {
		return fmt.Errorf("query content flags: %w", err)
	}
	defer flagRows.Close()
	for flagRows.Next() {
		var flag ContentFlag
		if err := flagRows.Scan(&flag.Topic, &flag.Normalized, &flag.YesVotes, &flag.NoVotes, &flag.Provider); err != nil {
			return fmt.Errorf("scan content flag: %w", err)
		}
		rec.ContentFlags = append(rec.ContentFlags, flag)
	}
	return flagRows.Err()
}

func scanCanonical(scanner interface{ Scan(dest ...any) error }) (*CanonicalMovie, error) {
	var (
		movieKey       string
		title          sql.NullString
		originalTitle  sql.NullString
		genres         sql.NullString
		plot           sql.NullString
		tagline        sql.NullString
		releaseDate    sql.NullString
		contentRating  sql.NullString
		posterPath     sql.NullString
		awards         sql.NullString
		year           sql.NullFloat64
		runtime        sql.NullFloat64
		imdbRating     sql.NullFloat64
		tmdbRating     sql.NullFloat64
		tmdbVotes      sql.NullFloat64
		metascore      sql.NullFloat64
		rottenTomatoes sql.NullFloat64
		provenanceRaw  string
		statusRaw      string
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&movieKey,
		&title,
		&originalTitle,
		&genres,
		&plot,
		&tagline,
		&releaseDate,
		&contentRating,
		&posterPath,
		&awards,
		&year,
		&runtime,
		&imdbRating,
		&tmdbRating,
		&tmdbVotes,
		&metascore,
		&rottenTomatoes,
		&provenanceRaw,
		&statusRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := NewCanonicalMovie(movieKey)
	setText := func(field string, value sql.NullString) {
		if value.Valid && value.String != "" {
			rec.Text[field] = value.String
		}
	}
	setText(FieldTitle, title)
	setText(FieldOriginalTitle, originalTitle)
	setText(FieldGenres, genres)
	setText(FieldPlot, plot)
	setText(FieldTagline, tagline)
	setText(FieldReleaseDate, releaseDate)
	setText(FieldContentRating, contentRating)
	setText(FieldPosterPath, posterPath)
	setText(FieldAwards, awards)

	setNumber := func(field string, value sql.NullFloat64) {
		if value.Valid {
			rec.Number[field] = value.Float64
		}
	}
	setNumber(FieldYear, year)
	setNumber(FieldRuntimeMinutes, runtime)
	setNumber(FieldIMDBRating, imdbRating)
	setNumber(FieldTMDBRating, tmdbRating)
	setNumber(FieldTMDBVotes, tmdbVotes)
	setNumber(FieldMetascore, metascore)
	setNumber(FieldRottenTomatoes, rottenTomatoes)

	if err := json.Unmarshal([]byte(provenanceRaw), &rec.Provenance); err != nil {
		return nil, fmt.Errorf("unmarshal provenance: %w", err)
	}
	if err := json.Unmarshal([]byte(statusRaw), &rec.ProviderStatus); err != nil {
		return nil, fmt.Errorf("unmarshal provider status: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}
