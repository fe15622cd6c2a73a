package store

import (
	"context"
	"fmt"
	"time"
)

// SaveIdentifier upserts one provider mapping for a movie key.
func (s *Store) SaveIdentifier(ctx context.Context, ident ExternalIdentifier) error {
	if ident.MovieKey == "" || ident.Provider == "" {
		return fmt.Errorf("identifier requires movie key and provider, got %q/%q", ident.MovieKey, ident.Provider)
	}
	resolved := ident.ResolvedAt
	if resolved.IsZero() {
		resolved = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO external_identifiers (movie_key, provider, provider_id, confidence, resolved_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (movie_key, provider) DO UPDATE SET
             provider_id = excluded.provider_id,
             confidence = excluded.confidence,
             resolved_at = excluded.resolved_at`,
		ident.MovieKey,
		ident.Provider,
		ident.ProviderID,
		ident.Confidence,
		resolved.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save identifier: %w", err)
	}
	return nil
}

// IdentifiersForMovie returns the cached provider mappings for a movie key.
func (s *Store) IdentifiersForMovie(ctx context.Context, movieKey string) (map[string]ExternalIdentifier, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT movie_key, provider, provider_id, confidence, resolved_at
         FROM external_identifiers WHERE movie_key = ?`,
		movieKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	idents := make(map[string]ExternalIdentifier)
	for rows.Next() {
		var (
			ident       ExternalIdentifier
			resolvedRaw string
		)
		if err := rows.Scan(&ident.MovieKey, &ident.Provider, &ident.ProviderID, &ident.Confidence, &resolvedRaw); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		if resolved, err := parseTimeString(resolvedRaw); err == nil {
			ident.ResolvedAt = resolved
		}
		idents[ident.Provider] = ident
	}
	return idents, rows.Err()
}

// DeleteIdentifiers invalidates the cached mappings for one movie key.
func (s *Store) DeleteIdentifiers(ctx context.Context, movieKey string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM external_identifiers WHERE movie_key = ?`, movieKey)
	if err != nil {
		return 0, fmt.Errorf("delete identifiers: %w", err)
	}
	return res.RowsAffected()
}

// ClearIdentifiers invalidates every cached mapping, forcing a full rematch.
func (s *Store) ClearIdentifiers(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM external_identifiers`)
	if err != nil {
		return 0, fmt.Errorf("clear identifiers: %w", err)
	}
	return res.RowsAffected()
}
