package watchlist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/logging"
	"cinescope/internal/store"
)

// Summary reports the outcome of one import.
type Summary struct {
	Rows       int
	Imported   int
	Duplicates int
	Skipped    int
}

// Importer reads IMDb CSV exports into the watch history. Both watchlist
// and ratings exports are accepted; columns are located by header name so
// the two layouts and their revisions all work.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewImporter builds an importer writing to the given store.
func NewImporter(st *store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{
		store:  st,
		logger: logger.With(logging.String(logging.FieldComponent, "watchlist")),
	}
}

// ImportFile reads one CSV export from disk.
func (i *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

// Import reads CSV rows and inserts each entry, skipping rows that lack a
// title and counting rows the store already holds. Non-movie rows in a
// mixed export are skipped.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, errors.New("watchlist is empty")
		}
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	columns := indexColumns(header)
	if _, ok := columns["title"]; !ok {
		return Summary{}, errors.New("watchlist has no title column")
	}

	var summary Summary
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read row %d: %w", summary.Rows+1, err)
		}
		summary.Rows++

		entry, ok := parseRow(columns, row)
		if !ok {
			summary.Skipped++
			continue
		}
		inserted, err := i.store.InsertWatchEntry(ctx, entry)
		if err != nil {
			return summary, fmt.Errorf("insert %q: %w", entry.Title, err)
		}
		if inserted {
			summary.Imported++
		} else {
			summary.Duplicates++
		}
	}

	i.logger.Info("watchlist imported",
		logging.Int("rows", summary.Rows),
		logging.Int("imported", summary.Imported),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		columns[name] = idx
	}
	return columns
}

func parseRow(columns map[string]int, row []string) (store.WatchEntry, bool) {
	get := func(names ...string) string {
		for _, name := range names {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				continue
			}
			if value := strings.TrimSpace(row[idx]); value != "" {
				return value
			}
		}
		return ""
	}

	title := get("title")
	if title == "" {
		return store.WatchEntry{}, false
	}
	if titleType := get("title_type"); titleType != "" && !strings.EqualFold(titleType, "movie") {
		return store.WatchEntry{}, false
	}

	entry := store.WatchEntry{
		IMDbID: get("const", "imdb_id"),
		Title:  title,
		Notes:  get("description", "notes"),
	}
	if year, err := strconv.Atoi(get("year")); err == nil {
		entry.Year = year
	}
	if rating, err := strconv.ParseFloat(get("your_rating", "user_rating"), 64); err == nil {
		entry.UserRating = rating
	}
	entry.WatchedAt = parseDate(get("date_rated", "watched_at", "created"))
	return entry, true
}

// parseDate accepts the date layouts IMDb has shipped in exports over the
// years. Unparseable dates fall back to the epoch so ordering stays stable.
func parseDate(value string) time.Time {
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"01/02/2006",
		"Mon Jan 2 15:04:05 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}
