package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCheckpoint starts a new run record in the running state and returns
// it with a fresh run id.
func (s *Store) CreateCheckpoint(ctx context.Context) (*Checkpoint, error) {
	now := time.Now().UTC()
	cp := &Checkpoint{
		RunID:     uuid.NewString(),
		State:     RunRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pipeline_checkpoints (run_id, state, started_at, updated_at, last_movie_key, processed, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cp.RunID,
		string(cp.State),
		cp.StartedAt.Format(time.RFC3339Nano),
		cp.UpdatedAt.Format(time.RFC3339Nano),
		cp.LastMovieKey,
		cp.Processed,
		nullableTime(cp.FinishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}
	return cp, nil
}

// LatestResumable returns the most recent run that was interrupted or left
// running by a crashed process, or nil when every prior run completed.
func (s *Store) LatestResumable(ctx context.Context) (*Checkpoint, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT run_id, state, started_at, updated_at, last_movie_key, processed, finished_at
         FROM pipeline_checkpoints
         WHERE state IN (?, ?)
         ORDER BY started_at DESC LIMIT 1`,
		string(RunRunning),
		string(RunInterrupted),
	)
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest resumable checkpoint: %w", err)
	}
	return cp, nil
}

// LatestCheckpoint returns the newest run record regardless of state.
func (s *Store) LatestCheckpoint(ctx context.Context) (*Checkpoint, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT run_id, state, started_at, updated_at, last_movie_key, processed, finished_at
         FROM pipeline_checkpoints ORDER BY started_at DESC LIMIT 1`,
	)
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest checkpoint: %w", err)
	}
	return cp, nil
}

// AdvanceCheckpoint records that the run finished processing one movie. The
// write happens after the canonical record is committed, so a crash between
// the two repeats at most one movie and never skips one.
func (s *Store) AdvanceCheckpoint(ctx context.Context, runID, movieKey string, processed int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE pipeline_checkpoints
         SET last_movie_key = ?, processed = ?, updated_at = ?
         WHERE run_id = ?`,
		movieKey,
		processed,
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("advance checkpoint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance checkpoint rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("checkpoint %s not found", runID)
	}
	return nil
}

// FinishCheckpoint moves a run to a terminal or resumable end state.
func (s *Store) FinishCheckpoint(ctx context.Context, runID string, state RunState) error {
	if state != RunCompleted && state != RunInterrupted {
		return fmt.Errorf("invalid end state %q", state)
	}
	now := time.Now().UTC()
	var finished any
	if state == RunCompleted {
		finished = now.Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE pipeline_checkpoints
         SET state = ?, updated_at = ?, finished_at = ?
         WHERE run_id = ?`,
		string(state),
		now.Format(time.RFC3339Nano),
		finished,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish checkpoint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish checkpoint rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("checkpoint %s not found", runID)
	}
	return nil
}

// ClearResumable abandons unfinished runs so the next enrichment starts from
// the top of the backlog.
func (s *Store) ClearResumable(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE pipeline_checkpoints SET state = ?, updated_at = ?
         WHERE state IN (?, ?)`,
		string(RunAbandoned),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(RunRunning),
		string(RunInterrupted),
	)
	if err != nil {
		return 0, fmt.Errorf("clear resumable checkpoints: %w", err)
	}
	return res.RowsAffected()
}

func scanCheckpoint(scanner interface{ Scan(dest ...any) error }) (*Checkpoint, error) {
	var (
		cp          Checkpoint
		state       string
		startedRaw  string
		updatedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&cp.RunID,
		&state,
		&startedRaw,
		&updatedRaw,
		&cp.LastMovieKey,
		&cp.Processed,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	cp.State = RunState(state)
	if started, err := parseTimeString(startedRaw); err == nil {
		cp.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		cp.UpdatedAt = updated
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			cp.FinishedAt = &finished
		}
	}
	return &cp, nil
}
