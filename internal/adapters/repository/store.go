// Package repository is the SQLite persistence adapter. One Store serves
// both sides of the engine: the read-only snapshot source and the run
// recorder.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
)

const (
	dayLayout = "2006-01-02"
	tsLayout  = time.RFC3339
)

// Store provides SQLite-backed persistence.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%w: apply schema: %v", ErrOpen, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts the initial run row.
func (s *Store) CreateRun(ctx context.Context, run model.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, type, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID.String(), run.Type, string(run.Status), run.StartedAt.Format(tsLayout))
	return err
}

// FinishRun writes the terminal state of a run.
func (s *Store) FinishRun(ctx context.Context, run model.Run) error {
	var completed any
	if run.CompletedAt != nil {
		completed = run.CompletedAt.Format(tsLayout)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, completed_at = ?, processed = ?, scheduled = ?, failed = ?, swaps = ?, error = ?
		WHERE id = ?
	`, string(run.Status), completed, run.Processed, run.Scheduled, run.Failed, run.Swaps, run.Error, run.ID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, run.ID)
	}
	return nil
}

// SaveProposals inserts all proposal rows of one run in a single
// transaction.
func (s *Store) SaveProposals(ctx context.Context, proposals []model.Proposal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO proposals (run_id, event_ref, employee_id, scheduled_at, shift_block, swap, bumped_ref, failure_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range proposals {
		var at any
		if p.ScheduledAt != nil {
			at = p.ScheduledAt.Format(tsLayout)
		}
		if _, err := stmt.ExecContext(ctx, p.RunID.String(), p.EventRef, p.EmployeeID,
			at, p.ShiftBlock, p.Swap, p.BumpedRef, p.FailureReason); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (model.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, status, started_at, completed_at, processed, scheduled, failed, swaps, error
		FROM runs WHERE id = ?
	`, id.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return model.Run{}, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, status, started_at, completed_at, processed, scheduled, failed, swaps, error
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ProposalsForRun returns all proposal rows of one run in insertion order.
func (s *Store) ProposalsForRun(ctx context.Context, runID uuid.UUID) ([]model.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, event_ref, employee_id, scheduled_at, shift_block, swap, bumped_ref, failure_reason
		FROM proposals WHERE run_id = ? ORDER BY id
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Proposal
	for rows.Next() {
		var (
			p     model.Proposal
			id    string
			atStr sql.NullString
		)
		if err := rows.Scan(&id, &p.EventRef, &p.EmployeeID, &atStr,
			&p.ShiftBlock, &p.Swap, &p.BumpedRef, &p.FailureReason); err != nil {
			return nil, err
		}
		if p.RunID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if atStr.Valid {
			at, err := time.Parse(tsLayout, atStr.String)
			if err != nil {
				return nil, err
			}
			p.ScheduledAt = &at
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.Run, error) {
	var (
		run       model.Run
		id        string
		status    string
		started   string
		completed sql.NullString
	)
	err := row.Scan(&id, &run.Type, &status, &started, &completed,
		&run.Processed, &run.Scheduled, &run.Failed, &run.Swaps, &run.Error)
	if err != nil {
		return model.Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return model.Run{}, err
	}
	run.Status = types.RunStatus(status)
	if run.StartedAt, err = time.Parse(tsLayout, started); err != nil {
		return model.Run{}, err
	}
	if completed.Valid {
		at, err := time.Parse(tsLayout, completed.String)
		if err != nil {
			return model.Run{}, err
		}
		run.CompletedAt = &at
	}
	return run, nil
}
