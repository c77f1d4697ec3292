package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

// RunJournal records controller state transitions for the lifetime of the process.
type RunJournal interface {
	Record(ctx context.Context, ev entity.RunEvent) (int64, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]entity.RunEvent, error)
	ListByRun(ctx context.Context, runID string) ([]entity.RunEvent, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

type runJournal struct {
	db  *sql.DB
	log *slog.Logger
}

func NewRunJournal(db *sql.DB, log *slog.Logger) RunJournal {
	if log == nil {
		log = slog.Default()
	}
	return &runJournal{db: db, log: log}
}

func (r *runJournal) Record(ctx context.Context, ev entity.RunEvent) (int64, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO run_event (session_id, run_id, state, detail, files, records, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.RunID, ev.State, ev.Detail, ev.Files, ev.Records,
		ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.log.Error("run_event insert failed", "run_id", ev.RunID, "state", ev.State, "err", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.log.Debug("run_event recorded", "id", id, "run_id", ev.RunID, "state", ev.State)
	return id, nil
}

// ListBySession returns the newest events first; limit <= 0 means all.
func (r *runJournal) ListBySession(ctx context.Context, sessionID string, limit int) ([]entity.RunEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, run_id, state, detail, files, records, created_at
		 FROM run_event WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	return scanEvents(rows)
}

// ListByRun returns one run's events in the order they happened.
func (r *runJournal) ListByRun(ctx context.Context, runID string) ([]entity.RunEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, run_id, state, detail, files, records, created_at
		 FROM run_event WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	return scanEvents(rows)
}

func (r *runJournal) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM run_event WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]entity.RunEvent, error) {
	defer rows.Close()
	var out []entity.RunEvent
	for rows.Next() {
		var (
			ev      entity.RunEvent
			created string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.RunID, &ev.State, &ev.Detail, &ev.Files, &ev.Records, &created); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		ev.CreatedAt = t
		out = append(out, ev)
	}
	return out, rows.Err()
}
