package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS run_event (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	run_id     TEXT    NOT NULL,
	state      TEXT    NOT NULL,
	detail     TEXT    NOT NULL DEFAULT '',
	files      INTEGER NOT NULL DEFAULT 0,
	records    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS run_event_session ON run_event (session_id, id);
CREATE INDEX IF NOT EXISTS run_event_run ON run_event (run_id, id);
`

// OpenInMemory opens a private in-memory SQLite database for the run journal.
// Its contents live only as long as the process.
func OpenInMemory(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf("file:journal-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open journal database", "error", err)
		return nil, err
	}
	// one connection keeps the in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		_ = db.Close()
		logger.Error("failed to create journal schema", "error", err)
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	logger.Info("journal database ready")
	return db, nil
}

// Close closes the database gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close journal database", "error", err)
		return
	}
	logger.Info("journal database closed")
}

// HealthCheck pings the journal database.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
