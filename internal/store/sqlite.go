package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/neurolens/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database; nothing then survives a restart.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Every connection to ":memory:" is a separate database, and SQLite
	// serialises writers anyway, so one connection is used throughout.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Session operations ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "insert", "table", "sessions", "id", sess.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, logged_in, username, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.LoggedIn, sess.Username, sess.Attempts,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.logger.Debug("sql", "op", "select", "table", "sessions", "id", id)

	var sess model.Session
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, logged_in, username, attempts, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.LoggedIn, &sess.Username, &sess.Attempts, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return &sess, nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "update", "table", "sessions", "id", sess.ID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET logged_in = ?, username = ?, attempts = ?, updated_at = ? WHERE id = ?`,
		sess.LoggedIn, sess.Username, sess.Attempts, formatTime(sess.UpdatedAt), sess.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, "session", sess.ID)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "sessions", "id", id)

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// --- Run operations ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, session_id, file_name, extension, state, progress, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.FileName, run.Extension, string(run.State), run.Progress,
		formatTime(run.CreatedAt), nullTime(run.StartedAt), nullTime(run.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, file_name, extension, state, progress, created_at, started_at, completed_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "update", "table", "runs", "id", run.ID, "state", run.State)

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, progress = ?, started_at = ?, completed_at = ? WHERE id = ?`,
		string(run.State), run.Progress, nullTime(run.StartedAt), nullTime(run.CompletedAt), run.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, "run", run.ID)
}

func (s *SQLiteStore) StartRun(ctx context.Context, id string, startedAt time.Time) error {
	s.logger.Debug("sql", "op", "start", "table", "runs", "id", id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, progress = 0, started_at = ?, completed_at = NULL
		 WHERE id = ? AND state <> ?`,
		string(model.RunStateRunning), formatTime(startedAt), id, string(model.RunStateRunning),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrRunActive
	}
	return nil
}

func (s *SQLiteStore) ListRunsBySession(ctx context.Context, sessionID string) ([]*model.Run, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "session_id", sessionID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, file_name, extension, state, progress, created_at, started_at, completed_at
		 FROM runs WHERE session_id = ? ORDER BY created_at DESC, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var run model.Run
	var state, createdAt string
	var startedAt, completedAt *string

	if err := sc.Scan(&run.ID, &run.SessionID, &run.FileName, &run.Extension, &state, &run.Progress,
		&createdAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	run.State = model.RunState(state)
	run.CreatedAt = parseTime(createdAt)
	if startedAt != nil {
		t := parseTime(*startedAt)
		run.StartedAt = &t
	}
	if completedAt != nil {
		t := parseTime(*completedAt)
		run.CompletedAt = &t
	}
	return &run, nil
}

func requireRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
