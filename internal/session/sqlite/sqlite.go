package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/labconnect/internal/session"
)

// Schema creates the sessions table. Timestamps are unix nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	code       TEXT    PRIMARY KEY,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

// SQLiteStore implements session.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ session.Store = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert stores sess unless a live row with the same code exists.
// An expired row is overwritten in the same statement.
func (s *SQLiteStore) Insert(ctx context.Context, sess session.Session) (bool, error) {
	query := `
		INSERT INTO sessions (code, created_at, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
		WHERE sessions.expires_at <= excluded.created_at
	`
	result, err := s.db.ExecContext(ctx, query,
		sess.Code,
		sess.CreatedAt.UnixNano(),
		sess.ExpiresAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Get retrieves a session that is still valid at now.
func (s *SQLiteStore) Get(ctx context.Context, code string, now time.Time) (session.Session, error) {
	query := `
		SELECT code, created_at, expires_at
		FROM sessions
		WHERE code = ? AND expires_at > ?
	`
	var (
		sess               session.Session
		createdAt, expires int64
	)
	err := s.db.QueryRowContext(ctx, query, code, now.UnixNano()).Scan(&sess.Code, &createdAt, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("query session: %w", err)
	}

	sess.CreatedAt = time.Unix(0, createdAt)
	sess.ExpiresAt = time.Unix(0, expires)
	return sess, nil
}

// DeleteExpired removes rows expired at now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Count returns the number of stored rows, expired ones included.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
