package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/tripsession/core"
)

// SQLiteStore persists serialized sessions in a SQLite database using the
// pure Go modernc.org/sqlite driver.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and
// initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		window_size INTEGER NOT NULL,
		data BLOB NOT NULL,
		turn_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save upserts the serialized session under id. The creation time of an
// existing row is preserved.
func (s *SQLiteStore) Save(ctx context.Context, id string, sess *core.Session) error {
	if id == "" {
		return ErrEmptyID
	}
	data, err := sess.Serialize()
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}

	query := `
	INSERT INTO sessions (id, window_size, data, turn_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		window_size = excluded.window_size,
		data = excluded.data,
		turn_count = excluded.turn_count,
		updated_at = excluded.updated_at`

	now := s.now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, query, id, sess.Window(), data, sess.Len(), now, now); err != nil {
		return fmt.Errorf("upsert session %s: %w", id, err)
	}
	return nil
}

// Load decodes the session stored under id.
func (s *SQLiteStore) Load(ctx context.Context, id string, optFns ...func(o *core.SessionOptions)) (*core.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return core.Deserialize(data, optFns...)
}

// Delete removes id. Deleting an unknown id returns ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns all stored sessions, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]core.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, window_size, turn_count, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []core.SessionInfo
	for rows.Next() {
		var info core.SessionInfo
		var created, updated int64
		if err := rows.Scan(&info.ID, &info.Window, &info.TurnCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		info.CreatedAt = time.UnixMilli(created)
		info.UpdatedAt = time.UnixMilli(updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return infos, nil
}
