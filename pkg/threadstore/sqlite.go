package threadstore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the durable backend. TTL is stored as an absolute unix
// expiry per row; expired rows are deleted lazily on Get.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, ttl: ttl, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS threads (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data, expires_at FROM threads WHERE key=?", key)

	var data string
	var expiresAt int64
	if err := row.Scan(&data, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}

	if expiresAt > 0 && s.now().Unix() > expiresAt {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM threads WHERE key=?", key)
		return "", false, nil
	}
	return data, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (key, data, expires_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data=excluded.data, expires_at=excluded.expires_at, updated_at=excluded.updated_at`,
		key, value, expiresAt, now.Unix())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE key=?", key)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
