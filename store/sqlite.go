package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLite is a Store backed by a single sqlite database file.
// Like the filesystem store, entries survive process restarts.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(filename string) (*SQLite, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		content_type TEXT NOT NULL,
		binary INTEGER NOT NULL,
		body BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS timestamp_idx ON entries (timestamp)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(key string) (Entry, bool, error) {
	var (
		entry     Entry
		timestamp int64
		binary    int
	)
	err := s.db.QueryRow(
		"SELECT timestamp, content_type, binary, body FROM entries WHERE key = ?", key,
	).Scan(&timestamp, &entry.ContentType, &binary, &entry.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	entry.Timestamp = time.Unix(timestamp, 0)
	entry.Binary = binary != 0
	return entry, true, nil
}

func (s *SQLite) Put(key string, entry Entry) error {
	binary := 0
	if entry.Binary {
		binary = 1
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO entries (key, timestamp, content_type, binary, body) VALUES (?, ?, ?, ?, ?)",
		key, entry.Timestamp.Unix(), entry.ContentType, binary, entry.Body,
	)
	return err
}

func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key)
	return err
}

func (s *SQLite) Clear() error {
	_, err := s.db.Exec("DELETE FROM entries")
	return err
}

func (s *SQLite) Evict(olderThan time.Time) (int, error) {
	res, err := s.db.Exec("DELETE FROM entries WHERE timestamp < ?", olderThan.Unix())
	if err != nil {
		return 0, err
	}
	evicted, err := res.RowsAffected()
	return int(evicted), err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
