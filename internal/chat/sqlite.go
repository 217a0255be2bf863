package chat

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a MetadataStore backed by a SQLite database, scoped to
// a single chat id. Values survive process restarts, which is what makes
// the cached chat-identity hash stable across reloads.
type SQLiteStore struct {
	db     *sql.DB
	chatID string
}

// OpenSQLiteStore opens (or creates) the metadata database at path and
// scopes the returned store to chatID. The parent directory is created
// if missing.
func OpenSQLiteStore(path, chatID string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create metadata directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping metadata db at %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_metadata (
			chat_id TEXT NOT NULL,
			key     TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (chat_id, key)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chat_metadata table: %w", err)
	}

	return &SQLiteStore{db: db, chatID: chatID}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM chat_metadata WHERE chat_id = ? AND key = ?`,
		s.chatID, key,
	).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO chat_metadata (chat_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id, key) DO UPDATE SET value = excluded.value`,
		s.chatID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store metadata %s for chat %s: %w", key, s.chatID, err)
	}
	return nil
}

func (s *SQLiteStore) GetInt(key string) (int, bool) {
	raw, ok := s.get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *SQLiteStore) SetInt(key string, value int) error {
	return s.set(key, strconv.Itoa(value))
}

func (s *SQLiteStore) GetString(key string) (string, bool) {
	return s.get(key)
}

func (s *SQLiteStore) SetString(key, value string) error {
	return s.set(key, value)
}
