package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
)

// SQLiteStore backs the key-value contract with a local SQLite file.
// Same contract as JSONStore, but durable writes go through the
// database instead of a full-file rewrite.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{DB: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

var _ ports.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error { return s.DB.Close() }

func (s *SQLiteStore) initSchema() error {
	_, err := s.DB.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return fmt.Errorf("failed to init schema: %v", err)
	}
	return nil
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.DB.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.DB.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func (s *SQLiteStore) LoadDrafts() ([]domain.Draft, error) {
	value, err := s.get(keyDraftTweets)
	if err != nil {
		return nil, err
	}
	return decodeDrafts(value)
}

func (s *SQLiteStore) SaveDrafts(drafts []domain.Draft) error {
	encoded, err := encodeDrafts(drafts)
	if err != nil {
		return err
	}
	return s.set(keyDraftTweets, encoded)
}

func (s *SQLiteStore) LoadLegacyDrafts() ([]domain.Draft, error) {
	value, err := s.get(keyGeneratedTweets)
	if err != nil {
		return nil, err
	}
	return decodeDrafts(value)
}

func (s *SQLiteStore) LoadSession() (domain.Session, error) {
	token, err := s.get(keyAuthToken)
	if err != nil {
		return domain.Session{}, err
	}
	username, err := s.get(keyLoggedInUser)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, Username: username}, nil
}

func (s *SQLiteStore) SaveSession(sess domain.Session) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		keyAuthToken:    sess.Token,
		keyLoggedInUser: sess.Username,
	} {
		if _, err := tx.Exec(
			"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
			key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ClearSession() error {
	_, err := s.DB.Exec("DELETE FROM kv WHERE key IN (?, ?)", keyAuthToken, keyLoggedInUser)
	return err
}

func (s *SQLiteStore) LoadTheme() (string, error) {
	return s.get(keyTheme)
}

func (s *SQLiteStore) SaveTheme(theme string) error {
	return s.set(keyTheme, theme)
}
