package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
)

// JSONStore keeps the whole key-value map in one file, rewritten on
// every change. Single-writer by design; the mutex only guards against
// accidental cross-goroutine use.
type JSONStore struct {
	FilePath string
	mu       sync.RWMutex
	data     map[string]string
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{
		FilePath: filePath,
		data:     make(map[string]string),
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

var _ ports.Store = (*JSONStore)(nil)

func (s *JSONStore) loadFromFile() error {
	raw, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, &s.data)
}

func (s *JSONStore) saveToFile() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.FilePath, raw, 0644)
}

func (s *JSONStore) LoadDrafts() ([]domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeDrafts(s.data[keyDraftTweets])
}

func (s *JSONStore) SaveDrafts(drafts []domain.Draft) error {
	encoded, err := encodeDrafts(drafts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[keyDraftTweets] = encoded
	return s.saveToFile()
}

func (s *JSONStore) LoadLegacyDrafts() ([]domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeDrafts(s.data[keyGeneratedTweets])
}

func (s *JSONStore) LoadSession() (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{
		Token:    s.data[keyAuthToken],
		Username: s.data[keyLoggedInUser],
	}, nil
}

func (s *JSONStore) SaveSession(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[keyAuthToken] = sess.Token
	s.data[keyLoggedInUser] = sess.Username
	return s.saveToFile()
}

func (s *JSONStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, keyAuthToken)
	delete(s.data, keyLoggedInUser)
	return s.saveToFile()
}

func (s *JSONStore) LoadTheme() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[keyTheme], nil
}

func (s *JSONStore) SaveTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[keyTheme] = theme
	return s.saveToFile()
}

// SeedLegacyDrafts writes the legacy key directly. Used by migration
// tests and by the import path of older data files.
func (s *JSONStore) SeedLegacyDrafts(drafts []domain.Draft) error {
	encoded, err := encodeDrafts(drafts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[keyGeneratedTweets] = encoded
	return s.saveToFile()
}
