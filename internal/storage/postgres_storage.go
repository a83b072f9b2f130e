package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
)

// PostgresStore backs the key-value contract with a Postgres table, for
// agents deployed against a hosted database instead of the local disk.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	s := &PostgresStore{Pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ ports.Store = (*PostgresStore)(nil)

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return fmt.Errorf("failed to init schema: %v", err)
	}
	return nil
}

func (s *PostgresStore) get(key string) (string, error) {
	var value string
	err := s.Pool.QueryRow(context.Background(),
		"SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) set(key, value string) error {
	_, err := s.Pool.Exec(context.Background(),
		"INSERT INTO kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = $2",
		key, value)
	return err
}

func (s *PostgresStore) LoadDrafts() ([]domain.Draft, error) {
	value, err := s.get(keyDraftTweets)
	if err != nil {
		return nil, err
	}
	return decodeDrafts(value)
}

func (s *PostgresStore) SaveDrafts(drafts []domain.Draft) error {
	encoded, err := encodeDrafts(drafts)
	if err != nil {
		return err
	}
	return s.set(keyDraftTweets, encoded)
}

func (s *PostgresStore) LoadLegacyDrafts() ([]domain.Draft, error) {
	value, err := s.get(keyGeneratedTweets)
	if err != nil {
		return nil, err
	}
	return decodeDrafts(value)
}

func (s *PostgresStore) LoadSession() (domain.Session, error) {
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

// SaveSession writes token and username in one transaction so a crash
// cannot leave a partial credential pair behind.
func (s *PostgresStore) SaveSession(sess domain.Session) error {
	ctx := context.Background()
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for key, value := range map[string]string{
		keyAuthToken:    sess.Token,
		keyLoggedInUser: sess.Username,
	} {
		if _, err := tx.Exec(ctx,
			"INSERT INTO kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = $2",
			key, value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ClearSession() error {
	_, err := s.Pool.Exec(context.Background(),
		"DELETE FROM kv WHERE key = ANY($1)", []string{keyAuthToken, keyLoggedInUser})
	return err
}

func (s *PostgresStore) LoadTheme() (string, error) {
	return s.get(keyTheme)
}

func (s *PostgresStore) SaveTheme(theme string) error {
	return s.set(keyTheme, theme)
}
