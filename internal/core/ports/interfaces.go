package ports

import (
	"context"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

// Store is the durable key-value layer behind drafts, credentials and
// the theme preference. Values round-trip exactly through save/load.
type Store interface {
	LoadDrafts() ([]domain.Draft, error)
	SaveDrafts(drafts []domain.Draft) error
	// LoadLegacyDrafts reads the old full-snapshot key kept by earlier
	// versions. Read once at startup for migration, never written.
	LoadLegacyDrafts() ([]domain.Draft, error)

	LoadSession() (domain.Session, error)
	SaveSession(s domain.Session) error
	ClearSession() error

	LoadTheme() (string, error)
	SaveTheme(theme string) error
}

// Brain produces tweet text for a topic.
type Brain interface {
	Generate(ctx context.Context, topic string) (string, error)
}

type Action string

const (
	ActionPost       Action = "post"
	ActionRegenerate Action = "regenerate"
	ActionDiscard    Action = "discard"
)

// Approver asks the user what to do with a freshly generated draft.
type Approver interface {
	Confirm(ctx context.Context, title, body string) (Action, error)
}
