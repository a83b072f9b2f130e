// Package storage provides the durable key-value adapters behind the
// draft snapshot, the persisted session and the theme preference.
// Three backends share one contract: a JSON file (default), SQLite and
// PostgreSQL. All values are strings; the draft list is serialized text
// that round-trips exactly through decode∘encode.
package storage

import (
	"encoding/json"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

const (
	keyAuthToken       = "authToken"
	keyLoggedInUser    = "loggedInUser"
	keyTheme           = "theme"
	keyDraftTweets     = "draftTweets"     // unposted-only snapshot, authoritative
	keyGeneratedTweets = "generatedTweets" // legacy full snapshot, read-only
)

func encodeDrafts(drafts []domain.Draft) (string, error) {
	if drafts == nil {
		drafts = []domain.Draft{}
	}
	raw, err := json.Marshal(drafts)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeDrafts(value string) ([]domain.Draft, error) {
	if value == "" {
		return nil, nil
	}
	var drafts []domain.Draft
	if err := json.Unmarshal([]byte(value), &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}
