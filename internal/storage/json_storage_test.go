package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

func newJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.json")
	s, err := NewJSONStore(path)
	require.NoError(t, err)
	return s, path
}

func TestJSONDraftRoundTrip(t *testing.T) {
	s, path := newJSONStore(t)

	drafts := []domain.Draft{
		{ID: 1718000000001, Text: "first draft"},
		{ID: 1718000000002, Text: "unicode ☕ and \"quotes\""},
	}
	require.NoError(t, s.SaveDrafts(drafts))

	// Reopen from disk: the snapshot must survive a reload byte-exact.
	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	got, err := reopened.LoadDrafts()
	require.NoError(t, err)
	assert.Equal(t, drafts, got, "order and fields preserved")
}

func TestJSONEmptyStoreHasNoSnapshot(t *testing.T) {
	s, _ := newJSONStore(t)
	got, err := s.LoadDrafts()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJSONEmptySnapshotIsNotMissing(t *testing.T) {
	s, _ := newJSONStore(t)
	require.NoError(t, s.SaveDrafts(nil))

	got, err := s.LoadDrafts()
	require.NoError(t, err)
	assert.NotNil(t, got, "a written empty snapshot is distinct from an absent one")
	assert.Empty(t, got)
}

func TestJSONSessionPairAtomicity(t *testing.T) {
	s, path := newJSONStore(t)

	require.NoError(t, s.SaveSession(domain.Session{Token: "tok", Username: "ayushi"}))
	sess, err := s.LoadSession()
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())

	require.NoError(t, s.ClearSession())
	sess, err = s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, domain.Session{}, sess)

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	sess, err = reopened.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, domain.Session{}, sess, "clear reaches the disk")
}

func TestJSONLegacyKeyIsSeparate(t *testing.T) {
	s, _ := newJSONStore(t)

	legacy := []domain.Draft{
		{ID: 1, Text: "old", Posted: false},
		{ID: 2, Text: "old posted", Posted: true},
	}
	require.NoError(t, s.SeedLegacyDrafts(legacy))

	got, err := s.LoadLegacyDrafts()
	require.NoError(t, err)
	assert.Equal(t, legacy, got)

	// The authoritative key stays untouched.
	drafts, err := s.LoadDrafts()
	require.NoError(t, err)
	assert.Nil(t, drafts)
}

func TestJSONTheme(t *testing.T) {
	s, path := newJSONStore(t)

	theme, err := s.LoadTheme()
	require.NoError(t, err)
	assert.Empty(t, theme)

	require.NoError(t, s.SaveTheme("dark"))
	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	theme, err = reopened.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
}
