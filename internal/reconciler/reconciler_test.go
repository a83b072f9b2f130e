package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/feed"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
	"github.com/ayuushisaha/ai-twitter-bot/internal/session"
)

type memStore struct {
	drafts  []domain.Draft
	hasKey  bool
	legacy  []domain.Draft
	sess    domain.Session
	theme   string
	saves   int
	saveErr error
}

func (m *memStore) LoadDrafts() ([]domain.Draft, error) {
	if !m.hasKey {
		return nil, nil
	}
	return append([]domain.Draft(nil), m.drafts...), nil
}

func (m *memStore) SaveDrafts(drafts []domain.Draft) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.drafts = append([]domain.Draft(nil), drafts...)
	m.hasKey = true
	m.saves++
	return nil
}

func (m *memStore) LoadLegacyDrafts() ([]domain.Draft, error) {
	return append([]domain.Draft(nil), m.legacy...), nil
}

func (m *memStore) LoadSession() (domain.Session, error) { return m.sess, nil }
func (m *memStore) SaveSession(s domain.Session) error   { m.sess = s; return nil }
func (m *memStore) ClearSession() error                  { m.sess = domain.Session{}; return nil }
func (m *memStore) LoadTheme() (string, error)           { return m.theme, nil }
func (m *memStore) SaveTheme(theme string) error         { m.theme = theme; return nil }

type brainFunc func(ctx context.Context, topic string) (string, error)

func (f brainFunc) Generate(ctx context.Context, topic string) (string, error) {
	return f(ctx, topic)
}

type rig struct {
	rec      *Reconciler
	store    *memStore
	sessions *session.Manager
	feeds    *feed.Aggregator
	server   *httptest.Server
}

// newRig wires a reconciler against a fake backend. The handler covers
// /login and /direct-post with canned success responses unless the
// test installs its own mux.
func newRig(t *testing.T, brain brainFunc, handler http.Handler) *rig {
	t.Helper()

	if handler == nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
		})
		mux.HandleFunc("/direct-post", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]any{
				"tweet": map[string]any{"id": 9001, "content": req.Content},
			})
		})
		handler = mux
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := &memStore{}
	gw := gateway.NewClient(server.URL, nil)
	sessions := session.NewManager(store, gw)
	gw.Tokens = sessions
	feeds := feed.NewAggregator()

	if brain == nil {
		brain = func(ctx context.Context, topic string) (string, error) {
			return "About " + topic, nil
		}
	}

	return &rig{
		rec:      New(store, brain, gw, sessions, feeds),
		store:    store,
		sessions: sessions,
		feeds:    feeds,
		server:   server,
	}
}

func TestGenerateAppendsOneDraft(t *testing.T) {
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		return "Cats are great #cats", nil
	}, nil)

	draft, err := r.rec.Generate(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats are great #cats", draft.Text)
	assert.False(t, draft.Posted)

	drafts := r.rec.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, draft, drafts[0])

	transcript := r.rec.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "cats", transcript[0].Text)
	assert.Equal(t, "Cats are great #cats", transcript[1].Text)
}

func TestGenerateRejectsEmptyTopic(t *testing.T) {
	called := false
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		called = true
		return "", nil
	}, nil)

	_, err := r.rec.Generate(context.Background(), "   \t ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.False(t, called, "empty input must not reach the brain")
	assert.Empty(t, r.rec.Drafts())
}

func TestGenerateFailureLeavesListUnchanged(t *testing.T) {
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		return "", fmt.Errorf("model overloaded")
	}, nil)

	_, err := r.rec.Generate(context.Background(), "dogs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, r.rec.Drafts(), "a failed generation must not append a phantom draft")
	assert.Empty(t, r.rec.Transcript())
}

func TestGenerateUnauthorizedExpiresSession(t *testing.T) {
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		return "", fmt.Errorf("generate: %w", gateway.ErrUnauthorized)
	}, nil)

	require.NoError(t, r.sessions.Login(context.Background(), "ayushi", "pw"))
	_, err := r.rec.Generate(context.Background(), "cats")

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, domain.ModeAnonymous, r.sessions.Mode())
	assert.Empty(t, r.rec.Drafts(), "list unchanged after a 401")
}

func TestEditOnlyTouchesUnpostedDrafts(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()

	draft, err := r.rec.Generate(ctx, "go")
	require.NoError(t, err)

	require.NoError(t, r.rec.Edit(draft.ID, "Edited text"))
	got, ok := r.rec.Get(draft.ID)
	require.True(t, ok)
	assert.Equal(t, "Edited text", got.Text)

	// Unknown id: silent no-op.
	require.NoError(t, r.rec.Edit(draft.ID+999, "nope"))

	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))
	_, _, err = r.rec.Publish(ctx, draft.ID)
	require.NoError(t, err)

	// Posted is terminal for content.
	require.NoError(t, r.rec.Edit(draft.ID, "rewrite history"))
	got, ok = r.rec.Get(draft.ID)
	require.True(t, ok)
	assert.Equal(t, "Edited text", got.Text)
	assert.True(t, got.Posted)
}

func TestPublishTooLongMakesNoRemoteCall(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/login" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
			return
		}
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		return strings.Repeat("x", 281), nil
	}, mux)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	draft, err := r.rec.Generate(ctx, "verbose")
	require.NoError(t, err)

	_, _, err = r.rec.Publish(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrTooLong)
	assert.Zero(t, calls, "no remote call for an over-length draft")

	got, _ := r.rec.Get(draft.ID)
	assert.False(t, got.Posted)
}

func TestPublishUnknownID(t *testing.T) {
	r := newRig(t, nil, nil)
	_, _, err := r.rec.Publish(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishFlipsPostedAndDropsFromSnapshot(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	draft, err := r.rec.Generate(ctx, "release day")
	require.NoError(t, err)

	posted, tweetID, err := r.rec.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, posted.Posted)
	assert.Equal(t, draft.ID, posted.ID, "publish keeps the same id")
	assert.EqualValues(t, 9001, tweetID)

	mine := r.feeds.Mine()
	require.Len(t, mine, 1)
	assert.Equal(t, "ayushi", mine[0].Author)
	assert.Equal(t, posted.Text, mine[0].Text)

	snapshot, err := r.store.LoadDrafts()
	require.NoError(t, err)
	assert.Empty(t, snapshot, "posted drafts never persist to the snapshot")
}

func TestPublishRemoteFailureLeavesDraftUnposted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	})
	mux.HandleFunc("/direct-post", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "upstream down"})
	})
	r := newRig(t, nil, mux)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	draft, err := r.rec.Generate(ctx, "flaky")
	require.NoError(t, err)

	_, _, err = r.rec.Publish(ctx, draft.ID)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "upstream down", remote.Message)

	got, _ := r.rec.Get(draft.ID)
	assert.False(t, got.Posted, "a failed publish never marks an item posted")
	assert.Empty(t, r.feeds.Mine())

	snapshot, err := r.store.LoadDrafts()
	require.NoError(t, err)
	require.Len(t, snapshot, 1, "failed publish keeps the draft persisted")
	assert.Equal(t, draft.ID, snapshot[0].ID)
}

func TestLoadInitialSeedsFromSnapshot(t *testing.T) {
	r := newRig(t, nil, nil)
	r.store.hasKey = true
	r.store.drafts = []domain.Draft{{ID: 100, Text: "from last session"}}

	require.NoError(t, r.rec.LoadInitial())
	drafts := r.rec.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(100), drafts[0].ID)
	assert.False(t, drafts[0].Posted)
}

func TestLoadInitialIsIdempotent(t *testing.T) {
	r := newRig(t, nil, nil)
	r.store.hasKey = true
	r.store.drafts = []domain.Draft{
		{ID: 1, Text: "one"},
		{ID: 2, Text: "two"},
	}

	require.NoError(t, r.rec.LoadInitial())
	first := r.rec.Drafts()
	require.NoError(t, r.rec.LoadInitial())
	second := r.rec.Drafts()

	assert.Equal(t, first, second)
	assertUniqueIDs(t, second)
}

func TestLoadInitialMemoryWinsOnConflict(t *testing.T) {
	r := newRig(t, func(ctx context.Context, topic string) (string, error) {
		return "fresh text", nil
	}, nil)

	draft, err := r.rec.Generate(context.Background(), "race")
	require.NoError(t, err)

	// Snapshot written by an earlier session tick carries stale text
	// for the same id.
	r.store.hasKey = true
	r.store.drafts = []domain.Draft{
		{ID: draft.ID, Text: "stale text"},
		{ID: draft.ID - 1, Text: "older draft"},
	}

	require.NoError(t, r.rec.LoadInitial())
	drafts := r.rec.Drafts()
	require.Len(t, drafts, 2)
	assertUniqueIDs(t, drafts)

	got, ok := r.rec.Get(draft.ID)
	require.True(t, ok)
	assert.Equal(t, "fresh text", got.Text, "in-memory entry wins the merge")
}

func TestLoadInitialMigratesLegacySnapshot(t *testing.T) {
	r := newRig(t, nil, nil)
	r.store.legacy = []domain.Draft{
		{ID: 10, Text: "old draft"},
		{ID: 11, Text: "already posted", Posted: true},
	}

	require.NoError(t, r.rec.LoadInitial())
	drafts := r.rec.Drafts()
	require.Len(t, drafts, 1, "only the unposted subset migrates")
	assert.Equal(t, int64(10), drafts[0].ID)

	// Migration rewrites the authoritative key.
	snapshot, err := r.store.LoadDrafts()
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, int64(10), snapshot[0].ID)
}

func TestNoDuplicateIDsAcrossOperations(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	var ids []int64
	for i := 0; i < 20; i++ {
		d, err := r.rec.Generate(ctx, fmt.Sprintf("topic %d", i))
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}
	require.NoError(t, r.rec.Edit(ids[3], "edited"))
	require.NoError(t, r.rec.Delete(ids[5]))
	_, _, err := r.rec.Publish(ctx, ids[7])
	require.NoError(t, err)
	require.NoError(t, r.rec.LoadInitial())

	assertUniqueIDs(t, r.rec.Drafts())
}

func TestPublishMonotonicity(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	draft, err := r.rec.Generate(ctx, "forever")
	require.NoError(t, err)
	_, _, err = r.rec.Publish(ctx, draft.ID)
	require.NoError(t, err)

	require.NoError(t, r.rec.Edit(draft.ID, "mutate"))
	require.NoError(t, r.rec.LoadInitial())

	got, ok := r.rec.Get(draft.ID)
	require.True(t, ok)
	assert.True(t, got.Posted, "posted never flips back")
}

func TestDeleteRemovesPostedAndUnposted(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, r.sessions.Login(ctx, "ayushi", "pw"))

	a, err := r.rec.Generate(ctx, "a")
	require.NoError(t, err)
	b, err := r.rec.Generate(ctx, "b")
	require.NoError(t, err)
	_, _, err = r.rec.Publish(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, r.rec.Delete(a.ID))
	require.NoError(t, r.rec.Delete(b.ID))
	assert.Empty(t, r.rec.Drafts())
}

func TestResetClearsListAndSnapshot(t *testing.T) {
	r := newRig(t, nil, nil)
	_, err := r.rec.Generate(context.Background(), "ephemeral")
	require.NoError(t, err)

	require.NoError(t, r.rec.Reset())
	assert.Empty(t, r.rec.Drafts())
	assert.Empty(t, r.rec.Transcript())

	snapshot, err := r.store.LoadDrafts()
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestEveryMutationWritesThrough(t *testing.T) {
	r := newRig(t, nil, nil)
	ctx := context.Background()

	before := r.store.saves
	draft, err := r.rec.Generate(ctx, "persist me")
	require.NoError(t, err)
	assert.Greater(t, r.store.saves, before)

	before = r.store.saves
	require.NoError(t, r.rec.Edit(draft.ID, "still here"))
	assert.Greater(t, r.store.saves, before)

	before = r.store.saves
	require.NoError(t, r.rec.Delete(draft.ID))
	assert.Greater(t, r.store.saves, before)
}

func assertUniqueIDs(t *testing.T, drafts []domain.Draft) {
	t.Helper()
	seen := make(map[int64]bool, len(drafts))
	for _, d := range drafts {
		assert.Falsef(t, seen[d.ID], "duplicate id %d", d.ID)
		seen[d.ID] = true
	}
}
