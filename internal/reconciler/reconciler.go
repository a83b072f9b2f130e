// Package reconciler owns the canonical in-memory list of generated
// drafts and keeps it consistent with the durable snapshot, the remote
// post endpoints and user edits. Every mutation writes the unposted
// subset straight back to the store, so a crash or reload never loses
// more than the call in flight.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
	"github.com/ayuushisaha/ai-twitter-bot/internal/feed"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
	"github.com/ayuushisaha/ai-twitter-bot/internal/session"
)

var (
	// ErrEmptyInput rejects a blank topic before any remote call.
	ErrEmptyInput = errors.New("topic is empty")
	// ErrNotFound means no draft with the given id exists.
	ErrNotFound = errors.New("draft not found")
	// ErrTooLong rejects a publish of text over the tweet limit.
	ErrTooLong = errors.New("draft exceeds 280 characters")
	// ErrSessionExpired means the backend rejected the credential; the
	// session has already been forced anonymous and the caller should
	// prompt for re-auth without discarding its input.
	ErrSessionExpired = errors.New("session expired")
)

type Reconciler struct {
	store    ports.Store
	brain    ports.Brain
	gw       *gateway.Client
	sessions *session.Manager
	feeds    *feed.Aggregator

	mu         sync.Mutex
	drafts     []domain.Draft
	transcript []domain.Message
	lastID     int64
}

func New(store ports.Store, brain ports.Brain, gw *gateway.Client, sessions *session.Manager, feeds *feed.Aggregator) *Reconciler {
	return &Reconciler{
		store:    store,
		brain:    brain,
		gw:       gw,
		sessions: sessions,
		feeds:    feeds,
	}
}

// LoadInitial merges the persisted unposted snapshot into the canonical
// list by set union keyed on id. The in-memory entry wins for an id
// present in both: it reflects the most recent edit this session.
// Idempotent; an id never appears twice. When the authoritative key is
// empty the legacy full snapshot seeds the first load instead.
func (r *Reconciler) LoadInitial() error {
	snapshot, err := r.store.LoadDrafts()
	if err != nil {
		return err
	}
	if snapshot == nil {
		legacy, err := r.store.LoadLegacyDrafts()
		if err != nil {
			return err
		}
		for _, d := range legacy {
			if !d.Posted {
				snapshot = append(snapshot, d)
			}
		}
	}

	r.mu.Lock()
	seen := make(map[int64]bool, len(r.drafts))
	for _, d := range r.drafts {
		seen[d.ID] = true
	}
	for _, d := range snapshot {
		if !seen[d.ID] {
			r.drafts = append(r.drafts, d)
			seen[d.ID] = true
		}
	}
	for _, d := range r.drafts {
		if d.ID > r.lastID {
			r.lastID = d.ID
		}
	}
	r.mu.Unlock()

	return r.persist()
}

// Drafts returns a copy of the canonical list.
func (r *Reconciler) Drafts() []domain.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Draft(nil), r.drafts...)
}

// Get returns the draft with the given id, if present.
func (r *Reconciler) Get(id int64) (domain.Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Draft{}, false
}

// Transcript returns a copy of the generation dialogue so far.
func (r *Reconciler) Transcript() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.transcript...)
}

// Generate asks the brain for tweet text and appends the result as a
// new unposted draft. A 401 clears the session and reports
// ErrSessionExpired; the caller keeps the typed topic. Any other
// failure leaves the canonical list untouched.
func (r *Reconciler) Generate(ctx context.Context, topic string) (domain.Draft, error) {
	if strings.TrimSpace(topic) == "" {
		return domain.Draft{}, ErrEmptyInput
	}

	text, err := r.brain.Generate(ctx, topic)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			r.sessions.ForceAnonymous()
			return domain.Draft{}, ErrSessionExpired
		}
		return domain.Draft{}, fmt.Errorf("generation failed: %w", err)
	}

	r.mu.Lock()
	draft := domain.Draft{ID: r.nextID(), Text: text}
	r.drafts = append(r.drafts, draft)
	r.transcript = append(r.transcript,
		domain.Message{Role: "user", Text: topic},
		domain.Message{Role: "agent", Text: text},
	)
	r.mu.Unlock()

	if err := r.persist(); err != nil {
		return draft, err
	}
	return draft, nil
}

// Edit replaces the text of an unposted draft. Unknown ids and posted
// drafts are ignored without error: posted is terminal for content.
func (r *Reconciler) Edit(id int64, text string) error {
	r.mu.Lock()
	changed := false
	for i := range r.drafts {
		if r.drafts[i].ID == id && !r.drafts[i].Posted {
			r.drafts[i].Text = text
			changed = true
			break
		}
	}
	r.mu.Unlock()

	if !changed {
		return nil
	}
	return r.persist()
}

// Delete removes a draft unconditionally, posted or not.
func (r *Reconciler) Delete(id int64) error {
	r.mu.Lock()
	kept := r.drafts[:0]
	for _, d := range r.drafts {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	r.drafts = kept
	r.mu.Unlock()

	return r.persist()
}

// Publish posts the draft through the gateway and, on confirmation,
// flips it to posted in place and appends the result to the "my
// tweets" view. Failure leaves the draft unposted; there is no partial
// state change. Returns the server-assigned tweet id.
func (r *Reconciler) Publish(ctx context.Context, id int64) (domain.Draft, int64, error) {
	r.mu.Lock()
	idx := -1
	for i := range r.drafts {
		if r.drafts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return domain.Draft{}, 0, ErrNotFound
	}
	draft := r.drafts[idx]
	r.mu.Unlock()

	if utf8.RuneCountInString(draft.Text) > domain.MaxTweetLen {
		return domain.Draft{}, 0, ErrTooLong
	}

	tweetID, err := r.gw.Publish(ctx, draft.Text)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			r.sessions.ForceAnonymous()
			return domain.Draft{}, 0, ErrSessionExpired
		}
		return domain.Draft{}, 0, err
	}

	r.mu.Lock()
	// Re-resolve by id: the slice may have shifted while the call was
	// in flight.
	for i := range r.drafts {
		if r.drafts[i].ID == id {
			r.drafts[i].Posted = true
			draft = r.drafts[i]
			break
		}
	}
	r.mu.Unlock()

	if r.feeds != nil {
		r.feeds.AppendMine(domain.RemoteTweet{
			ID:       tweetID,
			Author:   r.sessions.Username(),
			Text:     draft.Text,
			PostedAt: time.Now(),
		})
	}

	if err := r.persist(); err != nil {
		return draft, tweetID, err
	}
	return draft, tweetID, nil
}

// Reset drops the canonical list and the durable snapshot. Wired to
// logout so per-user content does not outlive the session.
func (r *Reconciler) Reset() error {
	r.mu.Lock()
	r.drafts = nil
	r.transcript = nil
	r.mu.Unlock()
	return r.persist()
}

// persist rewrites the unposted subset to the store. Posted drafts live
// only in memory and in the remote feed once fetched.
func (r *Reconciler) persist() error {
	r.mu.Lock()
	unposted := make([]domain.Draft, 0, len(r.drafts))
	for _, d := range r.drafts {
		if !d.Posted {
			unposted = append(unposted, d)
		}
	}
	r.mu.Unlock()
	return r.store.SaveDrafts(unposted)
}

// nextID returns a fresh creation-timestamp id, bumped past the last
// one so two generations in the same millisecond cannot collide.
// Caller holds r.mu.
func (r *Reconciler) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}
