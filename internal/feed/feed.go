// Package feed keeps the two display lists of remote tweets. Lists are
// replaced wholesale on every successful fetch; filtering is a pure
// re-derivation over the latest snapshot.
package feed

import (
	"strings"
	"sync"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

type Aggregator struct {
	mu     sync.RWMutex
	mine   []domain.RemoteTweet
	public []domain.RemoteTweet
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) ReplaceMine(tweets []domain.RemoteTweet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mine = append([]domain.RemoteTweet(nil), tweets...)
}

func (a *Aggregator) ReplacePublic(tweets []domain.RemoteTweet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.public = append([]domain.RemoteTweet(nil), tweets...)
}

// AppendMine records a freshly confirmed publish without waiting for
// the next fetch.
func (a *Aggregator) AppendMine(tweet domain.RemoteTweet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mine = append(a.mine, tweet)
}

// ResetMine drops the private view on logout.
func (a *Aggregator) ResetMine() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mine = nil
}

func (a *Aggregator) Mine() []domain.RemoteTweet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.RemoteTweet(nil), a.mine...)
}

func (a *Aggregator) Public() []domain.RemoteTweet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.RemoteTweet(nil), a.public...)
}

// Filter returns the subsequence whose text contains term,
// case-insensitive. An empty result is a valid displayable state.
func Filter(tweets []domain.RemoteTweet, term string) []domain.RemoteTweet {
	if term == "" {
		return append([]domain.RemoteTweet(nil), tweets...)
	}
	needle := strings.ToLower(term)
	matched := make([]domain.RemoteTweet, 0, len(tweets))
	for _, t := range tweets {
		if strings.Contains(strings.ToLower(t.Text), needle) {
			matched = append(matched, t)
		}
	}
	return matched
}
