package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

func sample() []domain.RemoteTweet {
	return []domain.RemoteTweet{
		{ID: 1, Author: "a", Text: "Cats are great #cats"},
		{ID: 2, Author: "b", Text: "Dogs drool"},
		{ID: 3, Author: "c", Text: "I love CATS and dogs"},
	}
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []int64
	}{
		{"lowercase", "cats", []int64{1, 3}},
		{"uppercase", "CATS", []int64{1, 3}},
		{"mixed", "dOgS", []int64{2, 3}},
		{"substring", "rool", []int64{2}},
		{"empty term returns all", "", []int64{1, 2, 3}},
		{"no match is valid", "birds", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample(), tt.term)
			ids := make([]int64, 0, len(got))
			for _, tw := range got {
				ids = append(ids, tw.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := sample()
	Filter(in, "cats")
	assert.Equal(t, sample(), in)
}

func TestReplaceIsWholesale(t *testing.T) {
	a := NewAggregator()
	a.ReplacePublic(sample())
	a.ReplacePublic([]domain.RemoteTweet{{ID: 9, Text: "only me"}})

	got := a.Public()
	assert.Len(t, got, 1)
	assert.EqualValues(t, 9, got[0].ID)
}

func TestAppendMineAndReset(t *testing.T) {
	a := NewAggregator()
	a.ReplaceMine(sample()[:1])
	a.AppendMine(domain.RemoteTweet{ID: 4, Author: "me", Text: "just posted"})
	assert.Len(t, a.Mine(), 2)

	a.ResetMine()
	assert.Empty(t, a.Mine(), "logout leaves no stale private view")
}

func TestAccessorsReturnCopies(t *testing.T) {
	a := NewAggregator()
	a.ReplaceMine(sample())

	got := a.Mine()
	got[0].Text = "mutated"
	assert.Equal(t, "Cats are great #cats", a.Mine()[0].Text)
}
