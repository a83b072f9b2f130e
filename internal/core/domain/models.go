package domain

import "time"

// MaxTweetLen is the hard character limit enforced before any post call.
const MaxTweetLen = 280

// Draft represents one AI-generated tweet in the canonical list.
// ID is the creation timestamp in milliseconds; it is assigned once and
// never reused, so at most one draft with a given ID exists at any time.
type Draft struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Posted bool   `json:"posted"`
}

// Mode tells callers which gateway path to use.
type Mode string

const (
	ModeAuthenticated Mode = "authenticated"
	ModeAnonymous     Mode = "anonymous"
)

// Session holds the current bearer credential. Token and Username are
// both present or both absent; a partial pair is never stored.
type Session struct {
	Token    string
	Username string
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.Username != ""
}

// RemoteTweet is a read-only projection of a tweet fetched from either
// the private or public listing endpoint. It is never mutated locally,
// only replaced wholesale on refetch.
type RemoteTweet struct {
	ID       int64
	Author   string
	Text     string
	PostedAt time.Time
	Likes    int
	Retweets int
	Comments int
}

// Message is one transcript entry of the generation dialogue.
type Message struct {
	Role string // "user" or "agent"
	Text string
}
