package gateway

import (
	"time"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

type generateRequest struct {
	Topic string `json:"topic"`
}

type generateResponse struct {
	Content string `json:"content"`
}

type postRequest struct {
	Content string `json:"content"`
	Posted  bool   `json:"posted"`
}

type postResponse struct {
	Tweet apiTweet `json:"tweet"`
}

type mirrorRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// apiTweet is the wire shape of a tweet. Older server versions send the
// body under "text", newer ones under "content"; both normalize into
// RemoteTweet.Text here at the boundary, never downstream.
type apiTweet struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Likes     int    `json:"likes"`
	Retweets  int    `json:"retweets"`
	Comments  int    `json:"comments"`
}

func (t apiTweet) body() string {
	if t.Content != "" {
		return t.Content
	}
	return t.Text
}

func (t apiTweet) toDomain() domain.RemoteTweet {
	postedAt, _ := time.Parse(time.RFC3339, t.Timestamp)
	return domain.RemoteTweet{
		ID:       t.ID,
		Author:   t.Username,
		Text:     t.body(),
		PostedAt: postedAt,
		Likes:    t.Likes,
		Retweets: t.Retweets,
		Comments: t.Comments,
	}
}
