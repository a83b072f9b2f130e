package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
)

const DefaultBaseURL = "http://localhost:8000"

// TokenSource supplies the current bearer credential, or "" when the
// session is anonymous.
type TokenSource interface {
	Token() string
}

// Client is the single request layer in front of the twitter-clone
// backend. Every call is normalized to success, ErrUnauthorized,
// *RemoteError or *NetworkError; nothing is retried here.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource

	// PublicOrigin marks the anonymous shared-feed deployment: posting
	// without a session goes to the public endpoint instead of failing.
	PublicOrigin bool

	// Mirror, when set, receives a best-effort copy of every
	// authenticated post. Its failures are logged and swallowed.
	Mirror *MirrorClient
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Tokens:     tokens,
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/login", false, authRequest{Username: username, Password: password}, &res)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// Signup registers a new account and returns its bearer token.
func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/signup", false, authRequest{Username: username, Password: password}, &res)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// Generate asks the backend for tweet text about a topic.
func (c *Client) Generate(ctx context.Context, topic string) (string, error) {
	var res generateResponse
	err := c.do(ctx, http.MethodPost, "/generate", true, generateRequest{Topic: topic}, &res)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Publish posts text and returns the server-assigned tweet id. The
// endpoint is chosen by session mode: authenticated goes to the private
// path (plus a best-effort mirror copy), anonymous on the public origin
// goes to the public path with no credential. Anonymous anywhere else
// has no posting path at all.
func (c *Client) Publish(ctx context.Context, text string) (int64, error) {
	if c.token() != "" {
		var res postResponse
		err := c.do(ctx, http.MethodPost, "/direct-post", true, postRequest{Content: text, Posted: true}, &res)
		if err != nil {
			return 0, err
		}
		c.mirrorPost(ctx, text)
		return res.Tweet.ID, nil
	}

	if c.PublicOrigin {
		var res postResponse
		err := c.do(ctx, http.MethodPost, "/public-post", false, postRequest{Content: text, Posted: true}, &res)
		if err != nil {
			return 0, err
		}
		return res.Tweet.ID, nil
	}

	return 0, fmt.Errorf("publish: %w", ErrUnauthorized)
}

// FetchMine returns the freshest snapshot of the user's own tweets.
// Callers replace their whole list; there is no incremental sync.
func (c *Client) FetchMine(ctx context.Context) ([]domain.RemoteTweet, error) {
	return c.fetchList(ctx, "/tweets", true)
}

// FetchPublic returns the freshest snapshot of the shared public feed.
func (c *Client) FetchPublic(ctx context.Context) ([]domain.RemoteTweet, error) {
	return c.fetchList(ctx, "/public-tweets", false)
}

func (c *Client) fetchList(ctx context.Context, path string, auth bool) ([]domain.RemoteTweet, error) {
	var raw []apiTweet
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &raw); err != nil {
		return nil, err
	}
	tweets := make([]domain.RemoteTweet, 0, len(raw))
	for _, t := range raw {
		tweets = append(tweets, t.toDomain())
	}
	return tweets, nil
}

func (c *Client) mirrorPost(ctx context.Context, text string) {
	if c.Mirror == nil {
		return
	}
	username := ""
	if c.Tokens != nil {
		if named, ok := c.Tokens.(interface{ Username() string }); ok {
			username = named.Username()
		}
	}
	if err := c.Mirror.Post(ctx, username, text); err != nil {
		log.Printf("mirror post failed (ignored): %v", err)
	}
}

func (c *Client) token() string {
	if c.Tokens == nil {
		return ""
	}
	return c.Tokens.Token()
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// readErrorMessage pulls a human-readable message out of an error body.
// The backend uses "detail", the external mirror uses "message".
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var envelope struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(bytes.TrimSpace(raw))
}
