package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const DefaultMirrorBaseURL = "https://twitterclone-server-2xz2.onrender.com"

// MirrorClient posts to the external shared twitter-clone service. It is
// non-authoritative: a publish succeeds or fails on the primary call
// alone, the mirror only receives a copy.
type MirrorClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewMirrorClient(baseURL, apiKey string) *MirrorClient {
	if baseURL == "" {
		baseURL = DefaultMirrorBaseURL
	}
	return &MirrorClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

// Username derives the mirror account name from the api key's prefix
// before the first underscore.
func (m *MirrorClient) Username() string {
	if m.APIKey == "" {
		return ""
	}
	return strings.SplitN(m.APIKey, "_", 2)[0]
}

// Post sends one tweet to the mirror. An empty username falls back to
// the key-derived account name.
func (m *MirrorClient) Post(ctx context.Context, username, text string) error {
	if m.APIKey == "" {
		return fmt.Errorf("mirror: api key not configured")
	}
	if username == "" {
		username = m.Username()
	}

	payload, err := json.Marshal(mirrorRequest{Username: username, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/post_tweet", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.APIKey)

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "POST /post_tweet", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return nil
}
