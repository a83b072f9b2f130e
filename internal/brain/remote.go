package brain

import (
	"context"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
)

// Remote generates tweet text through the backend's /generate endpoint.
// The default brain when no Gemini key is configured; unauthorized
// errors pass through so the reconciler can expire the session.
type Remote struct {
	Gateway *gateway.Client
}

func NewRemote(gw *gateway.Client) *Remote {
	return &Remote{Gateway: gw}
}

var _ ports.Brain = (*Remote)(nil)

func (r *Remote) Generate(ctx context.Context, topic string) (string, error) {
	return r.Gateway.Generate(ctx, topic)
}
