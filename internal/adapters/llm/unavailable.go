package llm

import (
	"context"
	"errors"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// ErrNotConfigured is reported when no credentials are available.
var ErrNotConfigured = errors.New("language model not configured")

// UnavailableClient always fails. It stands in for a provider without
// credentials so chat keeps working on fallback replies.
type UnavailableClient struct {
	Reason error
}

func NewUnavailableClient(reason error) *UnavailableClient {
	if reason == nil {
		reason = ErrNotConfigured
	}
	return &UnavailableClient{Reason: reason}
}

func (c *UnavailableClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	return "", domain.NewUpstreamError(domain.ServiceLLM, c.Reason)
}
