package speech

import (
	"context"
	"errors"

	"github.com/PabloGalante/voicebot/internal/domain"
)

var ErrNotConfigured = errors.New("speech synthesis not configured")

// UnavailableClient fails every request. Used when no API key is set.
type UnavailableClient struct{}

func (UnavailableClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return nil, domain.NewUpstreamError(domain.ServiceSpeech, ErrNotConfigured)
}
