package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicebot/internal/domain"
	"github.com/PabloGalante/voicebot/internal/observability"
)

const defaultTimeout = 30 * time.Second

// Service turns reply text into audio.
type Service struct {
	client  domain.SpeechClient
	timeout time.Duration
	metrics *observability.Metrics
}

// NewService creates a speech service. A zero timeout uses the default.
func NewService(client domain.SpeechClient, timeout time.Duration, metrics *observability.Metrics) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &Service{
		client:  client,
		timeout: timeout,
		metrics: metrics,
	}
}

// Speak returns MP3 audio for text. Upstream failures are returned as-is;
// there is no fallback audio.
func (s *Service) Speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	audio, err := s.client.Synthesize(ctx, text)
	if err != nil {
		s.metrics.UpstreamErrorsTotal.WithLabelValues(domain.ServiceSpeech).Inc()
		log.Error("speech synthesis failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	log.Info("speech synthesized",
		"text_len", len(text),
		"audio_bytes", len(audio),
		"elapsed_ms", time.Since(start).Milliseconds())
	return audio, nil
}
