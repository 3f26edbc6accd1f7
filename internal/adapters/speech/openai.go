package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"

	"github.com/PabloGalante/voicebot/internal/adapters/llm"
	"github.com/PabloGalante/voicebot/internal/domain"
)

const (
	DefaultModel = "tts-1"
	DefaultVoice = "alloy"

	// maxAudioBytes caps how much audio is buffered for one request.
	maxAudioBytes = 25 << 20
)

type Config struct {
	llm.OpenAIConfig
	Model string
	Voice string
}

// OpenAIClient synthesizes MP3 audio with the OpenAI speech endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	return &OpenAIClient{
		client: openai.NewClient(cfg.RequestOptions()...),
		model:  cfg.Model,
		voice:  cfg.Voice,
	}
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, domain.NewUpstreamError(domain.ServiceSpeech, err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(res.Body, maxAudioBytes))
	if err != nil {
		return nil, domain.NewUpstreamError(domain.ServiceSpeech, fmt.Errorf("reading audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, domain.NewUpstreamError(domain.ServiceSpeech, errors.New("empty audio"))
	}
	return audio, nil
}
