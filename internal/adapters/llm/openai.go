package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// OpenAIConfig is shared by the chat and speech adapters.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, e.g. a proxy or a test server
}

// RequestOptions builds SDK options with retries disabled: every request
// gets exactly one upstream attempt.
func (c OpenAIConfig) RequestOptions() []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithMaxRetries(0),
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	return opts
}

type OpenAIClient struct {
	client openai.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(cfg.RequestOptions()...),
	}
}

// Complete implements domain.LLMClient using chat completions.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, t := range req.Messages {
		switch t.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", domain.NewUpstreamError(domain.ServiceLLM, err)
	}
	if len(completion.Choices) == 0 {
		return "", domain.NewUpstreamError(domain.ServiceLLM, errors.New("completion has no choices"))
	}

	return completion.Choices[0].Message.Content, nil
}
