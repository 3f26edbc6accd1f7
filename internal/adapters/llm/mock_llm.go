package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// MockLLM answers without any network call. Handy for local development.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.NewUpstreamError(domain.ServiceLLM, err)
	}

	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("That's a good question. You asked %q, and honestly I'm still figuring out my answer to it.", last), nil
}
