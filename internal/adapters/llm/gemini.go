package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/voicebot/internal/domain"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	// APIKey selects the Gemini API backend; without it Vertex AI is used
	// with Project and Location.
	APIKey   string
	Project  string
	Location string
	Model    string
	BaseURL  string // optional override, mostly for tests
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates an LLMClient based on Gemini, either through the
// Gemini API or Vertex AI.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	} else {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("gemini needs an API key or a GCP project and location")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements domain.LLMClient using Gemini.
func (g *GeminiClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	// System turns become the system instruction; the rest is the conversation.
	var (
		system   []string
		contents []*genai.Content
	)
	for _, t := range req.Messages {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, t.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}

	temp := float32(req.Temperature)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if len(system) > 0 {
		// According to official examples, the role here is usually RoleUser, not "system"
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	model := g.modelName
	if strings.HasPrefix(req.Model, "gemini") {
		model = req.Model
	}

	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", domain.NewUpstreamError(domain.ServiceLLM, fmt.Errorf("gemini generate content: %w", err))
	}

	// EXTRACT ONLY THE TEXT, do not print the structs
	text := res.Text()
	if text == "" {
		return "", domain.NewUpstreamError(domain.ServiceLLM, fmt.Errorf("gemini returned empty text"))
	}

	return text, nil
}
