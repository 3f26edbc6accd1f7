package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PabloGalante/voicebot/internal/adapters/llm"
	"github.com/PabloGalante/voicebot/internal/domain"
)

type chatPayload struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func sampleRequest() domain.ChatRequest {
	return domain.ChatRequest{
		Model: "gpt-3.5-turbo",
		Messages: []domain.Turn{
			domain.SystemTurn("be yourself"),
			domain.UserTurn("hi"),
			domain.AssistantTurn("hello"),
			domain.UserTurn("what is your superpower?"),
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var got chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Listening, mostly."}}]
		}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})

	text, err := client.Complete(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "Listening, mostly." {
		t.Fatalf("unexpected text %q", text)
	}

	if got.Model != "gpt-3.5-turbo" || got.MaxTokens != 500 || got.Temperature != 0.7 {
		t.Errorf("unexpected parameters: %+v", got)
	}
	roles := make([]string, 0, len(got.Messages))
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Errorf("unexpected roles %v", roles)
	}
	if got.Messages[0].Content != "be yourself" {
		t.Errorf("system content not forwarded: %q", got.Messages[0].Content)
	}
}

func TestOpenAIClientWrapsFailuresWithoutRetrying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})

	_, err := client.Complete(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.Service != domain.ServiceLLM {
		t.Fatalf("expected llm upstream error, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if _, err := client.Complete(context.Background(), sampleRequest()); !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
