package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	httpadapter "github.com/PabloGalante/voicebot/internal/adapters/http"
	"github.com/PabloGalante/voicebot/internal/adapters/llm"
	"github.com/PabloGalante/voicebot/internal/adapters/speech"
	"github.com/PabloGalante/voicebot/internal/adapters/storage/memory"
	"github.com/PabloGalante/voicebot/internal/app/conversation"
	speechapp "github.com/PabloGalante/voicebot/internal/app/speech"
	"github.com/PabloGalante/voicebot/internal/domain"
	"github.com/PabloGalante/voicebot/internal/observability"
)

func TestMain(m *testing.M) {
	observability.SetOutput(io.Discard, slog.LevelError)
	os.Exit(m.Run())
}

type failingLLM struct{}

func (failingLLM) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	return "", domain.NewUpstreamError(domain.ServiceLLM, errors.New("401 unauthorized"))
}

type fakeSpeech struct {
	audio []byte
}

func (f fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, nil
}

type failingStore struct {
	*memory.SessionStore
}

func (failingStore) AppendTurn(ctx context.Context, id domain.SessionID, turn domain.Turn) error {
	return errors.New("disk on fire")
}

type testEnv struct {
	handler http.Handler
	store   *memory.SessionStore
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, llmClient domain.LLMClient, speechClient domain.SpeechClient) *testEnv {
	t.Helper()

	metrics := observability.NewMetrics("test")
	store := memory.NewSessionStore()

	chat := conversation.NewService(llmClient, store, conversation.Options{
		Persona: llm.DefaultPersonaPrompt,
		Metrics: metrics,
	})
	speak := speechapp.NewService(speechClient, 0, metrics)

	return &testEnv{
		handler: httpadapter.NewServer(chat, speak, metrics),
		store:   store,
		metrics: metrics,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type chatBody struct {
	Response     string `json:"response"`
	Conversation []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"conversation"`
}

func TestHealth(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})
	w := do(t, env.handler, http.MethodGet, "/api/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "OK" || body["message"] == "" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestChatFallsBackWhenModelFails(t *testing.T) {
	env := newTestServer(t, failingLLM{}, fakeSpeech{})

	w := do(t, env.handler, http.MethodPost, "/api/chat",
		`{"message":"What's your #1 superpower?","sessionId":"s1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var body chatBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := conversation.DefaultFallbackTable().Select("superpower").Reply
	if body.Response != want {
		t.Fatalf("expected superpower fallback, got %q", body.Response)
	}
	if len(body.Conversation) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(body.Conversation))
	}
	if body.Conversation[0].Role != "user" || body.Conversation[1].Role != "assistant" {
		t.Fatalf("unexpected roles %+v", body.Conversation)
	}
	if body.Conversation[1].Content != want {
		t.Fatalf("stored assistant turn differs from response")
	}

	if got := testutil.ToFloat64(env.metrics.RepliesTotal.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("expected 1 fallback reply counted, got %v", got)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})

	for _, body := range []string{`{"message":"","sessionId":"s2"}`, `{"sessionId":"s2"}`, `{"message":"   ","sessionId":"s2"}`} {
		w := do(t, env.handler, http.MethodPost, "/api/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, w.Code)
		}
		var resp map[string]string
		_ = json.NewDecoder(w.Body).Decode(&resp)
		if resp["error"] != "Message is required" {
			t.Fatalf("unexpected error body %v", resp)
		}
	}

	if n := env.store.Len(); n != 0 {
		t.Fatalf("expected no session to be created, got %d", n)
	}
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})
	w := do(t, env.handler, http.MethodPost, "/api/chat", `{"message":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatKeepsLastTenTurns(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})

	var body chatBody
	for i := 0; i < 7; i++ {
		w := do(t, env.handler, http.MethodPost, "/api/chat", `{"message":"tell me more","sessionId":"long"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
		body = chatBody{}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}

	if len(body.Conversation) != 10 {
		t.Fatalf("expected 10 turns in snapshot, got %d", len(body.Conversation))
	}
	if body.Conversation[9].Role != "assistant" || body.Conversation[9].Content != body.Response {
		t.Fatalf("last turn should be the reply")
	}
}

func TestChatStoreFailureReturns500WithDetails(t *testing.T) {
	metrics := observability.NewMetrics("test")
	store := failingStore{memory.NewSessionStore()}
	chat := conversation.NewService(llm.NewMockLLM(), store, conversation.Options{Metrics: metrics})
	h := httpadapter.NewServer(chat, speechapp.NewService(fakeSpeech{}, 0, metrics), metrics)

	w := do(t, h, http.MethodPost, "/api/chat", `{"message":"hi","sessionId":"s"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "Failed to get response from AI" || !strings.Contains(body["details"], "disk on fire") {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})
	w := do(t, env.handler, http.MethodGet, "/api/chat", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestSpeakReturnsAudio(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x90, 0x64}
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{audio: audio})

	w := do(t, env.handler, http.MethodPost, "/api/speak", `{"text":"Hello there"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", ct)
	}
	if cl := w.Header().Get("Content-Length"); cl != "4" {
		t.Fatalf("expected Content-Length 4, got %q", cl)
	}
	if !bytes.Equal(w.Body.Bytes(), audio) {
		t.Fatalf("unexpected body %v", w.Body.Bytes())
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{audio: []byte{1}})
	w := do(t, env.handler, http.MethodPost, "/api/speak", `{"text":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSpeakWithoutCredentialsReturns500(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), speech.UnavailableClient{})

	w := do(t, env.handler, http.MethodPost, "/api/speak", `{"text":"Hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "Failed to generate speech" || body["details"] == "" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	w = do(t, env.handler, http.MethodGet, "/api/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})
	w := do(t, env.handler, http.MethodOptions, "/api/chat", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t, llm.NewMockLLM(), fakeSpeech{})
	do(t, env.handler, http.MethodGet, "/api/health", "")

	w := do(t, env.handler, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `test_http_requests_total{route="/api/health",status="200"} 1`) {
		t.Fatalf("request counter missing from exposition:\n%s", w.Body.String())
	}
}
