package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/PabloGalante/voicebot/internal/app/conversation"
	speechapp "github.com/PabloGalante/voicebot/internal/app/speech"
	"github.com/PabloGalante/voicebot/internal/domain"
	"github.com/PabloGalante/voicebot/internal/observability"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

type Server struct {
	chat    *conversation.Service
	speech  *speechapp.Service
	metrics *observability.Metrics
}

func NewServer(chat *conversation.Service, speech *speechapp.Service, metrics *observability.Metrics) http.Handler {
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	s := &Server{chat: chat, speech: speech, metrics: metrics}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/speak", s.handleSpeak)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	// Applied inside out: withRequestID runs first.
	return chainMiddlewares(mux,
		withCORS,
		withRecover,
		withMetrics(metrics),
		withAccessLog,
		withRequestID,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Response     string         `json:"response"`
	Conversation []turnResponse `json:"conversation"`
}

type speakRequest struct {
	Text string `json:"text"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.chat.HandleMessage(r.Context(), conversation.HandleMessageInput{
		SessionID: domain.SessionID(req.SessionID),
		Text:      req.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			badRequest(w, "Message is required")
			return
		}
		internalError(w, r, "Failed to get response from AI", err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:     out.Reply.Text,
		Conversation: toTurnsResponse(out.Conversation),
	})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req speakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	audio, err := s.speech.Speak(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			badRequest(w, "Text is required")
			return
		}
		internalError(w, r, "Failed to generate speech", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "OK",
		Message: "Voice Bot is running",
	})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: string(t.Role), Content: t.Content})
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.LoggerFromContext(r.Context()).Error(msg, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   msg,
		Details: err.Error(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
