package domain

import "context"

// ChatRequest is the bounded payload sent to a language model.
type ChatRequest struct {
	Model       string
	Messages    []Turn
	MaxTokens   int
	Temperature float64
}

// LLMClient defines how the core application interacts with an LLM service.
// Implementations are stateless and safe for concurrent use.
type LLMClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// SpeechClient turns text into encoded audio (MP3).
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SessionStore owns every session and its turn sequence.
type SessionStore interface {
	// GetOrCreate returns the session for id, registering an empty one if
	// absent. Concurrent calls for the same unseen id create exactly one.
	GetOrCreate(ctx context.Context, id SessionID) (*Session, error)

	// AppendTurn appends to the session's turns. Returns ErrSessionNotFound
	// if GetOrCreate was not called first (or the session was evicted).
	AppendTurn(ctx context.Context, id SessionID, turn Turn) error

	// RecentTurns returns at most limit turns, the most recent ones, in
	// chronological order.
	RecentTurns(ctx context.Context, id SessionID, limit int) ([]Turn, error)
}
