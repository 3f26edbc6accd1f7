package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicebot/internal/domain"
	"github.com/PabloGalante/voicebot/internal/observability"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
	defaultLLMTimeout  = 30 * time.Second

	// snapshotLimit is how many turns HandleMessage returns to the caller.
	snapshotLimit = 10
)

// Options configures a Service. Zero values fall back to the defaults above.
type Options struct {
	Persona          string
	Model            string
	MaxTokens        int
	Temperature      *float64
	HistoryLimit     int
	MaxContextTokens int
	LLMTimeout       time.Duration
	Fallbacks        FallbackTable
	Metrics          *observability.Metrics
}

type Service struct {
	llm     domain.LLMClient
	store   domain.SessionStore
	opts    Options
	locks   *sessionLocks
	metrics *observability.Metrics
}

func NewService(llm domain.LLMClient, store domain.SessionStore, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == nil {
		t := defaultTemperature
		opts.Temperature = &t
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = defaultLLMTimeout
	}
	if len(opts.Fallbacks) == 0 {
		opts.Fallbacks = DefaultFallbackTable()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}

	return &Service{
		llm:     llm,
		store:   store,
		opts:    opts,
		locks:   newSessionLocks(),
		metrics: metrics,
	}
}

type HandleMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type HandleMessageOutput struct {
	Reply Reply
	// Conversation is the last turns of the session after the reply was stored.
	Conversation []domain.Turn
}

// HandleMessage stores the user's turn, asks the language model for a reply
// (or picks a canned one when it fails), stores that reply and returns it.
//
// Requests for the same session are serialized, so each user turn is
// immediately followed by its assistant turn. Upstream failures never
// surface as errors; only invalid input and store failures do.
func (s *Service) HandleMessage(ctx context.Context, in HandleMessageInput) (*HandleMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("session_id", in.SessionID)
	log.Info("handling message", "text_len", len(in.Text))

	unlock := s.locks.lock(in.SessionID)
	defer unlock()

	if _, err := s.store.GetOrCreate(ctx, in.SessionID); err != nil {
		log.Error("failed to get or create session", "error", err)
		return nil, fmt.Errorf("get or create session: %w", err)
	}

	if err := s.store.AppendTurn(ctx, in.SessionID, domain.UserTurn(in.Text)); err != nil {
		log.Error("failed to append user turn", "error", err)
		return nil, fmt.Errorf("append user turn: %w", err)
	}

	// The user turn is stored; from here on the assistant turn must be stored
	// too, even if the caller goes away.
	storeCtx := context.WithoutCancel(ctx)

	history, err := s.store.RecentTurns(storeCtx, in.SessionID, s.opts.HistoryLimit)
	if err != nil {
		log.Warn("failed to load history, continuing with current turn only", "error", err)
		history = []domain.Turn{domain.UserTurn(in.Text)}
	}

	messages := BuildContext(history, s.opts.Persona, ContextOptions{
		HistoryLimit: s.opts.HistoryLimit,
		MaxTokens:    s.opts.MaxContextTokens,
	})

	reply := s.generate(ctx, in.Text, messages)

	if err := s.store.AppendTurn(storeCtx, in.SessionID, domain.AssistantTurn(reply.Text)); err != nil {
		log.Error("failed to append assistant turn", "error", err)
		return nil, fmt.Errorf("append assistant turn: %w", err)
	}

	conversation, err := s.store.RecentTurns(storeCtx, in.SessionID, snapshotLimit)
	if err != nil {
		log.Error("failed to load conversation snapshot", "error", err)
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	s.metrics.RepliesTotal.WithLabelValues(string(reply.Source)).Inc()
	log.Info("message handled", "reply_source", reply.Source, "turns", len(conversation))

	return &HandleMessageOutput{
		Reply:        reply,
		Conversation: conversation,
	}, nil
}

// generate makes a single, time-bounded model call and absorbs any failure
// into a fallback reply.
func (s *Service) generate(ctx context.Context, userText string, messages []domain.Turn) Reply {
	log := observability.LoggerFromContext(ctx)

	llmCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.llm.Complete(llmCtx, domain.ChatRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: *s.opts.Temperature,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.NewUpstreamError(domain.ServiceLLM, errors.New("empty completion"))
	}

	if err != nil {
		entry := s.opts.Fallbacks.Select(userText)
		s.metrics.UpstreamErrorsTotal.WithLabelValues(domain.ServiceLLM).Inc()
		log.Warn("llm call failed, using fallback reply",
			"error", err,
			"fallback_topic", entry.Keyword,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Fallback(entry.Reply, err)
	}

	log.Info("llm reply received", "elapsed_ms", time.Since(start).Milliseconds())
	return Generated(text)
}
