package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/PabloGalante/voicebot/internal/adapters/http"
	"github.com/PabloGalante/voicebot/internal/adapters/llm"
	"github.com/PabloGalante/voicebot/internal/adapters/speech"
	firestorestore "github.com/PabloGalante/voicebot/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/voicebot/internal/adapters/storage/memory"
	redisstore "github.com/PabloGalante/voicebot/internal/adapters/storage/redis"
	"github.com/PabloGalante/voicebot/internal/app/conversation"
	speechapp "github.com/PabloGalante/voicebot/internal/app/speech"
	"github.com/PabloGalante/voicebot/internal/config"
	"github.com/PabloGalante/voicebot/internal/domain"
	"github.com/PabloGalante/voicebot/internal/observability"
)

func main() {
	log := observability.Logger()

	// A missing .env is fine; real deployments use the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("")

	llmClient, chatModel, err := newLLMClient(ctx, cfg)
	if err != nil {
		log.Error("error initializing LLM client", "error", err)
		os.Exit(1)
	}

	sessionStore, closeStore, err := newSessionStore(ctx, cfg, metrics)
	if err != nil {
		log.Error("error initializing session store", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			log.Warn("error closing session store", "error", err)
		}
	}()

	temperature := cfg.Temperature
	chatSvc := conversation.NewService(llmClient, sessionStore, conversation.Options{
		Persona:          llm.PersonaOrDefault(cfg.PersonaPrompt),
		Model:            chatModel,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      &temperature,
		HistoryLimit:     cfg.HistoryLimit,
		MaxContextTokens: cfg.MaxContextTokens,
		LLMTimeout:       cfg.LLMTimeout,
		Metrics:          metrics,
	})

	speechSvc := speechapp.NewService(newSpeechClient(cfg), cfg.SpeechTimeout, metrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(chatSvc, speechSvc, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("voice bot listening",
			"port", cfg.Port,
			"llm_provider", cfg.LLMProvider,
			"storage_backend", cfg.StorageBackend,
			"openai_key_configured", cfg.HasOpenAIKey())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", "grace", cfg.ShutdownGrace.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// newLLMClient picks the provider and returns the model name the
// orchestrator should request.
func newLLMClient(ctx context.Context, cfg *config.Config) (domain.LLMClient, string, error) {
	log := observability.Logger()

	switch cfg.LLMProvider {
	case config.ProviderMock:
		log.Info("using mock LLM client")
		return llm.NewMockLLM(), cfg.ChatModel, nil

	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" && cfg.GCPProjectID == "" {
			log.Warn("gemini selected without GEMINI_API_KEY or VOICEBOT_GCP_PROJECT, replies will use fallbacks")
			return llm.NewUnavailableClient(nil), cfg.GeminiModel, nil
		}
		log.Info("using Gemini LLM client", "model", cfg.GeminiModel)
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.GeminiModel,
		})
		if err != nil {
			return nil, "", err
		}
		return client, cfg.GeminiModel, nil

	default:
		if !cfg.HasOpenAIKey() {
			log.Warn("OPENAI_API_KEY not set, replies will use fallbacks")
			return llm.NewUnavailableClient(nil), cfg.ChatModel, nil
		}
		log.Info("using OpenAI LLM client", "model", cfg.ChatModel)
		return llm.NewOpenAIClient(openAIConfig(cfg)), cfg.ChatModel, nil
	}
}

func newSpeechClient(cfg *config.Config) domain.SpeechClient {
	if !cfg.HasOpenAIKey() {
		observability.Logger().Warn("OPENAI_API_KEY not set, speech synthesis disabled")
		return speech.UnavailableClient{}
	}
	return speech.NewOpenAIClient(speech.Config{
		OpenAIConfig: openAIConfig(cfg),
		Model:        cfg.TTSModel,
		Voice:        cfg.TTSVoice,
	})
}

func openAIConfig(cfg *config.Config) llm.OpenAIConfig {
	return llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newSessionStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (domain.SessionStore, io.Closer, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageRedis:
		log.Info("using redis storage")
		store, err := redisstore.NewStoreFromURL(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store, nil

	case config.StorageFirestore:
		log.Info("using Firestore storage", "project", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	default:
		log.Info("using in-memory storage", "max_sessions", cfg.MaxSessions, "ttl", cfg.SessionTTL.String())
		store := memstore.NewSessionStore(
			memstore.WithMaxSessions(cfg.MaxSessions),
			memstore.WithTTL(cfg.SessionTTL),
			memstore.WithEvictionHook(func(id domain.SessionID, turns int) {
				metrics.SessionsEvictedTotal.Inc()
			}),
		)
		return store, nopCloser{}, nil
	}
}
