package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
	ProviderMock   LLMProvider = "mock"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageRedis     StorageBackend = "redis"
	StorageFirestore StorageBackend = "firestore"
)

type Config struct {
	Port string

	OpenAIAPIKey  string
	OpenAIBaseURL string // empty = SDK default

	LLMProvider      LLMProvider
	ChatModel        string
	MaxTokens        int
	Temperature      float64
	HistoryLimit     int
	MaxContextTokens int // 0 = no token budget
	LLMTimeout       time.Duration

	GeminiAPIKey string
	GeminiModel  string

	TTSModel      string
	TTSVoice      string
	SpeechTimeout time.Duration

	// Empty means the built-in persona.
	PersonaPrompt string

	StorageBackend StorageBackend
	MaxSessions    int
	SessionTTL     time.Duration
	RedisURL       string
	GCPProjectID   string
	GCPLocation    string

	ShutdownGrace time.Duration
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "3000"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		LLMProvider: LLMProvider(strings.ToLower(getEnv("VOICEBOT_LLM_PROVIDER", string(ProviderOpenAI)))),
		ChatModel:   getEnv("VOICEBOT_CHAT_MODEL", "gpt-3.5-turbo"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("VOICEBOT_GEMINI_MODEL", "gemini-2.5-flash"),

		TTSModel: getEnv("VOICEBOT_TTS_MODEL", "tts-1"),
		TTSVoice: getEnv("VOICEBOT_TTS_VOICE", "alloy"),

		PersonaPrompt: os.Getenv("VOICEBOT_PERSONA_PROMPT"),

		StorageBackend: StorageBackend(strings.ToLower(getEnv("VOICEBOT_STORAGE_BACKEND", string(StorageMemory)))),
		RedisURL:       getEnv("REDIS_URL", ""),
		GCPProjectID:   getEnv("VOICEBOT_GCP_PROJECT", ""),
		GCPLocation:    getEnv("VOICEBOT_GCP_LOCATION", "us-central1"),
	}

	var err error
	if cfg.MaxTokens, err = getIntEnv("VOICEBOT_MAX_TOKENS", 500); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = getFloatEnv("VOICEBOT_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getIntEnv("VOICEBOT_HISTORY_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.MaxContextTokens, err = getIntEnv("VOICEBOT_MAX_CONTEXT_TOKENS", 0); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDurationEnv("VOICEBOT_LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SpeechTimeout, err = getDurationEnv("VOICEBOT_SPEECH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxSessions, err = getIntEnv("VOICEBOT_MAX_SESSIONS", 10_000); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDurationEnv("VOICEBOT_SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = getDurationEnv("VOICEBOT_SHUTDOWN_GRACE", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("VOICEBOT_LLM_PROVIDER must be one of openai|gemini|mock, got %q", c.LLMProvider)
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage backend")
		}
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("VOICEBOT_GCP_PROJECT is required for the firestore storage backend")
		}
	default:
		return fmt.Errorf("VOICEBOT_STORAGE_BACKEND must be one of memory|redis|firestore, got %q", c.StorageBackend)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("VOICEBOT_MAX_TOKENS must be > 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("VOICEBOT_TEMPERATURE must be within [0, 2]")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("VOICEBOT_HISTORY_LIMIT must be > 0")
	}
	if c.MaxContextTokens < 0 {
		return fmt.Errorf("VOICEBOT_MAX_CONTEXT_TOKENS must be >= 0")
	}
	if c.LLMTimeout <= 0 || c.SpeechTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be > 0")
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("VOICEBOT_MAX_SESSIONS must be >= 0")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("VOICEBOT_SESSION_TTL must be >= 0")
	}
	return nil
}

// HasOpenAIKey reports whether real OpenAI calls can be made.
func (c *Config) HasOpenAIKey() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}
