package config_test

import (
	"testing"
	"time"

	"github.com/PabloGalante/voicebot/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("VOICEBOT_LLM_PROVIDER", "")
	t.Setenv("VOICEBOT_STORAGE_BACKEND", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.LLMProvider != config.ProviderOpenAI {
		t.Errorf("expected openai provider, got %q", cfg.LLMProvider)
	}
	if cfg.ChatModel != "gpt-3.5-turbo" {
		t.Errorf("unexpected chat model %q", cfg.ChatModel)
	}
	if cfg.MaxTokens != 500 || cfg.Temperature != 0.7 || cfg.HistoryLimit != 10 {
		t.Errorf("unexpected generation defaults: %+v", cfg)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("expected 30s llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.StorageBackend != config.StorageMemory {
		t.Errorf("expected memory backend, got %q", cfg.StorageBackend)
	}
	if cfg.HasOpenAIKey() {
		t.Errorf("expected no api key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VOICEBOT_LLM_PROVIDER", "Gemini")
	t.Setenv("VOICEBOT_HISTORY_LIMIT", "4")
	t.Setenv("VOICEBOT_SESSION_TTL", "90m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8081" || !cfg.HasOpenAIKey() {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LLMProvider != config.ProviderGemini {
		t.Errorf("expected gemini, got %q", cfg.LLMProvider)
	}
	if cfg.HistoryLimit != 4 {
		t.Errorf("expected history limit 4, got %d", cfg.HistoryLimit)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("expected 90m ttl, got %s", cfg.SessionTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown provider":   {"VOICEBOT_LLM_PROVIDER": "llama"},
		"unknown backend":    {"VOICEBOT_STORAGE_BACKEND": "postgres"},
		"redis without url":  {"VOICEBOT_STORAGE_BACKEND": "redis", "REDIS_URL": ""},
		"firestore no proj":  {"VOICEBOT_STORAGE_BACKEND": "firestore", "VOICEBOT_GCP_PROJECT": ""},
		"bad int":            {"VOICEBOT_MAX_TOKENS": "lots"},
		"zero history limit": {"VOICEBOT_HISTORY_LIMIT": "0"},
		"bad duration":       {"VOICEBOT_LLM_TIMEOUT": "soon"},
		"hot temperature":    {"VOICEBOT_TEMPERATURE": "3.5"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
