package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LLMProvider != "auto" {
		t.Errorf("expected default LLM provider auto, got %s", cfg.LLMProvider)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Errorf("unexpected default gemini model: %s", cfg.GeminiModelID)
	}
	if cfg.ChatHistoryLimit != 20 {
		t.Errorf("expected default history limit 20, got %d", cfg.ChatHistoryLimit)
	}
	if cfg.ChatHistoryTTL != 24*time.Hour {
		t.Errorf("expected default history TTL 24h, got %s", cfg.ChatHistoryTTL)
	}
	if cfg.EmailProvider != "stub" {
		t.Errorf("expected default email provider stub, got %s", cfg.EmailProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_PROVIDER", "Bedrock")
	t.Setenv("CHAT_HISTORY_LIMIT", "5")
	t.Setenv("CHAT_HISTORY_TTL", "1h")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.juvo.health, https://staging.juvo.health")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.LLMProvider != "bedrock" {
		t.Errorf("expected provider lowercased to bedrock, got %s", cfg.LLMProvider)
	}
	if cfg.ChatHistoryLimit != 5 {
		t.Errorf("expected history limit 5, got %d", cfg.ChatHistoryLimit)
	}
	if cfg.ChatHistoryTTL != time.Hour {
		t.Errorf("expected history TTL 1h, got %s", cfg.ChatHistoryTTL)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.juvo.health" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "not-a-number")
	t.Setenv("CHAT_HISTORY_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")

	cfg := Load()

	if cfg.ChatHistoryLimit != 20 {
		t.Errorf("expected fallback history limit 20, got %d", cfg.ChatHistoryLimit)
	}
	if cfg.ChatHistoryTTL != 24*time.Hour {
		t.Errorf("expected fallback history TTL 24h, got %s", cfg.ChatHistoryTTL)
	}
	if cfg.RedisTLS {
		t.Error("expected fallback RedisTLS false")
	}
}
