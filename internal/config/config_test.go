package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	t.Setenv("AI_WEBHOOK_URL", "http://localhost:5678/webhook/chat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.AIProvider != "webhook" {
		t.Errorf("AIProvider = %q, want webhook", cfg.AIProvider)
	}
	if cfg.QueuePoll != 5*time.Second {
		t.Errorf("QueuePoll = %v, want 5s", cfg.QueuePoll)
	}
	if cfg.RevealInterval != 30*time.Millisecond {
		t.Errorf("RevealInterval = %v, want 30ms", cfg.RevealInterval)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadAIProviderValidation(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		webhook  string
		key      string
		wantErr  bool
	}{
		{"webhook without url", "webhook", "", "", true},
		{"webhook with url", "webhook", "http://localhost:5678/chat", "", false},
		{"openai without key", "openai", "", "", true},
		{"openai with key", "openai", "", "sk-test", false},
		{"unknown provider", "llamafile", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
			t.Setenv("AI_PROVIDER", tt.provider)
			t.Setenv("AI_WEBHOOK_URL", tt.webhook)
			t.Setenv("OPENAI_API_KEY", tt.key)

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
