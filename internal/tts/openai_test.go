package tts

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestNewOpenAIEngineRequiresKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewOpenAIEngine(OpenAIConfig{}, logger); !errors.Is(err, ErrNoOpenAIKey) {
		t.Errorf("expected ErrNoOpenAIKey, got %v", err)
	}
}

func TestOpenAIMapVoice(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := NewOpenAIEngine(OpenAIConfig{APIKey: "test-key"}, logger)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	tests := []struct {
		name  string
		voice string
		want  string
	}{
		{"bare voice", "nova", "nova"},
		{"uppercase", "Nova", "nova"},
		{"language prefixed", "ja-JP-nova", "nova"},
		{"google wavenet name", "ja-JP-Wavenet-A", "alloy"},
		{"empty", "", "alloy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.mapVoice(tt.voice); got != tt.want {
				t.Errorf("mapVoice(%q) = %q, want %q", tt.voice, got, tt.want)
			}
		})
	}
}
