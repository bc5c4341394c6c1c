package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets every config-relevant environment variable.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"HTTP_PORT", "BEARER_TOKEN", "TTS_ENGINE",
		"GOOGLE_CLOUD_API_KEY", "GOOGLE_TTS_ENDPOINT", "OPENAI_API_KEY",
		"SEGMENT_DELIMITER", "MAX_TEXT_LENGTH", "SUPPORTED_LANGUAGES",
		"DEFAULT_LANGUAGE", "DEFAULT_VOICE", "DEFAULT_SPEAKING_RATE",
		"DEFAULT_PITCH", "SYNTHESIS_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.Engine != EngineGoogle {
		t.Errorf("Engine = %s, want google", cfg.Engine)
	}
	if cfg.Delimiter != "。" {
		t.Errorf("Delimiter = %q, want 。", cfg.Delimiter)
	}
	if cfg.MaxTextLength != 5000 {
		t.Errorf("MaxTextLength = %d, want 5000", cfg.MaxTextLength)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "ja-JP" || cfg.Languages[1] != "en-US" {
		t.Errorf("Languages = %v, want [ja-JP en-US]", cfg.Languages)
	}
	if cfg.DefaultLanguage != "ja-JP" {
		t.Errorf("DefaultLanguage = %s, want ja-JP", cfg.DefaultLanguage)
	}
	if cfg.DefaultVoice != "ja-JP-Wavenet-A" {
		t.Errorf("DefaultVoice = %s, want ja-JP-Wavenet-A", cfg.DefaultVoice)
	}
	if cfg.DefaultSpeakingRate != 1.0 {
		t.Errorf("DefaultSpeakingRate = %v, want 1.0", cfg.DefaultSpeakingRate)
	}
	if cfg.DefaultPitch != 0 {
		t.Errorf("DefaultPitch = %v, want 0", cfg.DefaultPitch)
	}
	if cfg.SynthesisTimeout != 30*time.Second {
		t.Errorf("SynthesisTimeout = %v, want 30s", cfg.SynthesisTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %s, want text", cfg.LogFormat)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TTS_ENGINE", "openai")
	t.Setenv("SEGMENT_DELIMITER", ".")
	t.Setenv("MAX_TEXT_LENGTH", "200")
	t.Setenv("SUPPORTED_LANGUAGES", "en-US")
	t.Setenv("DEFAULT_LANGUAGE", "en-US")
	t.Setenv("DEFAULT_VOICE", "en-US-Wavenet-D")
	t.Setenv("SYNTHESIS_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.Engine != EngineOpenAI {
		t.Errorf("Engine = %s, want openai", cfg.Engine)
	}
	if cfg.Delimiter != "." {
		t.Errorf("Delimiter = %q, want .", cfg.Delimiter)
	}
	if cfg.MaxTextLength != 200 {
		t.Errorf("MaxTextLength = %d, want 200", cfg.MaxTextLength)
	}
	if cfg.DefaultVoice != "en-US-Wavenet-D" {
		t.Errorf("DefaultVoice = %s, want en-US-Wavenet-D", cfg.DefaultVoice)
	}
	if cfg.SynthesisTimeout != 5*time.Second {
		t.Errorf("SynthesisTimeout = %v, want 5s", cfg.SynthesisTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:            8080,
			Engine:              EngineGoogle,
			Delimiter:           "。",
			MaxTextLength:       5000,
			Languages:           []string{"ja-JP", "en-US"},
			DefaultLanguage:     "ja-JP",
			DefaultVoice:        "ja-JP-Wavenet-A",
			DefaultSpeakingRate: 1.0,
			DefaultPitch:        0,
			SynthesisTimeout:    30 * time.Second,
			LogLevel:            "info",
			LogFormat:           "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }, true},
		{"bad engine", func(c *Config) { c.Engine = "festival" }, true},
		{"empty delimiter", func(c *Config) { c.Delimiter = "" }, true},
		{"zero max length", func(c *Config) { c.MaxTextLength = 0 }, true},
		{"no languages", func(c *Config) { c.Languages = nil }, true},
		{"default language unsupported", func(c *Config) { c.DefaultLanguage = "fr-FR" }, true},
		{"voice prefix mismatch", func(c *Config) { c.DefaultVoice = "en-US-Wavenet-D" }, true},
		{"rate below range", func(c *Config) { c.DefaultSpeakingRate = 0.24 }, true},
		{"rate above range", func(c *Config) { c.DefaultSpeakingRate = 4.01 }, true},
		{"rate lower boundary", func(c *Config) { c.DefaultSpeakingRate = 0.25 }, false},
		{"rate upper boundary", func(c *Config) { c.DefaultSpeakingRate = 4.0 }, false},
		{"pitch out of range", func(c *Config) { c.DefaultPitch = 20.5 }, true},
		{"zero timeout", func(c *Config) { c.SynthesisTimeout = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSupportsLanguage(t *testing.T) {
	cfg := &Config{Languages: []string{"ja-JP", "en-US"}}

	if !cfg.SupportsLanguage("ja-JP") {
		t.Error("expected ja-JP to be supported")
	}
	if cfg.SupportsLanguage("fr-FR") {
		t.Error("expected fr-FR to be unsupported")
	}
}
