package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Engine names accepted by TTS_ENGINE.
const (
	EngineGoogle = "google"
	EngineOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	// HTTP settings
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	BearerToken string `env:"BEARER_TOKEN"`

	// TTS settings
	Engine         string `env:"TTS_ENGINE" envDefault:"google"`
	GoogleAPIKey   string `env:"GOOGLE_CLOUD_API_KEY"`
	GoogleEndpoint string `env:"GOOGLE_TTS_ENDPOINT" envDefault:"https://texttospeech.googleapis.com/v1/text:synthesize"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`

	// Segmentation and validation settings
	Delimiter     string   `env:"SEGMENT_DELIMITER" envDefault:"。"`
	MaxTextLength int      `env:"MAX_TEXT_LENGTH" envDefault:"5000"`
	Languages     []string `env:"SUPPORTED_LANGUAGES" envSeparator:"," envDefault:"ja-JP,en-US"`

	// Default voice settings for new sessions
	DefaultLanguage     string  `env:"DEFAULT_LANGUAGE" envDefault:"ja-JP"`
	DefaultVoice        string  `env:"DEFAULT_VOICE" envDefault:"ja-JP-Wavenet-A"`
	DefaultSpeakingRate float64 `env:"DEFAULT_SPEAKING_RATE" envDefault:"1.0"`
	DefaultPitch        float64 `env:"DEFAULT_PITCH" envDefault:"0"`

	// Behavior settings
	SynthesisTimeout time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"30s"`

	// Logging settings
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if c.Engine != EngineGoogle && c.Engine != EngineOpenAI {
		return errors.New("TTS_ENGINE must be one of: google, openai")
	}

	if c.Delimiter == "" {
		return errors.New("SEGMENT_DELIMITER must not be empty")
	}

	if c.MaxTextLength < 1 {
		return errors.New("MAX_TEXT_LENGTH must be at least 1")
	}

	if len(c.Languages) == 0 {
		return errors.New("SUPPORTED_LANGUAGES must list at least one language")
	}

	if !c.SupportsLanguage(c.DefaultLanguage) {
		return errors.New("DEFAULT_LANGUAGE must be one of SUPPORTED_LANGUAGES")
	}

	if !strings.HasPrefix(c.DefaultVoice, c.DefaultLanguage) {
		return errors.New("DEFAULT_VOICE must be prefixed by DEFAULT_LANGUAGE")
	}

	if c.DefaultSpeakingRate < 0.25 || c.DefaultSpeakingRate > 4.0 {
		return errors.New("DEFAULT_SPEAKING_RATE must be between 0.25 and 4.0")
	}

	if c.DefaultPitch < -20 || c.DefaultPitch > 20 {
		return errors.New("DEFAULT_PITCH must be between -20 and 20")
	}

	if c.SynthesisTimeout <= 0 {
		return errors.New("SYNTHESIS_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// SupportsLanguage reports whether lang is in the configured language set.
func (c *Config) SupportsLanguage(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
