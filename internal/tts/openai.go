package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoOpenAIKey is returned when no OpenAI API key is configured.
var ErrNoOpenAIKey = errors.New("no OpenAI API key configured")

// openaiVoices is the set of voices accepted by the OpenAI speech API.
var openaiVoices = map[string]bool{
	"alloy": true, "echo": true, "fable": true,
	"onyx": true, "nova": true, "shimmer": true,
}

// OpenAIConfig holds configuration for the OpenAI TTS engine.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string
	// DefaultVoice is used when a request's voice name does not map to an
	// OpenAI voice. Defaults to "alloy".
	DefaultVoice string
}

// OpenAIEngine implements the Engine interface using the OpenAI speech API.
type OpenAIEngine struct {
	config OpenAIConfig
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAIEngine creates a new OpenAI TTS engine.
func NewOpenAIEngine(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoOpenAIKey
	}
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = "alloy"
	}

	return &OpenAIEngine{
		config: cfg,
		client: openai.NewClient(cfg.APIKey),
		logger: logger,
	}, nil
}

// Name returns the engine identifier.
func (o *OpenAIEngine) Name() string {
	return "openai"
}

// Synthesize converts text to MP3 audio via the OpenAI speech API.
// OpenAI voices are not language-prefixed, so a voice name like
// "ja-JP-nova" is mapped to "nova"; anything unrecognized falls back
// to the configured default voice. Pitch has no OpenAI equivalent and
// is ignored.
func (o *OpenAIEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if req.Text == "" {
		return nil, errors.New("empty text")
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(o.mapVoice(req.VoiceName)),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          req.SpeakingRate,
	})
	if err != nil {
		return nil, &SynthesisError{Engine: o.Name(), Err: err}
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, &SynthesisError{Engine: o.Name(), Err: err}
	}

	o.logger.Debug("openai TTS synthesis complete",
		"text_length", len(req.Text),
		"bytes", len(data),
	)

	return &AudioResult{Data: data, Format: "mp3"}, nil
}

// mapVoice reduces a possibly language-prefixed voice name to an OpenAI voice.
func (o *OpenAIEngine) mapVoice(name string) string {
	lowered := strings.ToLower(name)
	if openaiVoices[lowered] {
		return lowered
	}
	if idx := strings.LastIndex(lowered, "-"); idx >= 0 {
		if suffix := lowered[idx+1:]; openaiVoices[suffix] {
			return suffix
		}
	}
	return o.config.DefaultVoice
}
