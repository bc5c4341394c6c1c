package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var (
	// ErrNoAPIKey is returned when no Google Cloud API key is configured.
	ErrNoAPIKey = errors.New("no Google Cloud API key configured")
	// ErrEmptyAudio is returned when the backend reports success but sends no audio.
	ErrEmptyAudio = errors.New("backend returned no audio content")
)

// DefaultGoogleEndpoint is the Google Cloud Text-to-Speech synthesis endpoint.
const DefaultGoogleEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleConfig holds configuration for the Google Cloud TTS engine.
type GoogleConfig struct {
	// APIKey is the Google Cloud API key (required).
	APIKey string
	// Endpoint overrides the synthesis URL, mainly for tests.
	Endpoint string
	// Timeout bounds each synthesis HTTP call.
	Timeout time.Duration
}

// GoogleEngine implements the Engine interface against the Google Cloud
// Text-to-Speech REST API. Audio is always requested as MP3.
type GoogleEngine struct {
	config GoogleConfig
	client *http.Client
	logger *slog.Logger
}

// NewGoogleEngine creates a new Google Cloud TTS engine.
func NewGoogleEngine(cfg GoogleConfig, logger *slog.Logger) (*GoogleEngine, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GoogleEngine{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Name returns the engine identifier.
func (g *GoogleEngine) Name() string {
	return "google"
}

// synthesizeBody mirrors the text:synthesize request schema.
type synthesizeBody struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		Pitch         float64 `json:"pitch"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type googleError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts text to MP3 audio via the Google Cloud TTS API.
func (g *GoogleEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if req.Text == "" {
		return nil, errors.New("empty text")
	}

	var body synthesizeBody
	body.Input.Text = req.Text
	body.Voice.LanguageCode = req.Language
	body.Voice.Name = req.VoiceName
	body.AudioConfig.AudioEncoding = "MP3"
	body.AudioConfig.SpeakingRate = req.SpeakingRate
	body.AudioConfig.Pitch = req.Pitch

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := g.config.Endpoint + "?key=" + g.config.APIKey
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &SynthesisError{Engine: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		msg := backendMessage(raw)
		g.logger.Warn("google TTS request failed",
			"status", resp.StatusCode,
			"message", msg,
			"text_length", len(req.Text),
		)
		return nil, &SynthesisError{Engine: g.Name(), Status: resp.StatusCode, Message: msg}
	}

	var decoded synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &SynthesisError{Engine: g.Name(), Status: resp.StatusCode, Err: err}
	}
	if decoded.AudioContent == "" {
		return nil, ErrEmptyAudio
	}

	data, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, &SynthesisError{Engine: g.Name(), Status: resp.StatusCode, Err: fmt.Errorf("decode audio: %w", err)}
	}

	g.logger.Debug("google TTS synthesis complete",
		"text_length", len(req.Text),
		"voice", req.VoiceName,
		"bytes", len(data),
	)

	return &AudioResult{Data: data, Format: "mp3"}, nil
}

// backendMessage extracts the error message from a Google API error body,
// falling back to the raw body when it is not the expected JSON shape.
func backendMessage(raw []byte) string {
	var ge googleError
	if err := json.Unmarshal(raw, &ge); err == nil && ge.Error.Message != "" {
		return ge.Error.Message
	}
	return string(bytes.TrimSpace(raw))
}
