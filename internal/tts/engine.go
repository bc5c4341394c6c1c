package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// SynthesizeRequest contains the text and voice parameters for one synthesis call.
type SynthesizeRequest struct {
	Text         string
	Language     string
	VoiceName    string
	SpeakingRate float64
	Pitch        float64
}

// AudioResult represents synthesized audio output.
type AudioResult struct {
	// Data contains the raw audio bytes.
	Data []byte
	// Format describes the audio container (e.g., "mp3").
	Format string
}

// Reader returns an io.Reader over the audio data.
func (a *AudioResult) Reader() io.Reader {
	return bytes.NewReader(a.Data)
}

// Engine is the interface for text-to-speech backends.
type Engine interface {
	// Synthesize converts text to audio. The request is validated by the
	// caller before it reaches the engine.
	Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error)
	// Name returns the engine identifier.
	Name() string
}

// SynthesisError reports a failed synthesis call against a speech backend.
type SynthesisError struct {
	Engine  string
	Status  int    // HTTP status from the backend, 0 if the call never completed
	Message string // human-readable backend message
	Err     error  // underlying transport or decode error, may be nil
}

func (e *SynthesisError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s synthesis failed: %s", e.Engine, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s synthesis failed: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("%s synthesis failed", e.Engine)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
