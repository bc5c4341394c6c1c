// Package fake provides a scriptable TTS engine for tests.
package fake

import (
	"context"
	"sync"

	"github.com/nekoallergy22/audio-app-2025/internal/tts"
)

// Engine is a test double for tts.Engine. It records every request and
// returns canned audio, or a scripted error when FailWith is set or the
// request text is listed in FailTexts.
type Engine struct {
	mu        sync.Mutex
	requests  []tts.SynthesizeRequest
	audio     []byte
	failWith  error
	failTexts map[string]error
	blockCh   chan struct{}
}

// New creates a fake engine that returns the given audio bytes.
func New(audio []byte) *Engine {
	return &Engine{
		audio:     audio,
		failTexts: make(map[string]error),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return "fake"
}

// FailWith makes every subsequent call return err. Pass nil to clear.
func (e *Engine) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failWith = err
}

// FailText makes calls for exactly this text return err.
func (e *Engine) FailText(text string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failTexts[text] = err
}

// Block makes subsequent calls wait until Unblock is called. Used to hold
// a synthesis in flight while the test issues concurrent operations.
func (e *Engine) Block() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockCh = make(chan struct{})
}

// Unblock releases calls waiting in Block.
func (e *Engine) Unblock() {
	e.mu.Lock()
	ch := e.blockCh
	e.blockCh = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// CallCount returns the number of Synthesize calls made so far.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// Requests returns a copy of all recorded requests.
func (e *Engine) Requests() []tts.SynthesizeRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.SynthesizeRequest, len(e.requests))
	copy(out, e.requests)
	return out
}

// Synthesize records the request and returns the scripted result.
func (e *Engine) Synthesize(ctx context.Context, req tts.SynthesizeRequest) (*tts.AudioResult, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	block := e.blockCh
	failWith := e.failWith
	failText, hasFailText := e.failTexts[req.Text]
	audio := e.audio
	e.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failWith != nil {
		return nil, failWith
	}
	if hasFailText {
		return nil, failText
	}

	data := make([]byte, len(audio))
	copy(data, audio)
	return &tts.AudioResult{Data: data, Format: "mp3"}, nil
}
