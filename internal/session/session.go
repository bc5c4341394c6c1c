// Package session manages authoring sessions. Each session owns a segment
// store, the voice settings its audio is synthesized with, and a feed of
// synthesis progress events.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nekoallergy22/audio-app-2025/internal/segment"
)

// VoiceSettings are the synthesis parameters shared by every segment in a
// session.
type VoiceSettings struct {
	Language     string  `json:"language"`
	VoiceName    string  `json:"voiceName"`
	SpeakingRate float64 `json:"speakingRate"`
	Pitch        float64 `json:"pitch"`
}

// Session is one authoring session. All methods are safe for concurrent
// use.
type Session struct {
	ID        string
	CreatedAt time.Time

	settings  VoiceSettings
	store     *segment.Store
	delimiter string
	validate  func(text string) error
	logger    *slog.Logger

	mu     sync.Mutex
	subs   map[chan segment.Event]struct{}
	closed bool
}

// Settings returns the session's voice settings.
func (s *Session) Settings() VoiceSettings {
	return s.settings
}

// Delimiter returns the sentence terminator the session segments with.
func (s *Session) Delimiter() string {
	return s.delimiter
}

// SetText replaces the session's source text. The text is validated,
// split into sentence segments, and reconciled against the current list,
// so unchanged segments keep their audio.
func (s *Session) SetText(text string) error {
	if err := s.validate(text); err != nil {
		return err
	}
	s.store.Reconcile(segment.Split(text, s.delimiter))
	return nil
}

// Segments returns snapshots of the session's segments in order.
func (s *Session) Segments() []segment.Segment {
	return s.store.Segments()
}

// Segment returns a snapshot of one segment.
func (s *Session) Segment(id string) (segment.Segment, error) {
	return s.store.Get(id)
}

// EditText updates a single segment's text. The segment's audio, if any,
// becomes stale until regenerated.
func (s *Session) EditText(id, text string) error {
	if err := s.validate(text); err != nil {
		return err
	}
	return s.store.EditText(id, text)
}

// Synthesize generates audio for one segment.
func (s *Session) Synthesize(ctx context.Context, id string) error {
	return s.store.Synthesize(ctx, id)
}

// SynthesizeAll generates audio for every segment that lacks current
// audio, in list order. Per-segment failures are returned; they do not
// stop the sweep.
func (s *Session) SynthesizeAll(ctx context.Context) ([]segment.SweepFailure, error) {
	return s.store.SynthesizeAllPending(ctx)
}

// RecordDuration stores a segment's measured playback duration.
func (s *Session) RecordDuration(id string, seconds float64) error {
	return s.store.RecordDuration(id, seconds)
}

// SetSlidePosition assigns a slide number to a segment, propagating it
// forward and renumbering slide orders.
func (s *Session) SetSlidePosition(id string, slideNumber int) error {
	return s.store.SetSlidePosition(id, slideNumber)
}

// RemoveSegment drops a segment and releases its audio.
func (s *Session) RemoveSegment(id string) error {
	return s.store.Remove(id)
}

// Audio returns a segment's synthesized audio bytes.
func (s *Session) Audio(id string) ([]byte, error) {
	return s.store.Audio(id)
}

// Subscribe registers a listener for synthesis progress events. The
// returned cancel function must be called when the listener is done.
// Events are dropped for listeners that fall behind.
func (s *Session) Subscribe() (<-chan segment.Event, func()) {
	ch := make(chan segment.Event, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) publish(ev segment.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("dropping event for slow subscriber", "session_id", s.ID, "event", ev.Kind)
		}
	}
}

// close releases the session's store and subscriber channels.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan segment.Event]struct{}{}
	s.mu.Unlock()

	s.store.Close()
}
