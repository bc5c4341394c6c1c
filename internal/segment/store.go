// Package segment owns the ordered list of text segments derived from the
// user's input and the synthesized-audio state attached to each of them.
package segment

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrSegmentNotFound is returned when no segment has the given identifier.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrNoAudio is returned when a segment has no synthesized audio.
	ErrNoAudio = errors.New("segment has no audio")
	// ErrNoSynthesizer is returned when a store without a synthesize function
	// is asked to synthesize.
	ErrNoSynthesizer = errors.New("no synthesize function configured")
	// ErrInvalidDuration is returned for negative duration reports.
	ErrInvalidDuration = errors.New("duration must not be negative")
	// ErrInvalidSlide is returned for negative slide numbers.
	ErrInvalidSlide = errors.New("slide number must not be negative")
)

// SynthesizeFunc requests audio for text from the speech backend. The store
// treats it as an opaque remote call: bytes on success, error on failure.
type SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

// Segment is a read-only snapshot of one segment's state.
type Segment struct {
	ID              string
	Index           int
	OriginalText    string
	EditedText      string
	HasAudio        bool
	AudioStale      bool
	IsSynthesizing  bool
	DurationSeconds float64
	SlidePosition   int
	SlideOrder      int
}

// AudioValid reports whether the segment's audio corresponds to its
// current edited text.
func (s Segment) AudioValid() bool {
	return s.HasAudio && !s.AudioStale
}

// SweepFailure records one segment's failure during SynthesizeAllPending.
type SweepFailure struct {
	SegmentID string
	Err       error
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Synthesize is the external speech call. Required for Synthesize and
	// SynthesizeAllPending.
	Synthesize SynthesizeFunc
	// ProbeDuration, if set, derives a duration in seconds from installed
	// audio bytes. RecordDuration overrides the probed value.
	ProbeDuration func(data []byte) float64
	// OnProgress, if set, receives synthesis progress events. It is called
	// without the store lock held.
	OnProgress func(Event)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// state is the mutable per-segment record. audioText is the edited text
// that audio was synthesized from; it is meaningful only while audio is
// non-nil. Staleness is always derived by comparing it to editedText.
type state struct {
	id              string
	originalText    string
	editedText      string
	audio           []byte
	audioText       string
	durationSeconds float64
	slidePosition   int
	slideOrder      int
	inflight        *inflightCall
}

func (st *state) pending() bool {
	return st.audio == nil || st.audioText != st.editedText
}

// inflightCall joins concurrent Synthesize calls for one segment onto a
// single outgoing request.
type inflightCall struct {
	done chan struct{}
	err  error
}

// Store reconciles re-segmentation results against the current list and
// manages the synthesize/regenerate lifecycle per segment. All methods are
// safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	segments []*state

	synthesize SynthesizeFunc
	probe      func([]byte) float64
	onProgress func(Event)
	logger     *slog.Logger
}

// NewStore creates an empty segment store.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		synthesize: cfg.Synthesize,
		probe:      cfg.ProbeDuration,
		onProgress: cfg.OnProgress,
		logger:     logger,
	}
}

// Reconcile aligns texts against the current list by positional index.
// A segment whose edited text equals the new text at its index is kept
// unchanged, audio included. A changed text produces a fresh segment with
// no audio that inherits the previous identifier and slide metadata at
// that index, so slide assignments survive a re-split. Segments beyond
// the new list's length are dropped and their audio released.
func (s *Store) Reconcile(texts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*state, 0, len(texts))
	for i, text := range texts {
		if i < len(s.segments) {
			prev := s.segments[i]
			if prev.editedText == text {
				next = append(next, prev)
				continue
			}
			next = append(next, &state{
				id:            prev.id,
				originalText:  text,
				editedText:    text,
				slidePosition: prev.slidePosition,
				slideOrder:    prev.slideOrder,
			})
			prev.audio = nil
			continue
		}
		next = append(next, &state{
			id:           uuid.NewString(),
			originalText: text,
			editedText:   text,
		})
	}

	for _, dropped := range s.segments[min(len(texts), len(s.segments)):] {
		dropped.audio = nil
	}

	s.segments = next
	s.logger.Debug("reconciled segments", "count", len(next))
}

// EditText sets the edited text for the segment with the given identifier.
// It does not trigger synthesis; existing audio becomes stale implicitly
// when the new text differs from the text the audio was made from.
func (s *Store) EditText(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findLocked(id)
	if st == nil {
		return ErrSegmentNotFound
	}
	st.editedText = text
	return nil
}

// Synthesize requests audio for the segment's current edited text. If a
// synthesis is already in flight for the segment, the call joins it and
// returns its outcome, so at most one backend request is outstanding per
// segment. On failure any previously installed audio is left untouched.
func (s *Store) Synthesize(ctx context.Context, id string) error {
	if s.synthesize == nil {
		return ErrNoSynthesizer
	}

	s.mu.Lock()
	st := s.findLocked(id)
	if st == nil {
		s.mu.Unlock()
		return ErrSegmentNotFound
	}

	if existing := st.inflight; existing != nil {
		s.mu.Unlock()
		select {
		case <-existing.done:
			return existing.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	st.inflight = call
	text := st.editedText
	index := s.indexLocked(st)
	s.mu.Unlock()

	s.emit(Event{Kind: EventSegmentStarted, SegmentID: id, Index: index})

	data, err := s.synthesize(ctx, text)

	s.mu.Lock()
	present := s.containsLocked(st)
	st.inflight = nil
	call.err = err
	if present && err == nil {
		st.audio = data
		st.audioText = text
		st.durationSeconds = 0
		if s.probe != nil {
			st.durationSeconds = s.probe(data)
		}
	}
	index = s.indexLocked(st)
	s.mu.Unlock()

	close(call.done)

	if !present {
		// Segment was removed or replaced while the request was in
		// flight; the result is discarded.
		s.logger.Debug("discarding synthesis result for removed segment", "segment_id", id)
		return err
	}

	if err != nil {
		s.logger.Warn("segment synthesis failed", "segment_id", id, "error", err)
		s.emit(Event{Kind: EventSegmentFailed, SegmentID: id, Index: index, Error: err.Error()})
	} else {
		s.emit(Event{Kind: EventSegmentReady, SegmentID: id, Index: index})
	}

	return err
}

// SynthesizeAllPending synthesizes, sequentially and in list order, every
// segment whose audio is absent or stale. Pending-ness is re-checked as
// each segment is visited, so a segment regenerated out of band while the
// sweep runs is skipped rather than synthesized twice. A segment's failure
// is recorded and the sweep continues; only context cancellation aborts it.
func (s *Store) SynthesizeAllPending(ctx context.Context) ([]SweepFailure, error) {
	s.mu.Lock()
	ids := make([]string, len(s.segments))
	for i, st := range s.segments {
		ids[i] = st.id
	}
	s.mu.Unlock()

	var failures []SweepFailure
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		s.mu.Lock()
		st := s.findLocked(id)
		pending := st != nil && st.pending()
		s.mu.Unlock()
		if !pending {
			continue
		}

		if err := s.Synthesize(ctx, id); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return failures, err
			}
			failures = append(failures, SweepFailure{SegmentID: id, Err: err})
		}
	}

	s.emit(Event{Kind: EventSweepDone, Failures: len(failures)})
	return failures, nil
}

// RecordDuration sets the segment's duration once audio metadata becomes
// available. It is idempotent and overrides any probed value.
func (s *Store) RecordDuration(id string, seconds float64) error {
	if seconds < 0 {
		return ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findLocked(id)
	if st == nil {
		return ErrSegmentNotFound
	}
	st.durationSeconds = seconds
	return nil
}

// SetSlidePosition assigns slideNumber to the segment and, applying the
// slide number forward, to every segment after it in list order. Slide
// orders are then recomputed for the whole list: a 1-based counter that
// restarts whenever the slide position changes value between neighbors.
// A slideNumber of 0 clears the targeted segment's position only.
func (s *Store) SetSlidePosition(id string, slideNumber int) error {
	if slideNumber < 0 {
		return ErrInvalidSlide
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, st := range s.segments {
		if st.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrSegmentNotFound
	}

	s.segments[idx].slidePosition = slideNumber
	if slideNumber > 0 {
		for _, st := range s.segments[idx+1:] {
			st.slidePosition = slideNumber
		}
	}

	s.renumberLocked()
	return nil
}

// Remove releases the segment's audio and drops it from the list.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, st := range s.segments {
		if st.id == id {
			st.audio = nil
			s.segments = append(s.segments[:i], s.segments[i+1:]...)
			s.renumberLocked()
			return nil
		}
	}
	return ErrSegmentNotFound
}

// Close releases all audio resources and empties the list. In-flight
// synthesis calls are left to complete; their results are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.segments {
		st.audio = nil
	}
	s.segments = nil
}

// Segments returns snapshots of all segments in list order.
func (s *Store) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Segment, len(s.segments))
	for i, st := range s.segments {
		out[i] = s.snapshotLocked(st, i)
	}
	return out
}

// Get returns a snapshot of the segment with the given identifier.
func (s *Store) Get(id string) (Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, st := range s.segments {
		if st.id == id {
			return s.snapshotLocked(st, i), nil
		}
	}
	return Segment{}, ErrSegmentNotFound
}

// Audio returns a copy of the segment's audio bytes. Stale audio is still
// returned; callers decide whether staleness matters for their use.
func (s *Store) Audio(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findLocked(id)
	if st == nil {
		return nil, ErrSegmentNotFound
	}
	if st.audio == nil {
		return nil, ErrNoAudio
	}
	out := make([]byte, len(st.audio))
	copy(out, st.audio)
	return out, nil
}

// Len returns the number of segments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

func (s *Store) snapshotLocked(st *state, index int) Segment {
	return Segment{
		ID:              st.id,
		Index:           index,
		OriginalText:    st.originalText,
		EditedText:      st.editedText,
		HasAudio:        st.audio != nil,
		AudioStale:      st.audio != nil && st.audioText != st.editedText,
		IsSynthesizing:  st.inflight != nil,
		DurationSeconds: st.durationSeconds,
		SlidePosition:   st.slidePosition,
		SlideOrder:      st.slideOrder,
	}
}

func (s *Store) findLocked(id string) *state {
	for _, st := range s.segments {
		if st.id == id {
			return st
		}
	}
	return nil
}

func (s *Store) containsLocked(target *state) bool {
	for _, st := range s.segments {
		if st == target {
			return true
		}
	}
	return false
}

func (s *Store) indexLocked(target *state) int {
	for i, st := range s.segments {
		if st == target {
			return i
		}
	}
	return -1
}

// renumberLocked recomputes slide orders top to bottom. The counter
// restarts whenever the slide position changes value, so identical
// positions separated by a different position form separate runs.
func (s *Store) renumberLocked() {
	prev := 0
	counter := 0
	for _, st := range s.segments {
		if st.slidePosition <= 0 {
			st.slideOrder = 0
			prev = 0
			continue
		}
		if st.slidePosition != prev {
			counter = 0
		}
		counter++
		st.slideOrder = counter
		prev = st.slidePosition
	}
}

func (s *Store) emit(ev Event) {
	if s.onProgress != nil {
		s.onProgress(ev)
	}
}
