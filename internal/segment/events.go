package segment

// EventKind identifies a synthesis progress event.
type EventKind string

// Progress event kinds emitted by the store.
const (
	// EventSegmentStarted fires when a synthesis request goes in flight.
	EventSegmentStarted EventKind = "segment_started"
	// EventSegmentReady fires when synthesized audio is installed.
	EventSegmentReady EventKind = "segment_ready"
	// EventSegmentFailed fires when a synthesis attempt fails.
	EventSegmentFailed EventKind = "segment_failed"
	// EventSweepDone fires when a SynthesizeAllPending pass finishes.
	EventSweepDone EventKind = "sweep_done"
)

// Event describes per-segment synthesis progress. Index is the segment's
// position in the list at the time of emission.
type Event struct {
	Kind      EventKind `json:"kind"`
	SegmentID string    `json:"segment_id,omitempty"`
	Index     int       `json:"index"`
	Error     string    `json:"error,omitempty"`
	// Failures is the number of failed segments; set on EventSweepDone only.
	Failures int `json:"failures,omitempty"`
}
