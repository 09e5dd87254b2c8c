package domain

import (
	"encoding/json"
	"time"
)

// Status is the coarse state reported by the status endpoint.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusNotFound   Status = "not_found"
)

// State is the lifecycle state of a video record.
type State string

const (
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Record is the per-video state tracked by the store.
// A ready record always carries a chain; an errored record is never ready.
type Record struct {
	VideoID    string
	BuildID    string
	Ready      bool
	Error      *string
	Transcript string
	Retriever  Retriever
	Chain      Chain
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProcessingRecord creates the initial record for a submission.
func NewProcessingRecord(videoID, buildID string, now time.Time) *Record {
	return &Record{
		VideoID:   videoID,
		BuildID:   buildID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkReady returns the terminal success record derived from r.
func (r *Record) MarkReady(transcript string, retriever Retriever, chain Chain, now time.Time) *Record {
	next := *r
	next.Ready = true
	next.Error = nil
	next.Transcript = transcript
	next.Retriever = retriever
	next.Chain = chain
	next.UpdatedAt = now
	return &next
}

// MarkFailed returns the terminal failure record derived from r.
func (r *Record) MarkFailed(reason string, now time.Time) *Record {
	next := *r
	next.Ready = false
	next.Error = &reason
	next.Transcript = ""
	next.Retriever = nil
	next.Chain = nil
	next.UpdatedAt = now
	return &next
}

// State reports where the record is in its lifecycle.
func (r *Record) State() State {
	switch {
	case r.Ready:
		return StateReady
	case r.Error != nil:
		return StateError
	default:
		return StateProcessing
	}
}

// Status maps the record onto the coarse status vocabulary. Failed records
// report processing; the error message is carried separately.
func (r *Record) Status() Status {
	if r.Ready {
		return StatusReady
	}
	return StatusProcessing
}

// ErrorMessage returns the stored error or "".
func (r *Record) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

type recordJSON struct {
	VideoID      string    `json:"video_id"`
	BuildID      string    `json:"build_id"`
	Ready        bool      `json:"ready"`
	State        State     `json:"state"`
	Error        *string   `json:"error"`
	Transcript   *string   `json:"transcript"`
	HasRetriever bool      `json:"has_retriever"`
	HasChain     bool      `json:"has_chain"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MarshalJSON renders the raw record; pipeline handles are reported as flags.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		VideoID:      r.VideoID,
		BuildID:      r.BuildID,
		Ready:        r.Ready,
		State:        r.State(),
		Error:        r.Error,
		HasRetriever: r.Retriever != nil,
		HasChain:     r.Chain != nil,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Ready {
		t := r.Transcript
		out.Transcript = &t
	}
	return json.Marshal(out)
}
