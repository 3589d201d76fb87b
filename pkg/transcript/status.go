// Package transcript implements the Transcript entity's status machine and
// the derived operations (RenderWebVTT, SearchProjection) built on top of
// it, generalizing the teacher's AlertSession lifecycle
// (pkg/services/session_service.go) from an incident-investigation session
// to a meeting transcript.
package transcript

import (
	"github.com/reflector-core/reflector/ent/transcript"
	"github.com/reflector-core/reflector/pkg/errs"
)

// Status mirrors the ent enum values for Transcript.status.
type Status = transcript.Status

// SourceKind mirrors the ent enum values for Transcript.source_kind.
type SourceKind = transcript.SourceKind

const (
	StatusIdle       = transcript.StatusIdle
	StatusUploaded   = transcript.StatusUploaded
	StatusRecording  = transcript.StatusRecording
	StatusProcessing = transcript.StatusProcessing
	StatusEnded      = transcript.StatusEnded
	StatusError      = transcript.StatusError
)

// rank gives the forward order of the non-error states. A transition is
// legal if it strictly increases rank, targets error from any state, or
// is the explicit error -> processing reprocess.
var rank = map[Status]int{
	StatusIdle:       0,
	StatusUploaded:   1,
	StatusRecording:  2,
	StatusProcessing: 3,
	StatusEnded:      4,
}

// CanTransition reports whether moving a Transcript from `from` to `to`
// is legal under spec.md §4.6: forward-only, error absorbing except for
// an explicit reprocess back to processing.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusError {
		return true
	}
	if from == StatusError {
		return to == StatusProcessing
	}
	fromRank, fromOK := rank[from]
	toRank, toOK := rank[to]
	return fromOK && toOK && toRank > fromRank
}

// ValidateTransition returns an errs.Error of Kind Logical when the
// transition is not in the fixed set CanTransition allows.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return errs.New(errs.Logical, "transcript", "ValidateTransition", &errs.ValidationError{
			Field:   "status",
			Message: string(from) + " -> " + string(to) + " is not an allowed transition",
		})
	}
	return nil
}

// IsReprocess reports whether the transition clears workflow_run_id per
// spec.md §4.6 ("error is absorbing unless reprocess").
func IsReprocess(from, to Status) bool {
	return from == StatusError && to == StatusProcessing
}
