package video

import (
	"fmt"

	"thirdcoast.systems/lessonstream/internal/apperr"
)

// Status is the processing state of an asset. The set is closed; use
// ParseStatus when reading untrusted values.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// transitions lists the legal next states. Ready and error are terminal: a
// failed or finished asset is never re-encoded in place.
var transitions = map[Status][]Status{
	StatusProcessing: {StatusReady, StatusError},
	StatusReady:      {},
	StatusError:      {},
}

// ParseStatus validates s against the closed status set.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown video status %q", s)
	}
	return st, nil
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s -> to is a legal transition.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError reports an attempted illegal status change.
type TransitionError struct {
	AssetID string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for video %s: %s -> %s", e.AssetID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return apperr.ErrConflict }
