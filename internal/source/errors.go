package source

import (
	"errors"
	"fmt"
)

// ErrNoStream is returned when no tier of the audio stream selection
// matches any format offered by the source.
var ErrNoStream = errors.New("no audio stream available")

// Restriction identifies why a video cannot be served. The set is
// closed; anything the adapter cannot place lands on RestrictionUnknown
// rather than being silently folded into a generic failure.
type Restriction string

const (
	RestrictionUnavailable   Restriction = "unavailable"
	RestrictionAgeRestricted Restriction = "age_restricted"
	RestrictionPrivate       Restriction = "private"
	RestrictionUnknown       Restriction = "unknown"
)

// RestrictionError reports that the source refuses to serve a video.
// The adapter normalizes the extraction library's failure modes into
// this type at the boundary, so the rest of the pipeline never inspects
// raw error text.
type RestrictionError struct {
	Kind   Restriction
	Reason string // upstream wording, kept for logging only
	Err    error
}

func (e *RestrictionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("video %s: %s", e.Kind, e.Reason)
	}

	return fmt.Sprintf("video %s", e.Kind)
}

func (e *RestrictionError) Unwrap() error {
	return e.Err
}
