package youtube

import (
	"errors"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/tunebot/tunebot/internal/source"
)

// classify normalizes the extraction library's failure modes into the
// closed restriction taxonomy. Typed errors are matched first; for
// playability-status failures the library only exposes free-form reason
// text, so the remaining matching is on substrings. That matching is a
// known fragility of the upstream API and is deliberately confined to
// this function; anything it cannot place becomes RestrictionUnknown.
func classify(err error) error {
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate):
		return &source.RestrictionError{Kind: source.RestrictionPrivate, Err: err}
	case errors.Is(err, youtube.ErrLoginRequired):
		return &source.RestrictionError{Kind: source.RestrictionAgeRestricted, Err: err}
	case errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return &source.RestrictionError{Kind: source.RestrictionUnavailable, Err: err}
	}

	var status *youtube.ErrPlayabiltyStatus
	if !errors.As(err, &status) {
		return err
	}

	reason := strings.ToLower(status.Reason)

	kind := source.RestrictionUnknown

	switch {
	case strings.Contains(reason, "private"):
		kind = source.RestrictionPrivate
	case strings.Contains(reason, "age"), strings.Contains(reason, "sign in to confirm"):
		kind = source.RestrictionAgeRestricted
	case strings.Contains(reason, "unavailable"), strings.Contains(reason, "removed"), strings.Contains(reason, "terminated"):
		kind = source.RestrictionUnavailable
	}

	return &source.RestrictionError{Kind: kind, Reason: status.Reason, Err: err}
}

// isRestriction reports whether err carries a normalized restriction.
func isRestriction(err error) bool {
	var rerr *source.RestrictionError

	return errors.As(err, &rerr)
}
