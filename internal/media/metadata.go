package media

import "time"

// Metadata describes a video as reported by the metadata probe. It is
// produced once per request and never persisted. ApproxSize is the
// reported size of the best audio stream in bytes, or zero when the
// source does not expose one.
type Metadata struct {
	Title      string
	Author     string
	Duration   time.Duration
	ApproxSize int64
}
