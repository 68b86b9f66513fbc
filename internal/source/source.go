package source

import (
	"context"

	"github.com/tunebot/tunebot/internal/media"
)

// Prober obtains video metadata in a single network round trip without
// transferring the media payload.
type Prober interface {
	Probe(ctx context.Context, ref *media.Reference) (*media.Metadata, error)
}

// Fetcher transfers the best available audio stream to a scratch file
// and returns its path. The caller owns the file afterwards.
type Fetcher interface {
	Fetch(ctx context.Context, ref *media.Reference, meta *media.Metadata) (string, error)
}
