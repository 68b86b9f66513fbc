package source

import (
	"context"

	"github.com/tunebot/tunebot/internal/media"
	"github.com/tunebot/tunebot/internal/telemetry"
)

// InstrumentedSource decorates a Prober/Fetcher pair with telemetry.
type InstrumentedSource struct {
	prober    Prober
	fetcher   Fetcher
	telemetry *telemetry.Telemetry
}

func NewInstrumentedSource(prober Prober, fetcher Fetcher, tel *telemetry.Telemetry) *InstrumentedSource {
	return &InstrumentedSource{prober: prober, fetcher: fetcher, telemetry: tel}
}

func (s *InstrumentedSource) Probe(ctx context.Context, ref *media.Reference) (*media.Metadata, error) {
	var meta *media.Metadata

	err := s.telemetry.InstrumentSourceOperation(ctx, "probe", func(ctx context.Context) error {
		var probeErr error
		meta, probeErr = s.prober.Probe(ctx, ref)

		return probeErr
	})

	return meta, err
}

func (s *InstrumentedSource) Fetch(ctx context.Context, ref *media.Reference, meta *media.Metadata) (string, error) {
	var path string

	err := s.telemetry.InstrumentSourceOperation(ctx, "fetch", func(ctx context.Context) error {
		var fetchErr error
		path, fetchErr = s.fetcher.Fetch(ctx, ref, meta)

		return fetchErr
	})

	return path, err
}
