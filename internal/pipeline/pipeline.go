package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/media"
	"github.com/tunebot/tunebot/internal/source"
	"github.com/tunebot/tunebot/internal/storage"
)

// Transcoder converts a fetched artifact to the normalized output
// format and returns the new file's path.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, title string) (string, error)
}

// Request carries one user's link through a pipeline run.
type Request struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// Config bounds what the pipeline will deliver.
type Config struct {
	MaxDuration time.Duration
	MaxFileSize int64 // bytes
}

// Pipeline sequences validate, probe, constraint check, fetch,
// transcode and the final size check. Every run resolves to exactly one
// Outcome; no error ever escapes to the front-end. Stats writes are
// best effort and never abort a run.
type Pipeline struct {
	prober     source.Prober
	fetcher    source.Fetcher
	transcoder Transcoder
	stats      storage.StatsRecorder
	cfg        Config
}

func New(prober source.Prober, fetcher source.Fetcher, transcoder Transcoder, stats storage.StatsRecorder, cfg Config) *Pipeline {
	return &Pipeline{
		prober:     prober,
		fetcher:    fetcher,
		transcoder: transcoder,
		stats:      stats,
		cfg:        cfg,
	}
}

// Run executes one pipeline run end to end. Stages are strictly
// sequential and none is retried; the whole pipeline is retried only by
// the user re-submitting the link.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	logger := logctx.LoggerFromContext(ctx).With("user_id", req.UserID)

	p.recordUser(ctx, req)

	ref, err := media.Parse(req.Text)
	if err != nil {
		return failed(ReasonInvalidURL, err)
	}

	logger = logger.With("video_id", ref.ID)

	meta, err := p.prober.Probe(ctx, ref)
	if err != nil {
		outcome := probeOutcome(err)
		p.logAttempt(ctx, req, ref, "", 0, false)

		logger.Warn("probe failed", "outcome", outcome.Code, "err", err)

		return outcome
	}

	logger.Info("probed video",
		"title", meta.Title,
		"duration", meta.Duration.String(),
		"approx_size", meta.ApproxSize,
	)

	if meta.Duration > p.cfg.MaxDuration {
		p.logAttempt(ctx, req, ref, meta.Title, 0, false)

		return Outcome{Code: OutcomeTooLong, Title: meta.Title}
	}

	if meta.ApproxSize > 0 && meta.ApproxSize > p.cfg.MaxFileSize {
		p.logAttempt(ctx, req, ref, meta.Title, 0, false)

		return Outcome{Code: OutcomeTooLarge, Title: meta.Title}
	}

	fetched, err := p.fetcher.Fetch(ctx, ref, meta)
	if err != nil {
		outcome := fetchOutcome(err)
		p.logAttempt(ctx, req, ref, meta.Title, 0, false)

		logger.Warn("fetch failed", "outcome", outcome.Code, "reason", outcome.Reason, "err", err)

		return outcome
	}

	final, err := p.transcoder.Transcode(ctx, fetched, meta.Title)

	// The intermediate artifact is done with either way.
	if rmErr := os.Remove(fetched); rmErr != nil && !os.IsNotExist(rmErr) {
		logger.Warn("failed to remove fetched artifact", "path", fetched, "err", rmErr)
	}

	if err != nil {
		p.logAttempt(ctx, req, ref, meta.Title, 0, false)

		logger.Error("transcode failed", "err", err)

		if errors.Is(err, context.DeadlineExceeded) {
			return failed(ReasonTimeout, err)
		}

		return failed(ReasonTranscodeError, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		p.logAttempt(ctx, req, ref, meta.Title, 0, false)

		return failed(ReasonInternal, err)
	}

	if info.Size() > p.cfg.MaxFileSize {
		if rmErr := os.Remove(final); rmErr != nil {
			logger.Warn("failed to remove oversized artifact", "path", final, "err", rmErr)
		}

		p.logAttempt(ctx, req, ref, meta.Title, info.Size(), false)

		return Outcome{Code: OutcomeTooLarge, Title: meta.Title}
	}

	p.incrementDownloads(ctx, req)
	p.logAttempt(ctx, req, ref, meta.Title, info.Size(), true)

	logger.Info("pipeline run succeeded", "file", final, "file_size", info.Size())

	return success(final, meta.Title, info.Size())
}

func probeOutcome(err error) Outcome {
	var rerr *source.RestrictionError
	if errors.As(err, &rerr) {
		switch rerr.Kind {
		case source.RestrictionUnavailable:
			return Outcome{Code: OutcomeUnavailable, Err: err}
		case source.RestrictionAgeRestricted:
			return Outcome{Code: OutcomeAgeRestricted, Err: err}
		case source.RestrictionPrivate:
			return Outcome{Code: OutcomePrivate, Err: err}
		default:
			return Outcome{Code: OutcomeUnavailable, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failed(ReasonTimeout, err)
	}

	return failed(ReasonInternal, err)
}

func fetchOutcome(err error) Outcome {
	switch {
	case errors.Is(err, source.ErrNoStream):
		return failed(ReasonNoStream, err)
	case errors.Is(err, context.DeadlineExceeded):
		return failed(ReasonTimeout, err)
	}

	// Restrictions can also surface here when the site changed its
	// answer between probe and fetch.
	var rerr *source.RestrictionError
	if errors.As(err, &rerr) {
		return probeOutcome(err)
	}

	return failed(ReasonInternal, err)
}

func (p *Pipeline) recordUser(ctx context.Context, req Request) {
	if err := p.stats.RecordUser(ctx, req.UserID, req.Username, req.FirstName, req.LastName); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to record user", "user_id", req.UserID, "err", err)
	}
}

func (p *Pipeline) incrementDownloads(ctx context.Context, req Request) {
	if err := p.stats.IncrementDownloadCount(ctx, req.UserID); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to increment download count", "user_id", req.UserID, "err", err)
	}
}

func (p *Pipeline) logAttempt(ctx context.Context, req Request, ref *media.Reference, title string, size int64, success bool) {
	if err := p.stats.LogDownload(ctx, req.UserID, ref.URL, title, size, success); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to log download attempt", "user_id", req.UserID, "err", err)
	}
}
