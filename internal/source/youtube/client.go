package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"
	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/media"
	"github.com/tunebot/tunebot/internal/source"
	"github.com/tunebot/tunebot/internal/source/progress"
)

const (
	dirPerm          = 0755
	progressInterval = 5 * 1024 * 1024 // 5MB
)

// Config controls the adapter's scratch location and per-stage
// deadlines. Expired deadlines surface as context.DeadlineExceeded so
// the pipeline can map them to a timeout outcome.
type Config struct {
	ScratchDir   string
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

// Client adapts the extraction library to the Prober and Fetcher
// capabilities. It is the single place that talks to the source site.
type Client struct {
	yt  youtube.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Probe fetches title, author, duration and the approximate audio size
// for a reference in one metadata round trip. No media is transferred.
func (c *Client) Probe(ctx context.Context, ref *media.Reference) (*media.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	video, err := c.getVideo(ctx, ref)
	if err != nil {
		return nil, err
	}

	meta := &media.Metadata{
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
	}

	if f, err := selectAudioFormat(video.Formats); err == nil {
		meta.ApproxSize = f.ContentLength
	}

	return meta, nil
}

// Fetch transfers the best audio stream to a uniquely named scratch
// file and returns its path. The partial file is removed on any error.
func (c *Client) Fetch(ctx context.Context, ref *media.Reference, meta *media.Metadata) (string, error) {
	logger := logctx.LoggerFromContext(ctx).With("video_id", ref.ID)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	video, err := c.getVideo(ctx, ref)
	if err != nil {
		return "", err
	}

	format, err := selectAudioFormat(video.Formats)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.cfg.ScratchDir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	targetPath := filepath.Join(c.cfg.ScratchDir, media.ScratchName(meta.Title, extensionFor(format)))

	var stream io.ReadCloser

	var size int64

	err = c.retryTransient(ctx, func() error {
		var serr error
		stream, size, serr = c.yt.GetStreamContext(ctx, video, format)

		return serr
	})
	if err != nil {
		return "", timeoutOr(ctx, fmt.Errorf("failed to open audio stream: %w", err))
	}

	defer stream.Close()

	out, err := os.Create(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	defer out.Close()

	logger.Info("fetching audio stream",
		"target", targetPath,
		"mime_type", format.MimeType,
		"size", humanize.Bytes(uint64(size)),
	)

	pr := progress.NewReader(stream, size, progressInterval, func(read, total int64) {
		if total > 0 {
			logger.Debug("fetch progress",
				"read", humanize.Bytes(uint64(read)),
				"total", humanize.Bytes(uint64(total)),
				"percent", humanize.FtoaWithDigits(float64(read)*100/float64(total), 1),
			)
		} else {
			logger.Debug("fetch progress", "read", humanize.Bytes(uint64(read)))
		}
	})

	if _, err := io.Copy(out, pr); err != nil {
		os.Remove(targetPath)

		return "", timeoutOr(ctx, fmt.Errorf("failed to copy audio stream: %w", err))
	}

	return targetPath, nil
}

// getVideo runs the metadata call with a single retry for transient
// failures. Restrictions never retry.
func (c *Client) getVideo(ctx context.Context, ref *media.Reference) (*youtube.Video, error) {
	var video *youtube.Video

	err := c.retryTransient(ctx, func() error {
		v, err := c.yt.GetVideoContext(ctx, ref.URL)
		if err != nil {
			return err
		}

		video = v

		return nil
	})
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	return video, nil
}

func (c *Client) retryTransient(ctx context.Context, op func() error) error {
	wrapped := func() error {
		if err := op(); err != nil {
			if cerr := classify(err); isRestriction(cerr) {
				return backoff.Permanent(cerr)
			}

			return err
		}

		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)

	return backoff.Retry(wrapped, bo)
}

// selectAudioFormat walks the offered formats in three tiers: an
// audio-only stream in the preferred mp4 container, then any audio-only
// stream ranked by average bitrate, then an audio-only webm fallback.
func selectAudioFormat(formats []youtube.Format) (*youtube.Format, error) {
	var preferred, best, fallback *youtube.Format

	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}

		if strings.HasPrefix(f.MimeType, "audio/mp4") && higherBitrate(f, preferred) {
			preferred = f
		}

		if higherBitrate(f, best) {
			best = f
		}

		if strings.HasPrefix(f.MimeType, "audio/webm") && higherBitrate(f, fallback) {
			fallback = f
		}
	}

	switch {
	case preferred != nil:
		return preferred, nil
	case best != nil:
		return best, nil
	case fallback != nil:
		return fallback, nil
	}

	return nil, source.ErrNoStream
}

func higherBitrate(candidate, current *youtube.Format) bool {
	if current == nil {
		return true
	}

	return bitrateOf(candidate) > bitrateOf(current)
}

func bitrateOf(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}

	return f.Bitrate
}

func extensionFor(f *youtube.Format) string {
	if strings.HasPrefix(f.MimeType, "audio/webm") {
		return ".webm"
	}

	return ".m4a"
}

// timeoutOr substitutes a plain deadline error when the stage deadline
// expired, since the library does not always wrap the context error.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
	}

	return err
}
