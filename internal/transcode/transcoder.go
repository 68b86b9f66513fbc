package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/media"
)

const (
	outputExtension = ".mp3"
	sampleRate      = 44100
	channels        = 2
	bitrate         = "192k"
	dirPerm         = 0755

	// An encode that lost more than this much of the source is treated
	// as truncated.
	durationTolerance = 2 * time.Second
)

// Config locates the ffmpeg binaries and bounds a single transcode.
type Config struct {
	FfmpegBinPath  string
	FfprobeBinPath string
	OutputDir      string
	Timeout        time.Duration
	AlbumTag       string
}

// Transcoder converts a fetched audio container to a normalized MP3:
// fixed sample rate, stereo, constant bitrate, embedded tags. The input
// file is never mutated; a new uniquely named file is produced.
type Transcoder struct {
	cfg Config
}

func New(cfg Config) *Transcoder {
	return &Transcoder{cfg: cfg}
}

// Transcode converts inputPath and returns the path of the produced
// file. The encoder library reports progress but swallows the process's
// exit status, so completion is verified by re-probing the output and
// comparing durations; on any failure the partial output is removed and
// the error is returned for the caller to treat as terminal.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, title string) (string, error) {
	logger := logctx.LoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	sourceDuration, err := t.probeDuration(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to probe input: %w", err)
	}

	if err := os.MkdirAll(t.cfg.OutputDir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(t.cfg.OutputDir, media.ScratchName(title, outputExtension))

	done := make(chan error, 1)

	go func() {
		done <- t.encode(ctx, inputPath, outputPath, title)
	}()

	select {
	case <-ctx.Done():
		// The library offers no way to cancel a running encode; the
		// process is abandoned and keeps writing to an unlinked file.
		os.Remove(outputPath)

		return "", fmt.Errorf("transcode aborted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			os.Remove(outputPath)

			return "", fmt.Errorf("transcode failed: %w", err)
		}
	}

	outputDuration, err := t.probeDuration(ctx, outputPath)
	if err != nil {
		os.Remove(outputPath)

		return "", fmt.Errorf("transcode produced unreadable output: %w", err)
	}

	if sourceDuration-outputDuration > durationTolerance {
		os.Remove(outputPath)

		return "", fmt.Errorf("transcode incomplete: output covers %s of %s",
			outputDuration, sourceDuration)
	}

	logger.Debug("transcode finished",
		"output", outputPath,
		"duration", outputDuration.String(),
	)

	return outputPath, nil
}

func (t *Transcoder) encode(ctx context.Context, inputPath, outputPath, title string) error {
	logger := logctx.LoggerFromContext(ctx)

	audioCodec := "libmp3lame"
	audioBitrate := bitrate
	audioRate := sampleRate
	audioChannels := channels
	skipVideo := true
	overwrite := true
	outputFormat := "mp3"

	opts := &ffmpeg.Options{
		AudioCodec:    &audioCodec,
		AudioBitrate:  &audioBitrate,
		AudioRate:     &audioRate,
		AudioChannels: &audioChannels,
		SkipVideo:     &skipVideo,
		Overwrite:     &overwrite,
		OutputFormat:  &outputFormat,
		Metadata: map[string]string{
			"title":  title,
			"artist": "YouTube",
			"album":  t.cfg.AlbumTag,
		},
	}

	progressChannel, err := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   t.cfg.FfmpegBinPath,
			FfprobeBinPath:  t.cfg.FfprobeBinPath,
		}).
		Input(inputPath).
		Output(outputPath).
		Start(opts)
	if err != nil {
		return err
	}

	for prog := range progressChannel {
		logger.Debug("transcode progress",
			"progress", prog.GetProgress(),
			"current_time", prog.GetCurrentTime(),
			"speed", prog.GetSpeed(),
		)
	}

	return nil
}

// probeDuration asks ffprobe for the container duration. It is the
// completion oracle for the encode, so it shells out directly instead
// of going through the encoder library.
func (t *Transcoder) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, t.cfg.FfprobeBinPath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filepath.Base(path), err)
	}

	return parseProbeDuration(string(out))
}

func parseProbeDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("unparseable ffprobe duration %q", s)
	}

	return time.Duration(secs * float64(time.Second)), nil
}
