package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	BotToken   string `envconfig:"BOT_TOKEN" required:"true"`
	BotAdmins  string `envconfig:"BOT_ADMINS"`
	BotDebug   bool   `envconfig:"BOT_DEBUG" default:"false"`
	PollPeriod int    `envconfig:"POLL_PERIOD" default:"30"`

	ScratchDir  string `envconfig:"SCRATCH_DIR" default:"scratch"`
	DownloadDir string `envconfig:"DOWNLOAD_DIR" default:"downloads"`
	DBPath      string `envconfig:"DB_PATH" default:"tunebot.db"`

	MaxDuration   time.Duration `envconfig:"MAX_DURATION" default:"2h"`
	MaxFileSizeMB int64         `envconfig:"MAX_FILE_SIZE_MB" default:"50"`
	MaxParallel   int           `envconfig:"MAX_PARALLEL" default:"3"`

	ProbeTimeout     time.Duration `envconfig:"PROBE_TIMEOUT" default:"30s"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"10m"`
	TranscodeTimeout time.Duration `envconfig:"TRANSCODE_TIMEOUT" default:"10m"`

	FfmpegPath  string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FfprobePath string `envconfig:"FFPROBE_PATH" default:"ffprobe"`

	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
	KeepScratchFor  time.Duration `envconfig:"KEEP_SCRATCH_FOR" default:"1h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	TelemetryEnabled bool `envconfig:"TELEMETRY_ENABLED" default:"true"`

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9090"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	// envconfig's required tag only rejects unset variables; a set but
	// empty BOT_TOKEN= must be fatal too.
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MaxFileSize returns the delivery size ceiling in bytes.
func (c *Config) MaxFileSize() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// AdminIDs parses the comma-separated admin list. Entries that are not
// valid integers are skipped with a warning rather than failing startup.
func (c *Config) AdminIDs(logger *slog.Logger) []int64 {
	if c.BotAdmins == "" {
		return nil
	}

	var ids []int64

	for _, raw := range strings.Split(c.BotAdmins, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.Warn("skipping invalid admin id", "value", raw)

			continue
		}

		ids = append(ids, id)
	}

	return ids
}

// EnsureDirs creates the working directories if they do not exist.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ScratchDir, c.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return nil
}
