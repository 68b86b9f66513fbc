package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/tunebot/tunebot/internal/bot"
	"github.com/tunebot/tunebot/internal/cleanup"
	"github.com/tunebot/tunebot/internal/config"
	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/notifier"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/source"
	"github.com/tunebot/tunebot/internal/source/youtube"
	"github.com/tunebot/tunebot/internal/storage"
	"github.com/tunebot/tunebot/internal/storage/sqlite"
	"github.com/tunebot/tunebot/internal/telemetry"
	"github.com/tunebot/tunebot/internal/transcode"
)

var version = "dev"

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(logctx.NewTraceHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("tunebot starting...", "version", version, "log_level", cfg.LogLevel)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.TelemetryEnabled,
		ServiceName:    "tunebot",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Database
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	users := sqlite.NewInstrumentedUserRepository(database, tel)
	downloads := sqlite.NewInstrumentedDownloadRepository(database, tel)

	// =========================================================================
	// Start Conversion Pipeline
	src := youtube.NewClient(youtube.Config{
		ScratchDir:   cfg.ScratchDir,
		ProbeTimeout: cfg.ProbeTimeout,
		FetchTimeout: cfg.FetchTimeout,
	})
	isrc := source.NewInstrumentedSource(src, src, tel)

	tc := transcode.New(transcode.Config{
		FfmpegBinPath:  cfg.FfmpegPath,
		FfprobeBinPath: cfg.FfprobePath,
		OutputDir:      cfg.DownloadDir,
		Timeout:        cfg.TranscodeTimeout,
		AlbumTag:       "tunebot",
	})

	pipe := pipeline.New(isrc, isrc, tc, storage.Recorder{Users: users, Downloads: downloads}, pipeline.Config{
		MaxDuration: cfg.MaxDuration,
		MaxFileSize: cfg.MaxFileSize(),
	})

	// =========================================================================
	// Start Bot
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	api.Debug = cfg.BotDebug

	admins := cfg.AdminIDs(logger)

	tgBot := bot.New(api, pipe, users, downloads, tel, bot.Config{
		Admins:      admins,
		MaxParallel: cfg.MaxParallel,
		PollPeriod:  cfg.PollPeriod,
	})

	notifyAdmins(ctx, api, admins, "🚀 tunebot is up")

	// =========================================================================
	// Start Cleanup
	go cleanup.Run(ctx, cfg.CleanupInterval, cfg.KeepScratchFor, cfg.ScratchDir, cfg.DownloadDir)

	// =========================================================================
	// Start Metrics Service

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	server := setupServer(ctx, tel, cfg)

	go func() {
		logger.Info("Initializing metrics support", "host", cfg.Web.BindAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Start Main Loop
	botErrors := make(chan error, 1)

	go func() {
		botErrors <- tgBot.Run(ctx)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case err := <-botErrors:
		if err != nil {
			return fmt.Errorf("bot error: %w", err)
		}

		return nil
	case <-ctx.Done():
		logger.Info("start shutdown")

		notifyAdmins(context.Background(), api, admins, "🛑 tunebot is shutting down")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		<-botErrors

		return nil
	}
}

func notifyAdmins(ctx context.Context, api *tgbotapi.BotAPI, admins []int64, content string) {
	if len(admins) == 0 {
		return
	}

	notif := notifier.NewTelegramNotifier(api, admins)

	if err := notif.Notify(content); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to notify admins", "err", err)
	}
}

// setupServer prepares the health and metrics endpoints.
func setupServer(ctx context.Context, tel *telemetry.Telemetry, cfg *config.Config) *http.Server {
	r := chi.NewRouter()

	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.NewHTTPMiddleware(tel).Middleware)

	r.Handle("/metrics", tel.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
