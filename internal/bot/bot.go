package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/storage"
	"github.com/tunebot/tunebot/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// Config holds the front-end settings.
type Config struct {
	Admins      []int64
	MaxParallel int
	PollPeriod  int // long-poll timeout in seconds
}

// sender is the slice of the Telegram client the handlers use, so
// handler behaviour can be exercised without a live connection.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// runner executes one conversion request end to end.
type runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// Bot is the Telegram front-end. It receives updates over long polling,
// answers commands inline and hands link messages to the pipeline, at
// most MaxParallel runs at a time.
type Bot struct {
	api       *tgbotapi.BotAPI
	client    sender
	pipe      runner
	users     storage.UserRepository
	downloads storage.DownloadRepository
	telemetry *telemetry.Telemetry
	admins    map[int64]struct{}
	sem       chan struct{}
	cfg       Config
}

func New(
	api *tgbotapi.BotAPI,
	pipe *pipeline.Pipeline,
	users storage.UserRepository,
	downloads storage.DownloadRepository,
	tel *telemetry.Telemetry,
	cfg Config,
) *Bot {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}

	admins := make(map[int64]struct{}, len(cfg.Admins))
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}

	return &Bot{
		api:       api,
		client:    api,
		pipe:      pipe,
		users:     users,
		downloads: downloads,
		telemetry: tel,
		admins:    admins,
		sem:       make(chan struct{}, cfg.MaxParallel),
		cfg:       cfg,
	}
}

// Run consumes updates until the context is cancelled and all in-flight
// handlers have drained.
func (b *Bot) Run(ctx context.Context) error {
	logger := logctx.LoggerFromContext(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollPeriod

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down bot")
		b.api.StopReceivingUpdates()
	}()

	logger.Info("waiting for messages...", "bot", b.api.Self.UserName, "max_parallel", b.cfg.MaxParallel)

	var wg errgroup.Group

	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			continue
		}

		msg := update.Message

		wg.Go(func() error {
			b.dispatch(ctx, msg)

			return nil
		})
	}

	return wg.Wait()
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	logger := logctx.LoggerFromContext(ctx).With("user_id", msg.From.ID, "chat_id", msg.Chat.ID)
	ctx = logctx.WithLogger(ctx, logger)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)

		return
	}

	b.handleLink(ctx, msg)
}

func (b *Bot) isAdmin(id int64) bool {
	_, ok := b.admins[id]

	return ok
}

// send is a fire-and-forget reply; delivery errors are logged only.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.client.Send(c); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to send message", "err", err)
	}
}
