package bot

import (
	"context"
	"errors"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tunebot/tunebot/internal/logctx"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/storage"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	logger := logctx.LoggerFromContext(ctx)

	if err := b.users.RecordUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName); err != nil {
		logger.Error("failed to record user", "err", err)
	}

	switch msg.Command() {
	case "start":
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgWelcome))
	case "help":
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgHelp))
	case "stats":
		b.handleStats(ctx, msg)
	case "history":
		b.handleHistory(ctx, msg)
	default:
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgUnknownCommand))
	}
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	logger := logctx.LoggerFromContext(ctx)

	stats, err := b.users.GetUserStats(ctx, msg.From.ID)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to load user stats", "err", err)
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgStatsUnavailable))

		return
	}

	text := FormatUserStats(stats)

	if b.isAdmin(msg.From.ID) {
		adminStats, err := b.users.GetAdminStats(ctx)
		if err != nil {
			logger.Error("failed to load admin stats", "err", err)
		} else {
			text += "\n\n" + FormatAdminStats(adminStats)
		}
	}

	b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, text))
}

const historyLimit = 10

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	logger := logctx.LoggerFromContext(ctx)

	records, err := b.downloads.GetHistory(ctx, msg.From.ID, historyLimit)
	if err != nil {
		logger.Error("failed to load history", "err", err)
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgStatsUnavailable))

		return
	}

	b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, FormatHistory(records)))
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) {
	logger := logctx.LoggerFromContext(ctx)

	blocked, err := b.users.IsBlocked(ctx, msg.From.ID)
	if err != nil {
		logger.Error("failed to check block status", "err", err)
	}

	if blocked {
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgBlocked))

		return
	}

	// The placeholder goes out before waiting for a slot, so the user
	// gets immediate feedback even when every slot is taken.
	placeholder, err := b.client.Send(tgbotapi.NewMessage(msg.Chat.ID, msgProcessing))
	if err != nil {
		logger.Error("failed to send placeholder", "err", err)

		return
	}

	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-b.sem }()

	req := pipeline.Request{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Text:      msg.Text,
	}

	var outcome pipeline.Outcome

	b.telemetry.InstrumentConversion(ctx, func(ctx context.Context) string {
		outcome = b.pipe.Run(ctx, req)

		return string(outcome.Code)
	})

	if outcome.Code != pipeline.OutcomeSuccess {
		b.editPlaceholder(ctx, placeholder, MessageFor(outcome))

		return
	}

	b.deliverAudio(ctx, msg.Chat.ID, placeholder, outcome)
}

// deliverAudio uploads the finished file, then removes both the
// placeholder message and the local artifact. The file is deleted even
// when the upload fails; the user can always re-request the link.
func (b *Bot) deliverAudio(ctx context.Context, chatID int64, placeholder tgbotapi.Message, outcome pipeline.Outcome) {
	logger := logctx.LoggerFromContext(ctx)

	defer func() {
		if err := os.Remove(outcome.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to remove delivered file", "file", outcome.FilePath, "err", err)
		}
	}()

	b.editPlaceholder(ctx, placeholder, msgUploading)

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(outcome.FilePath))
	audio.Title = outcome.Title
	audio.Performer = "YouTube"

	start := time.Now()

	_, err := b.client.Send(audio)
	if err != nil {
		b.telemetry.RecordDelivery("audio", "error")
		logger.Error("failed to upload audio", "err", err)
		b.editPlaceholder(ctx, placeholder, msgDeliveryFailed)

		return
	}

	b.telemetry.RecordDelivery("audio", "success")
	logger.Info("audio delivered",
		"title", outcome.Title,
		"file_size", outcome.FileSize,
		"upload_duration", time.Since(start).String(),
	)

	if _, err := b.client.Request(tgbotapi.NewDeleteMessage(chatID, placeholder.MessageID)); err != nil {
		logger.Warn("failed to delete placeholder", "err", err)
	}
}

func (b *Bot) editPlaceholder(ctx context.Context, placeholder tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(placeholder.Chat.ID, placeholder.MessageID, text)

	if _, err := b.client.Send(edit); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to edit placeholder", "err", err)
	}
}
