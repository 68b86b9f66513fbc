package notifier

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Notify(content string) error
}

// TelegramNotifier sends operational alerts to the configured admin
// chats through the same bot account that serves users.
type TelegramNotifier struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewTelegramNotifier(api *tgbotapi.BotAPI, chatIDs []int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatIDs: chatIDs}
}

func (n *TelegramNotifier) Notify(content string) error {
	if len(n.chatIDs) == 0 {
		return fmt.Errorf("no admin chats configured")
	}

	var errs []error

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, content)

		if _, err := n.api.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("failed to notify chat %d: %w", chatID, err))
		}
	}

	return errors.Join(errs...)
}
