// Package notify dispatches notifications to the Telegram channel.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}

	return &Telegram{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Dispatch sends html as a new channel message, or edits the existing one in
// place when existingID is non-zero. The text must already be sanitized to
// the allowed tag set; sanitizing here again would re-escape entities the
// extractors produced.
func (t *Telegram) Dispatch(ctx context.Context, html string, existingID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("dispatch: %w", err)
	}

	if existingID != 0 {
		edit := tgbotapi.NewEditMessageText(t.chatID, int(existingID), html)
		edit.ParseMode = tgbotapi.ModeHTML

		msg, err := t.api.Send(edit)
		if err != nil {
			return 0, fmt.Errorf("edit message %d: %w", existingID, err)
		}

		return int64(msg.MessageID), nil
	}

	send := tgbotapi.NewMessage(t.chatID, html)
	send.ParseMode = tgbotapi.ModeHTML
	send.DisableWebPagePreview = true

	msg, err := t.api.Send(send)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	return int64(msg.MessageID), nil
}
