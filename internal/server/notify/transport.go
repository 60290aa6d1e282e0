package notify

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

// Transport delivers one message to one external destination.
type Transport interface {
	Send(ctx context.Context, chatID, text string) error
}

// telegramTransport sends through the Telegram Bot API.
type telegramTransport struct {
	bot *bot.Bot
}

func newTelegramTransport(token, apiURL string) (*telegramTransport, error) {
	opts := []bot.Option{
		bot.WithSkipGetMe(),
	}
	if apiURL != "" {
		opts = append(opts, bot.WithServerURL(apiURL))
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, oops.With("context", "creating telegram bot").Wrap(err)
	}
	return &telegramTransport{bot: b}, nil
}

func (t *telegramTransport) Send(ctx context.Context, chatID, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return oops.With("chat_id", chatID).Wrap(err)
	}
	return nil
}
