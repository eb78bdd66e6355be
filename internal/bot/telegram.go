// internal/bot/telegram.go
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Run long-polls Telegram and answers every text message until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	slog.Info("bot started", "username", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.reply(ctx, api, update.Message)
		}
	}
}

func (b *Bot) reply(ctx context.Context, api *tgbotapi.BotAPI, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	text := b.Handle(ctx, chatID, m.Text)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := api.Send(msg); err != nil {
		slog.Warn("send reply failed", "chat_id", chatID, "error", err)
	}

	// сообщение с паролем не стоит оставлять в истории
	if m.IsCommand() && m.Command() == "login" {
		if _, err := api.Request(tgbotapi.NewDeleteMessage(chatID, m.MessageID)); err != nil {
			slog.Debug("delete login message", "chat_id", chatID, "error", err)
		}
	}
}
