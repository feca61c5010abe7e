// Package notify pushes terminal pipeline outcomes to a Telegram chat so
// operators hear about finished or failed runs without polling the logs.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"botstudio/internal/config"
)

// Notifier sends one-way operational messages. A nil Notifier is valid
// and drops everything, so callers never guard their sends.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier creates a Telegram notifier, or nil when notifications are
// disabled in the config.
func NewNotifier(cfg *config.Config, logger *zap.Logger) (*Notifier, error) {
	if !cfg.Notifications.Enabled || cfg.Notifications.TelegramBotToken == "" {
		logger.Info("Notifications are disabled (notifications.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	logger.Info("Notification bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Notifier{
		api:    botAPI,
		chatID: cfg.Notifications.TelegramChatID,
		logger: logger,
	}, nil
}

// PipelineFinished reports a terminal pipeline outcome for the bot.
func (n *Notifier) PipelineFinished(bot, activity, status, exception string) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("Bot %s: %s finished with status %s", bot, activity, status)
	if exception != "" {
		text += "\nException: " + exception
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send notification", zap.Error(err))
	}
}
