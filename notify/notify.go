// Package notify posts transaction outcomes to Telegram.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram sends terminal transaction outcomes to a configured chat. It
// satisfies tracker.Notifier.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("telegram notifier ready")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Notify posts a single outcome message. Delivery failures are logged and
// swallowed; notifications never affect the transaction flow.
func (t *Telegram) Notify(description, txHash, outcome string) {
	text := fmt.Sprintf("%s %s\n`%s`", description, outcome, txHash)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		log.Warn().Err(err).Str("tx", txHash).Msg("telegram send failed")
	}
}
