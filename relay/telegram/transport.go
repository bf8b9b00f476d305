// Package telegram binds the relay engine and admin console to telebot.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m3rciful/relaybot/relay/engine"

	tele "gopkg.in/telebot.v4"
)

// replyKey is the callback unique for the per-message reply button.
const replyKey = "reply"

// BotTransport delivers engine messages through a telebot instance. The
// reply action is rendered as a single inline button carrying the target id.
type BotTransport struct {
	bot *tele.Bot
}

// NewBotTransport wraps a bot as an engine transport.
func NewBotTransport(bot *tele.Bot) *BotTransport {
	return &BotTransport{bot: bot}
}

// Deliver sends text to a chat, attaching a reply button when asked to.
func (t *BotTransport) Deliver(ctx context.Context, recipientID int64, text string, action *engine.ReplyAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var opts []any
	if action != nil {
		opts = append(opts, ReplyMarkup(action.TargetID))
	}

	if _, err := t.bot.Send(tele.ChatID(recipientID), text, opts...); err != nil {
		return fmt.Errorf("send to %d: %w", recipientID, err)
	}
	return nil
}

// ReplyMarkup builds the inline keyboard with the reply button for a user.
func ReplyMarkup(targetID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	btn := markup.Data("Reply", replyKey, strconv.FormatInt(targetID, 10))
	markup.Inline(markup.Row(btn))
	return markup
}
