// Package notify delivers join outcomes and panel updates through the
// Telegram Bot API, retrying transient transport failures.
package notify

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/guess"
	"telegram-guess-bot/internal/pkg/retry"
)

// TelegramNotifier implements guess.Notifier on top of a telebot instance.
// Every call is best-effort: failures are retried per ClassifyError and
// finally logged, never propagated back into batch resolution.
type TelegramNotifier struct {
	bot     *tele.Bot
	timeout time.Duration
}

// NewTelegramNotifier creates a TelegramNotifier. timeout bounds the retry
// loop of a single delivery.
func NewTelegramNotifier(bot *tele.Bot, timeout time.Duration) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{bot: bot, timeout: timeout}
}

// Ack answers a callback query with a toast.
func (n *TelegramNotifier) Ack(t guess.AckToken, text string) {
	n.respond(t, text, false)
}

// AckAlert answers a callback query with a popup alert.
func (n *TelegramNotifier) AckAlert(t guess.AckToken, text string) {
	n.respond(t, text, true)
}

func (n *TelegramNotifier) respond(t guess.AckToken, text string, alert bool) {
	err := n.deliver(func() error {
		return n.bot.Respond(
			&tele.Callback{ID: string(t)},
			&tele.CallbackResponse{Text: text, ShowAlert: alert},
		)
	})
	if err != nil {
		log.Warn().Err(err).Str("callback_id", string(t)).Msg("Failed to answer callback")
	}
}

// EditPanel rewrites the live session message, keeping the join button.
func (n *TelegramNotifier) EditPanel(ref guess.MessageRef, text string) {
	msg := storedMessage(ref)
	err := n.deliver(func() error {
		_, e := n.bot.Edit(msg, text, guess.JoinKeyboard())
		return e
	})
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Failed to edit panel")
	}
}

// DeletePanel removes the collecting-phase message.
func (n *TelegramNotifier) DeletePanel(ref guess.MessageRef) {
	msg := storedMessage(ref)
	err := n.deliver(func() error {
		return n.bot.Delete(msg)
	})
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Failed to delete panel")
	}
}

// AnnounceWinner posts the settlement message to the chat.
func (n *TelegramNotifier) AnnounceWinner(chatID int64, text string) {
	err := n.deliver(func() error {
		_, e := n.bot.Send(tele.ChatID(chatID), text)
		return e
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to announce winner")
	}
}

// ChatAdmins fetches the administrator user IDs of a chat. It satisfies
// admincache.AdminSource.
func (n *TelegramNotifier) ChatAdmins(chatID int64) ([]int64, error) {
	var members []tele.ChatMember
	err := n.deliver(func() error {
		var e error
		members, e = n.bot.AdminsOf(&tele.Chat{ID: chatID})
		return e
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
		}
	}
	return ids, nil
}

func (n *TelegramNotifier) deliver(op func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	return retry.Do(ctx, op, ClassifyError)
}

func storedMessage(ref guess.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
}

// ClassifyError maps a Telegram API error to a retry decision.
//
// Flood errors are transient with the server's retry-after hint. Errors
// meaning "the state you wanted is already there" (message gone, nothing
// modified, callback expired) count as success. Remaining API errors are
// permanent; network-level failures are retried.
func ClassifyError(err error) retry.Decision {
	if err == nil {
		return retry.Decision{Class: retry.ClassOK}
	}

	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return retry.Decision{
			Class:      retry.ClassTransient,
			RetryAfter: time.Duration(floodErr.RetryAfter) * time.Second,
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "message is not modified"),
		strings.Contains(msg, "message to delete not found"),
		strings.Contains(msg, "message to edit not found"),
		strings.Contains(msg, "query is too old"):
		return retry.Decision{Class: retry.ClassOK}
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			return retry.Decision{Class: retry.ClassTransient}
		}
		return retry.Decision{Class: retry.ClassFatal}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retry.Decision{Class: retry.ClassTransient}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return retry.Decision{Class: retry.ClassTransient}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return retry.Decision{Class: retry.ClassTransient}
	}

	return retry.Decision{Class: retry.ClassFatal}
}
