// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/config"
	"telegram-guess-bot/internal/guess"
	"telegram-guess-bot/internal/model"
	"telegram-guess-bot/internal/pkg/admincache"
	"telegram-guess-bot/internal/pkg/amount"
	"telegram-guess-bot/internal/pkg/lock"
)

// Recorder persists finished games. Nil when history is disabled.
type Recorder interface {
	RecordGame(ctx context.Context, rec *model.GameRecord) (*model.GameRecord, error)
}

// GuessHandler handles the guess game lifecycle commands.
type GuessHandler struct {
	cfg       *config.Config
	store     *guess.Store
	surge     *guess.SurgeTracker
	agg       *guess.Aggregator
	chatLock  *lock.ChatLock
	admins    *admincache.Directory
	clock     clock.Clock
	recorder  Recorder
	stakeBase amount.Amount
}

// NewGuessHandler creates a GuessHandler. stakeBase is the configured
// minimum stake; recorder may be nil.
func NewGuessHandler(
	cfg *config.Config,
	store *guess.Store,
	surge *guess.SurgeTracker,
	agg *guess.Aggregator,
	chatLock *lock.ChatLock,
	admins *admincache.Directory,
	clk clock.Clock,
	recorder Recorder,
	stakeBase amount.Amount,
) *GuessHandler {
	if clk == nil {
		clk = clock.New()
	}
	return &GuessHandler{
		cfg:       cfg,
		store:     store,
		surge:     surge,
		agg:       agg,
		chatLock:  chatLock,
		admins:    admins,
		clock:     clk,
		recorder:  recorder,
		stakeBase: stakeBase,
	}
}

// HandleGuessStart handles the /guess command: /guess [stake] [capacity].
func (h *GuessHandler) HandleGuessStart(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Guess games can only be played in groups")
	}

	args := c.Args()

	stake := h.stakeBase
	if len(args) >= 1 {
		parsed, ok := amount.Parse(args[0])
		if !ok {
			return c.Reply(fmt.Sprintf("❌ Usage: /guess [stake] [players]\nExample: /guess %s %d", h.stakeBase.Display(), h.cfg.Guess.DefaultCapacity))
		}
		stake = parsed
	}

	capacity := h.cfg.Guess.DefaultCapacity
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 2 || n > h.cfg.Guess.MaxCapacity {
			return c.Reply(fmt.Sprintf("❌ Player count must be between 2 and %d", h.cfg.Guess.MaxCapacity))
		}
		capacity = n
	}

	return h.chatLock.WithLock(chat.ID, func() error {
		if _, ok := h.store.Get(chat.ID); ok {
			return c.Reply("❌ A guess game is already running in this chat")
		}

		// Record the start first so back-to-back games ramp the surge.
		h.surge.RecordActivity(chat.ID)
		surcharge := h.surge.Surcharge(chat.ID)

		// A stake below the configured minimum is raised, not rejected.
		if stake.Cmp(h.stakeBase) < 0 {
			stake = h.stakeBase
		}

		s, err := h.store.Create(chat.ID, sender.ID, capacity, stake.Units, surcharge)
		if err != nil {
			if errors.Is(err, guess.ErrSessionExists) {
				return c.Reply("❌ A guess game is already running in this chat")
			}
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to create guess session")
			return c.Reply("❌ Failed to start the game, please try again")
		}

		panelMsg, err := c.Bot().Send(chat, guess.FormatPanel(s, h.cfg.Payment.TokenSymbol), guess.JoinKeyboard())
		if err != nil {
			// Without a panel nobody can join; retire the session.
			h.store.CancelSession(s, guess.CancelReason{Kind: guess.CancelInternal, Detail: "panel send failed"})
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to send guess panel")
			return c.Reply("❌ Failed to start the game, please try again")
		}
		s.SetPanel(guess.MessageRef{ChatID: chat.ID, MessageID: panelMsg.ID})

		bot := c.Bot()
		h.clock.AfterFunc(h.cfg.Guess.ExpireAfter, func() {
			h.expire(bot, s)
		})

		log.Info().
			Int64("chat_id", chat.ID).
			Int64("owner_id", sender.ID).
			Int("capacity", capacity).
			Str("stake_total", s.StakeTotal().String()).
			Msg("Guess game started")
		return nil
	})
}

// expire auto-cancels a session that never filled. It is a no-op when the
// session already finished or was replaced.
func (h *GuessHandler) expire(bot *tele.Bot, s *guess.Session) {
	reason := guess.CancelReason{Kind: guess.CancelExpired}
	if !h.store.CancelSession(s, reason) {
		return
	}

	editPanel(bot, s.Panel(), guess.FormatCancelled(s, reason))
	h.recordOutcome(s, model.OutcomeExpired, nil)

	log.Info().
		Int64("chat_id", s.ChatID()).
		Int("players", s.PlayerCount()).
		Msg("Guess game expired")
}

// HandleKill handles the /kill command. The game owner can always cancel;
// anyone else must be a chat admin.
func (h *GuessHandler) HandleKill(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	return h.chatLock.WithLock(chat.ID, func() error {
		s, ok := h.store.Get(chat.ID)
		if !ok {
			return c.Reply("❌ No active game in this chat")
		}

		reason := guess.CancelReason{Kind: guess.CancelByOwner}
		if sender.ID != s.OwnerID() {
			isAdmin, err := h.admins.IsAdmin(chat.ID, sender.ID)
			if err != nil {
				log.Warn().Err(err).Int64("chat_id", chat.ID).Msg("Admin check failed")
				return c.Reply("❌ Could not verify permissions, please try again")
			}
			if !isAdmin {
				return c.Reply("❌ Only the game starter or a chat admin can cancel")
			}
			reason = guess.CancelReason{Kind: guess.CancelByAdmin, AdminID: sender.ID}
		}

		cancelled, err := h.store.Cancel(chat.ID, reason)
		if err != nil {
			return c.Reply("❌ No active game in this chat")
		}

		editPanel(c.Bot(), cancelled.Panel(), guess.FormatCancelled(cancelled, reason))
		h.recordOutcome(cancelled, model.OutcomeCancelled, nil)

		log.Info().
			Int64("chat_id", chat.ID).
			Int64("by", sender.ID).
			Int("players", cancelled.PlayerCount()).
			Msg("Guess game cancelled")
		return c.Reply("🚫 Game cancelled")
	})
}

// HandleJoinCallback handles taps on the panel's Join button. The answer is
// deferred: the aggregator acks the callback when the batch resolves.
func (h *GuessHandler) HandleJoinCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	chat := c.Chat()
	if callback == nil || sender == nil || chat == nil {
		return nil
	}

	if guess.DecodeCallback(callback.Data) != guess.ActionJoin {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown action"})
	}

	name := sender.Username
	if name == "" {
		name = sender.FirstName
	}
	h.agg.SubmitJoin(chat.ID, sender.ID, name, guess.AckToken(callback.ID))
	return nil
}

// RecordCompletion persists a completed game. Wired to the aggregator's
// OnCompleted hook.
func (h *GuessHandler) RecordCompletion(s *guess.Session, winner guess.Player) {
	h.recordOutcome(s, model.OutcomeCompleted, &winner)
}

// recordOutcome writes the game to history, best-effort and off the hot path.
func (h *GuessHandler) recordOutcome(s *guess.Session, outcome model.GameOutcome, winner *guess.Player) {
	if h.recorder == nil {
		return
	}

	rec := &model.GameRecord{
		ChatID:      s.ChatID(),
		OwnerID:     s.OwnerID(),
		Outcome:     outcome,
		Capacity:    s.Capacity(),
		PlayerCount: s.PlayerCount(),
		StakeTotal:  s.StakeTotal().String(),
		FinishedAt:  h.clock.Now(),
	}
	if winner != nil {
		id, tag := winner.UserID, winner.Tag
		rec.WinnerID = &id
		rec.WinnerTag = &tag
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.recorder.RecordGame(ctx, rec); err != nil {
			log.Error().Err(err).Int64("chat_id", rec.ChatID).Msg("Failed to record game history")
		}
	}()
}

// editPanel rewrites a panel message without a keyboard, for terminal notices.
func editPanel(bot *tele.Bot, ref guess.MessageRef, text string) {
	if ref.IsZero() {
		return
	}
	msg := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	if _, err := bot.Edit(msg, text); err != nil {
		log.Debug().Err(err).Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Failed to edit panel")
	}
}
