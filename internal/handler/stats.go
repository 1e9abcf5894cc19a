package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/repository"
)

// ChampionsLimit is the number of winners shown by /champions.
const ChampionsLimit = 10

// StatsHandler serves game history statistics.
type StatsHandler struct {
	history *repository.HistoryRepository
}

// NewStatsHandler creates a StatsHandler. history may be nil when the
// database is disabled.
func NewStatsHandler(history *repository.HistoryRepository) *StatsHandler {
	return &StatsHandler{history: history}
}

// HandleChampions handles the /champions command.
func (h *StatsHandler) HandleChampions(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if h.history == nil {
		return c.Reply("📊 Game history is not enabled on this bot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ranks, err := h.history.TopWinners(ctx, chat.ID, ChampionsLimit)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load champions")
		return c.Reply("❌ Failed to load the champions board")
	}
	if len(ranks) == 0 {
		return c.Reply("📊 No completed games in this chat yet")
	}

	msg := "🏆 Guess champions\n"
	msg += "━━━━━━━━━━━━━━━\n"
	medals := []string{"🥇", "🥈", "🥉"}
	for i, r := range ranks {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		msg += fmt.Sprintf("%s @%s — %d wins\n", prefix, r.WinnerTag, r.Wins)
	}
	return c.Reply(msg)
}
