package guess

import (
	"fmt"

	"telegram-guess-bot/internal/pkg/amount"
)

// Short statuses used to answer join taps.
const (
	MsgNoTag         = "❌ Your name has no characters usable as a tag. Set a Telegram username and try again"
	MsgNoActiveGame  = "❌ No active game in this chat"
	MsgAlreadyJoined = "✋ You're already in this game"
	MsgGameFull      = "❌ Too slow! The game filled up before your tap"
	MsgYouWon        = "🎉 You WON this round!"
)

// FormatJoinedAck answers an admitted player while the game keeps collecting.
func FormatJoinedAck(pos, capacity int) string {
	return fmt.Sprintf("✅ You're in! Spot %d of %d", pos, capacity)
}

// FormatLostAck answers an admitted player whose batch completed the game
// without them winning.
func FormatLostAck(pos int) string {
	return fmt.Sprintf("😢 Spot %d — not a winner this time", pos)
}

// FormatPanel renders the live collecting-phase message.
func FormatPanel(s *Session, symbol string) string {
	msg := "🎲 Guess — who takes the pot?\n"
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("👥 %d / %d joined\n", s.PlayerCount(), s.Capacity())
	msg += fmt.Sprintf("💰 Stake: %s %s", amount.FormatUnits(s.StakeTotal()), symbol)
	if s.StakeSurge().Sign() > 0 {
		msg += fmt.Sprintf(" (includes %s surge)", amount.FormatUnits(s.StakeSurge()))
	}
	msg += "\n\nTap the button to grab a spot. One winner takes all!"
	return msg
}

// FormatWinnerAnnouncement renders the settlement message that replaces the
// panel when the game fills.
func FormatWinnerAnnouncement(s *Session, winner Player, symbol string) string {
	msg := "🏆 Guess — game over!\n"
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("🎉 @%s wins!\n", winner.Tag)
	msg += fmt.Sprintf("💰 Stake: %s %s × %d players\n", amount.FormatUnits(s.StakeTotal()), symbol, s.Capacity())
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("Settle up: send @%s your stake", winner.Tag)
	return msg
}

// FormatCancelled renders the notice the panel is edited into when a game
// is called off.
func FormatCancelled(s *Session, reason CancelReason) string {
	msg := "🚫 Guess — game cancelled\n"
	switch reason.Kind {
	case CancelByOwner:
		msg += "The starter called it off."
	case CancelByAdmin:
		msg += "An admin called it off."
	case CancelExpired:
		msg += fmt.Sprintf("Nobody filled the last spots (%d/%d joined).", s.PlayerCount(), s.Capacity())
	default:
		msg += "Something went wrong on our side."
	}
	return msg
}
