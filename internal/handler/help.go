package handler

import (
	tele "gopkg.in/telebot.v3"
)

// HelpHandler serves the command overview.
type HelpHandler struct{}

// NewHelpHandler creates a HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// HandleHelp handles the /help and /start commands.
func (h *HelpHandler) HandleHelp(c tele.Context) error {
	msg := "🎲 Guess bot\n"
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "/guess [stake] [players] — start a guess game\n"
	msg += "/kill — cancel the running game (starter or admin)\n"
	msg += "/link [tag] [amount] — payment link for a tag\n"
	msg += "/champions — top winners in this chat\n"
	msg += "/help — this message\n"
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "Tap the Join button on a game panel to grab a spot. "
	msg += "When the last spot fills, one player takes the pot!"
	return c.Reply(msg)
}
