package handler

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/config"
	"telegram-guess-bot/internal/pkg/amount"
	"telegram-guess-bot/internal/pkg/paylink"
	"telegram-guess-bot/internal/pkg/tag"
)

// PayHandler handles payment link commands.
type PayHandler struct {
	cfg   *config.Config
	links *paylink.Builder
}

// NewPayHandler creates a PayHandler.
func NewPayHandler(cfg *config.Config, links *paylink.Builder) *PayHandler {
	return &PayHandler{cfg: cfg, links: links}
}

// HandleLink handles the /link command: /link [tag] [amount].
// With no tag the sender's own tag is used; a single argument that parses
// as an amount is treated as the amount.
func (h *PayHandler) HandleLink(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()

	var (
		target  string
		sum     amount.Amount
		withSum bool
	)

	switch len(args) {
	case 0:
		// Sender's own link.
	case 1:
		if parsed, ok := amount.Parse(args[0]); ok {
			sum, withSum = parsed, true
		} else {
			target = args[0]
		}
	default:
		target = args[0]
		parsed, ok := amount.Parse(args[1])
		if !ok {
			return c.Reply("❌ Usage: /link [tag] [amount]\nExample: /link alice 25")
		}
		sum, withSum = parsed, true
	}

	if target == "" {
		name := sender.Username
		if name == "" {
			name = sender.FirstName
		}
		target = name
	}

	normalized, ok := tag.Normalize(target)
	if !ok {
		return c.Reply("❌ That name has no characters usable as a tag")
	}

	var link string
	if withSum {
		link = h.links.BuildWithAmount(normalized, sum)
	} else {
		link = h.links.Build(normalized)
	}

	msg := fmt.Sprintf("💸 Send %s to @%s:\n%s", h.cfg.Payment.TokenSymbol, normalized, link)
	return c.Reply(msg)
}
