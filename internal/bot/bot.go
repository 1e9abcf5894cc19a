// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/config"
	"telegram-guess-bot/internal/handler"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	guessHandler *handler.GuessHandler
	payHandler   *handler.PayHandler
	statsHandler *handler.StatsHandler
	helpHandler  *handler.HelpHandler
}

// Dependencies holds the handlers the bot surface routes to.
type Dependencies struct {
	Config       *config.Config
	GuessHandler *handler.GuessHandler
	PayHandler   *handler.PayHandler
	StatsHandler *handler.StatsHandler
	HelpHandler  *handler.HelpHandler
}

// NewTelebot creates the underlying telebot instance. It is built before
// the handlers so they can share it (notifier, admin lookups).
func NewTelebot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	return tele.NewBot(pref)
}

// New wires the bot surface onto an existing telebot instance.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:          teleBot,
		cfg:          deps.Config,
		guessHandler: deps.GuessHandler,
		payHandler:   deps.PayHandler,
		statsHandler: deps.StatsHandler,
		helpHandler:  deps.HelpHandler,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.helpHandler.HandleHelp)
	b.bot.Handle("/help", b.helpHandler.HandleHelp)

	b.bot.Handle("/guess", b.guessHandler.HandleGuessStart)
	b.bot.Handle("/kill", b.guessHandler.HandleKill)

	b.bot.Handle("/link", b.payHandler.HandleLink)
	b.bot.Handle("/champions", b.statsHandler.HandleChampions)

	b.bot.Handle(tele.OnCallback, b.guessHandler.HandleJoinCallback)
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
