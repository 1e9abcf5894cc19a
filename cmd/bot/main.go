// Package main is the entry point for the Telegram guess bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-guess-bot/internal/bot"
	"telegram-guess-bot/internal/config"
	"telegram-guess-bot/internal/guess"
	"telegram-guess-bot/internal/handler"
	"telegram-guess-bot/internal/notify"
	"telegram-guess-bot/internal/pkg/admincache"
	"telegram-guess-bot/internal/pkg/amount"
	"telegram-guess-bot/internal/pkg/db"
	"telegram-guess-bot/internal/pkg/lock"
	"telegram-guess-bot/internal/pkg/paylink"
	"telegram-guess-bot/internal/repository"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	stakeBase, ok := amount.Parse(cfg.Guess.StakeBase)
	if !ok {
		log.Fatal().Str("stake_base", cfg.Guess.StakeBase).Msg("Invalid guess.stake_base")
	}
	surgeStep, ok := amount.Parse(cfg.Guess.Surge.Step)
	if !ok {
		log.Fatal().Str("surge_step", cfg.Guess.Surge.Step).Msg("Invalid guess.surge.step")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Game history is optional: without a database host the bot runs with
	// history disabled.
	var historyRepo *repository.HistoryRepository
	if cfg.Database.Enabled() {
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		if err := runMigrations(ctx, dbPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		historyRepo = repository.NewHistoryRepository(dbPool.Pool)
	} else {
		log.Info().Msg("No database host configured, game history disabled")
	}

	teleBot, err := bot.NewTelebot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	clk := clock.New()
	notifier := notify.NewTelegramNotifier(teleBot, 10*time.Second)

	store := guess.NewStore(nil, clk)
	surge := guess.NewSurgeTracker(clk, cfg.Guess.Surge.Cooldown, surgeStep.Units)
	agg := guess.NewAggregator(store, surge, notifier, clk, cfg.Guess.JoinWindow, cfg.Payment.TokenSymbol)

	chatLock := lock.NewChatLock()
	admins := admincache.NewDirectory(notifier, cfg.Admin.CacheTTL)
	links := paylink.NewBuilder(cfg.Payment.LinkBase)

	var recorder handler.Recorder
	if historyRepo != nil {
		recorder = historyRepo
	}

	guessHandler := handler.NewGuessHandler(cfg, store, surge, agg, chatLock, admins, clk, recorder, stakeBase)
	agg.OnCompleted = guessHandler.RecordCompletion

	deps := &bot.Dependencies{
		Config:       cfg,
		GuessHandler: guessHandler,
		PayHandler:   handler.NewPayHandler(cfg, links),
		StatsHandler: handler.NewStatsHandler(historyRepo),
		HelpHandler:  handler.NewHelpHandler(),
	}

	telegramBot := bot.New(teleBot, deps)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS guess_games (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			owner_id BIGINT NOT NULL,
			outcome VARCHAR(20) NOT NULL,
			capacity INT NOT NULL,
			player_count INT NOT NULL,
			winner_id BIGINT,
			winner_tag VARCHAR(64),
			stake_total TEXT NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_guess_games_chat_time ON guess_games(chat_id, finished_at DESC);
		CREATE INDEX IF NOT EXISTS idx_guess_games_winner ON guess_games(chat_id, winner_id) WHERE winner_id IS NOT NULL;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: guess_games table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
