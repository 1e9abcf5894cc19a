// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-guess-bot/internal/model"
)

// HistoryRepository persists finished guess games.
// Only terminal results are stored; live sessions stay in memory.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository instance.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// RecordGame appends one finished game to the history table and returns
// the stored record with its assigned ID.
func (r *HistoryRepository) RecordGame(ctx context.Context, rec *model.GameRecord) (*model.GameRecord, error) {
	const query = `
		INSERT INTO guess_games (chat_id, owner_id, outcome, capacity, player_count, winner_id, winner_tag, stake_total, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	stored := *rec
	err := r.pool.QueryRow(ctx, query,
		rec.ChatID,
		rec.OwnerID,
		rec.Outcome,
		rec.Capacity,
		rec.PlayerCount,
		rec.WinnerID,
		rec.WinnerTag,
		rec.StakeTotal,
		rec.FinishedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record game: %w", err)
	}

	return &stored, nil
}

// TopWinners retrieves the top N winners by completed game wins in a chat.
// The tag shown is the one used in the player's most recent win.
func (r *HistoryRepository) TopWinners(ctx context.Context, chatID int64, limit int) ([]*model.ChampionRank, error) {
	const query = `
		SELECT winner_id,
		       (ARRAY_AGG(winner_tag ORDER BY finished_at DESC))[1] AS winner_tag,
		       COUNT(*) AS wins
		FROM guess_games
		WHERE chat_id = $1 AND outcome = 'completed' AND winner_id IS NOT NULL
		GROUP BY winner_id
		ORDER BY wins DESC, MAX(finished_at) DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top winners: %w", err)
	}
	defer rows.Close()

	var ranks []*model.ChampionRank
	for rows.Next() {
		var rank model.ChampionRank
		if err := rows.Scan(&rank.WinnerID, &rank.WinnerTag, &rank.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan winner rank: %w", err)
		}
		ranks = append(ranks, &rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating winner ranks: %w", err)
	}

	return ranks, nil
}

// CountGames returns the number of recorded games for a chat.
func (r *HistoryRepository) CountGames(ctx context.Context, chatID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM guess_games WHERE chat_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}
