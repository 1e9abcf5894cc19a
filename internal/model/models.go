// Package model defines the data models for the guess bot.
package model

import "time"

// GameOutcome classifies how a guess game ended.
type GameOutcome string

// Game outcomes recorded in history.
const (
	OutcomeCompleted GameOutcome = "completed"
	OutcomeCancelled GameOutcome = "cancelled"
	OutcomeExpired   GameOutcome = "expired"
)

// GameRecord is one finished guess game as persisted to the history table.
// Live session state is never persisted; records are written once, after the
// session reaches a terminal state.
type GameRecord struct {
	ID          int64       `db:"id"`
	ChatID      int64       `db:"chat_id"`
	OwnerID     int64       `db:"owner_id"`
	Outcome     GameOutcome `db:"outcome"`
	Capacity    int         `db:"capacity"`
	PlayerCount int         `db:"player_count"`
	WinnerID    *int64      `db:"winner_id"`
	WinnerTag   *string     `db:"winner_tag"`
	StakeTotal  string      `db:"stake_total"` // smallest units, decimal text
	FinishedAt  time.Time   `db:"finished_at"`
}

// ChampionRank is one row of the all-time winner ranking.
type ChampionRank struct {
	WinnerID  int64  `db:"winner_id"`
	WinnerTag string `db:"winner_tag"`
	Wins      int64  `db:"wins"`
}
