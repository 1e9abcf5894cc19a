// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-guess-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
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
		)
	`)
	return err
}

func completedRecord(chatID, winnerID int64, tag string, finishedAt time.Time) *model.GameRecord {
	return &model.GameRecord{
		ChatID:      chatID,
		OwnerID:     1,
		Outcome:     model.OutcomeCompleted,
		Capacity:    5,
		PlayerCount: 5,
		WinnerID:    &winnerID,
		WinnerTag:   &tag,
		StakeTotal:  "5000000000",
		FinishedAt:  finishedAt,
	}
}

func TestHistoryRepository_RecordGame(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	stored, err := repo.RecordGame(ctx, completedRecord(100, 42, "alice", time.Now()))
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	assert.Equal(t, int64(100), stored.ChatID)
	assert.Equal(t, model.OutcomeCompleted, stored.Outcome)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, int64(42), *stored.WinnerID)
}

func TestHistoryRepository_RecordCancelledGame(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	// Cancelled games have no winner.
	stored, err := repo.RecordGame(ctx, &model.GameRecord{
		ChatID:      100,
		OwnerID:     1,
		Outcome:     model.OutcomeCancelled,
		Capacity:    5,
		PlayerCount: 2,
		StakeTotal:  "5000000000",
		FinishedAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.Nil(t, stored.WinnerID)
	assert.Nil(t, stored.WinnerTag)
}

func TestHistoryRepository_TopWinners(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	// alice wins twice, bob once; carol wins in another chat.
	_, err := repo.RecordGame(ctx, completedRecord(100, 1, "alice", base))
	require.NoError(t, err)
	_, err = repo.RecordGame(ctx, completedRecord(100, 2, "bob", base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = repo.RecordGame(ctx, completedRecord(100, 1, "alice_new", base.Add(2*time.Minute)))
	require.NoError(t, err)
	_, err = repo.RecordGame(ctx, completedRecord(200, 3, "carol", base.Add(3*time.Minute)))
	require.NoError(t, err)

	ranks, err := repo.TopWinners(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 2)

	assert.Equal(t, int64(1), ranks[0].WinnerID)
	assert.Equal(t, int64(2), ranks[0].Wins)
	// The tag from the most recent win is reported.
	assert.Equal(t, "alice_new", ranks[0].WinnerTag)

	assert.Equal(t, int64(2), ranks[1].WinnerID)
	assert.Equal(t, int64(1), ranks[1].Wins)
}

func TestHistoryRepository_TopWinnersExcludesNonWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	_, err := repo.RecordGame(ctx, &model.GameRecord{
		ChatID:      100,
		OwnerID:     1,
		Outcome:     model.OutcomeExpired,
		Capacity:    5,
		PlayerCount: 1,
		StakeTotal:  "5000000000",
		FinishedAt:  time.Now(),
	})
	require.NoError(t, err)

	ranks, err := repo.TopWinners(ctx, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestHistoryRepository_CountGames(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	count, err := repo.CountGames(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = repo.RecordGame(ctx, completedRecord(100, 1, "alice", time.Now()))
	require.NoError(t, err)

	count, err = repo.CountGames(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
