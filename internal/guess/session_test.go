package guess

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSession(t *testing.T, capacity, winningPos int) *Session {
	t.Helper()
	s, err := newSession(100, 1, capacity, winningPos, big.NewInt(5000), big.NewInt(0), time.Unix(1700000000, 0))
	require.NoError(t, err)
	return s
}

func TestNewSessionRejectsInvalidCapacity(t *testing.T) {
	_, err := newSession(100, 1, 0, 1, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = newSession(100, 1, -3, 1, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestAddPlayerFillsAndCompletes(t *testing.T) {
	s := mustSession(t, 3, 2)

	pos, done := s.AddPlayer(Player{UserID: 11, Tag: "u1"})
	assert.Equal(t, 1, pos)
	assert.False(t, done)
	assert.Equal(t, StateCollecting, s.State())

	pos, done = s.AddPlayer(Player{UserID: 12, Tag: "u2"})
	assert.Equal(t, 2, pos)
	assert.False(t, done)

	pos, done = s.AddPlayer(Player{UserID: 13, Tag: "u3"})
	assert.Equal(t, 3, pos)
	assert.True(t, done)
	assert.Equal(t, StateCompleted, s.State())

	winner, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, int64(12), winner.UserID)
	assert.Equal(t, "u2", winner.Tag)
}

func TestAddPlayerDuplicateIsNoOp(t *testing.T) {
	s := mustSession(t, 3, 1)

	pos, _ := s.AddPlayer(Player{UserID: 11, Tag: "u1"})
	require.Equal(t, 1, pos)

	before := s.Players()
	pos, done := s.AddPlayer(Player{UserID: 11, Tag: "u1"})
	assert.Equal(t, -1, pos)
	assert.False(t, done)
	assert.Equal(t, before, s.Players())
	assert.Equal(t, StateCollecting, s.State())
}

func TestWinnerHiddenWhileCollecting(t *testing.T) {
	s := mustSession(t, 3, 2)
	s.AddPlayer(Player{UserID: 11, Tag: "u1"})

	_, ok := s.Winner()
	assert.False(t, ok)
}

func TestAddPlayerAfterTerminalIsNoOp(t *testing.T) {
	s := mustSession(t, 1, 1)
	pos, done := s.AddPlayer(Player{UserID: 11, Tag: "u1"})
	require.Equal(t, 1, pos)
	require.True(t, done)

	pos, done = s.AddPlayer(Player{UserID: 12, Tag: "u2"})
	assert.Equal(t, -1, pos)
	assert.False(t, done)
	assert.Equal(t, 1, s.PlayerCount())

	cancelled := mustSession(t, 2, 1)
	require.True(t, cancelled.Cancel(CancelReason{Kind: CancelByOwner}))
	pos, _ = cancelled.AddPlayer(Player{UserID: 13, Tag: "u3"})
	assert.Equal(t, -1, pos)
}

func TestCancelIsTerminalAndIdempotent(t *testing.T) {
	s := mustSession(t, 3, 1)

	ok := s.Cancel(CancelReason{Kind: CancelByAdmin, AdminID: 99})
	require.True(t, ok)
	assert.Equal(t, StateCancelled, s.State())

	reason, have := s.CancelledFor()
	require.True(t, have)
	assert.Equal(t, CancelByAdmin, reason.Kind)
	assert.Equal(t, int64(99), reason.AdminID)

	// Second cancel does not overwrite the reason.
	assert.False(t, s.Cancel(CancelReason{Kind: CancelByOwner}))
	reason, _ = s.CancelledFor()
	assert.Equal(t, CancelByAdmin, reason.Kind)

	// Completed sessions cannot be cancelled either.
	full := mustSession(t, 1, 1)
	full.AddPlayer(Player{UserID: 1, Tag: "a"})
	assert.False(t, full.Cancel(CancelReason{Kind: CancelExpired}))
	assert.Equal(t, StateCompleted, full.State())
}

func TestStakeTotal(t *testing.T) {
	s, err := newSession(100, 1, 2, 1, big.NewInt(5000), big.NewInt(1500), time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(5000), s.StakeBase().Int64())
	assert.Equal(t, int64(1500), s.StakeSurge().Int64())
	assert.Equal(t, int64(6500), s.StakeTotal().Int64())

	// Accessors hand out copies; mutating them must not touch the session.
	s.StakeBase().SetInt64(1)
	assert.Equal(t, int64(5000), s.StakeBase().Int64())
}

func TestDescribe(t *testing.T) {
	s := mustSession(t, 2, 1)
	assert.Equal(t, "collecting 0/2", s.Describe())

	s.AddPlayer(Player{UserID: 1, Tag: "alice"})
	assert.Equal(t, "collecting 1/2", s.Describe())

	s.AddPlayer(Player{UserID: 2, Tag: "bob"})
	assert.Equal(t, "completed 2/2, winner @alice", s.Describe())

	c := mustSession(t, 2, 1)
	c.Cancel(CancelReason{Kind: CancelExpired})
	assert.Equal(t, "cancelled at 0/2", c.Describe())
}
