package guess

import (
	"math/big"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestSessionCapacityInvariantProperty checks that no sequence of AddPlayer
// calls can push the player list past capacity, and that the session flips
// to Completed on exactly the admission that fills it.
func TestSessionCapacityInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		winningPos := rapid.IntRange(1, capacity).Draw(t, "winningPos")
		attempts := rapid.IntRange(0, 40).Draw(t, "attempts")

		s, err := newSession(1, 1, capacity, winningPos, big.NewInt(100), nil, time.Unix(0, 0))
		if err != nil {
			t.Fatalf("newSession: %v", err)
		}

		// User IDs drawn from a small pool so duplicates actually happen.
		for i := 0; i < attempts; i++ {
			id := int64(rapid.IntRange(1, 25).Draw(t, "userID"))
			before := s.PlayerCount()
			pos, completed := s.AddPlayer(Player{UserID: id, Tag: "p"})

			if s.PlayerCount() > capacity {
				t.Fatalf("player count %d exceeds capacity %d", s.PlayerCount(), capacity)
			}
			if pos == -1 && s.PlayerCount() != before {
				t.Fatalf("rejected admission mutated the session")
			}
			if completed != (pos != -1 && s.PlayerCount() == capacity) {
				t.Fatalf("completed=%v inconsistent with pos=%d count=%d capacity=%d",
					completed, pos, s.PlayerCount(), capacity)
			}
		}

		if s.PlayerCount() == capacity && s.State() != StateCompleted {
			t.Fatalf("full session not completed")
		}
	})
}

// TestSessionWinnerDeterminismProperty checks that for any capacity N and
// winning position k, the winner is exactly the k-th admitted player.
func TestSessionWinnerDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 15).Draw(t, "capacity")
		winningPos := rapid.IntRange(1, capacity).Draw(t, "winningPos")

		s, err := newSession(1, 1, capacity, winningPos, big.NewInt(100), nil, time.Unix(0, 0))
		if err != nil {
			t.Fatalf("newSession: %v", err)
		}

		for i := 1; i <= capacity; i++ {
			if _, ok := s.Winner(); ok {
				t.Fatalf("winner observable before completion")
			}
			pos, _ := s.AddPlayer(Player{UserID: int64(i), Tag: "p"})
			if pos != i {
				t.Fatalf("admission order broken: expected position %d, got %d", i, pos)
			}
		}

		winner, ok := s.Winner()
		if !ok {
			t.Fatalf("no winner after filling session")
		}
		if winner.UserID != int64(winningPos) {
			t.Fatalf("winner %d, expected player at position %d", winner.UserID, winningPos)
		}
	})
}

// TestSessionTerminalImmutabilityProperty checks that once a session is
// terminal, AddPlayer and Cancel leave it untouched.
func TestSessionTerminalImmutabilityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 10).Draw(t, "capacity")
		cancelInstead := rapid.Bool().Draw(t, "cancelInstead")

		s, err := newSession(1, 1, capacity, 1, big.NewInt(100), nil, time.Unix(0, 0))
		if err != nil {
			t.Fatalf("newSession: %v", err)
		}

		if cancelInstead {
			s.Cancel(CancelReason{Kind: CancelExpired})
		} else {
			for i := 1; i <= capacity; i++ {
				s.AddPlayer(Player{UserID: int64(i), Tag: "p"})
			}
		}

		state := s.State()
		count := s.PlayerCount()

		ops := rapid.IntRange(1, 10).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(t, "addOrCancel") {
				if pos, _ := s.AddPlayer(Player{UserID: int64(1000 + i), Tag: "x"}); pos != -1 {
					t.Fatalf("terminal session admitted a player")
				}
			} else {
				if s.Cancel(CancelReason{Kind: CancelByOwner}) {
					t.Fatalf("terminal session accepted a cancel")
				}
			}
		}

		if s.State() != state || s.PlayerCount() != count {
			t.Fatalf("terminal session mutated: state %v->%v count %d->%d",
				state, s.State(), count, s.PlayerCount())
		}
	})
}
