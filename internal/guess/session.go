// Package guess implements the guess lottery game: a chat-scoped session
// collects players who tap a Join button, and when the player list is full
// the player sitting at a position drawn at creation time wins the pot.
package guess

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Errors for guess game operations.
var (
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	ErrSessionExists   = errors.New("session already exists in this chat")
	ErrNoSession       = errors.New("no active session in this chat")
)

// State is the lifecycle phase of a Session.
type State int

const (
	// StateCollecting accepts new players.
	StateCollecting State = iota
	// StateCompleted is terminal: the player list filled and a winner exists.
	StateCompleted
	// StateCancelled is terminal: the game ended without a winner.
	StateCancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CancelKind classifies why a session was cancelled.
type CancelKind int

const (
	// CancelByOwner is a cancellation by the game starter.
	CancelByOwner CancelKind = iota
	// CancelByAdmin is a cancellation by a chat administrator.
	CancelByAdmin
	// CancelExpired is an automatic cancellation of a game that never filled.
	CancelExpired
	// CancelInternal is a cancellation forced by an internal failure.
	CancelInternal
)

// CancelReason carries the cancel kind plus its variant payload:
// AdminID for CancelByAdmin, Detail for CancelInternal.
type CancelReason struct {
	Kind    CancelKind
	AdminID int64
	Detail  string
}

// Player is one admitted participant.
type Player struct {
	UserID int64
	Tag    string
}

// MessageRef identifies the live panel message being edited in a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the ref points at no message.
func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Session is one guess game in one chat.
//
// The winning position is drawn uniformly from [1, capacity] before anyone
// joins and never re-rolled; since admission order follows network arrival
// order, the winner's identity stays unpredictable until the list is full.
// The position is unexported on purpose: it must not be readable before the
// session completes.
type Session struct {
	mu sync.Mutex

	chatID     int64
	ownerID    int64
	capacity   int
	winningPos int
	stakeBase  *big.Int
	stakeSurge *big.Int
	createdAt  time.Time

	state        State
	players      []Player
	cancelReason CancelReason
	panel        MessageRef
}

// newSession builds a Collecting session. winningPos must already be a
// uniform draw from [1, capacity]; the Store is the only production caller.
func newSession(chatID, ownerID int64, capacity, winningPos int, stakeBase, stakeSurge *big.Int, createdAt time.Time) (*Session, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if winningPos < 1 || winningPos > capacity {
		// Bookkeeping bug, not a user error.
		panic(fmt.Sprintf("guess: winning position %d outside [1, %d]", winningPos, capacity))
	}
	if stakeBase == nil {
		stakeBase = new(big.Int)
	}
	if stakeSurge == nil {
		stakeSurge = new(big.Int)
	}
	return &Session{
		chatID:     chatID,
		ownerID:    ownerID,
		capacity:   capacity,
		winningPos: winningPos,
		stakeBase:  new(big.Int).Set(stakeBase),
		stakeSurge: new(big.Int).Set(stakeSurge),
		createdAt:  createdAt,
		state:      StateCollecting,
		players:    make([]Player, 0, capacity),
	}, nil
}

// ChatID returns the chat this session belongs to.
func (s *Session) ChatID() int64 { return s.chatID }

// OwnerID returns the user who started the game.
func (s *Session) OwnerID() int64 { return s.ownerID }

// Capacity returns the fixed player capacity.
func (s *Session) Capacity() int { return s.capacity }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerCount returns the number of admitted players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Players returns a copy of the admitted players in admission order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, len(s.players))
	copy(out, s.players)
	return out
}

// HasPlayer reports whether the user has already been admitted.
func (s *Session) HasPlayer(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPlayerLocked(userID)
}

func (s *Session) hasPlayerLocked(userID int64) bool {
	for _, p := range s.players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// StakeBase returns the base stake in smallest units.
func (s *Session) StakeBase() *big.Int { return new(big.Int).Set(s.stakeBase) }

// StakeSurge returns the surge portion of the stake in smallest units.
func (s *Session) StakeSurge() *big.Int { return new(big.Int).Set(s.stakeSurge) }

// StakeTotal returns base + surge in smallest units.
func (s *Session) StakeTotal() *big.Int {
	return new(big.Int).Add(s.stakeBase, s.stakeSurge)
}

// Panel returns the ref of the live panel message.
func (s *Session) Panel() MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// SetPanel records the panel message ref after the display message is sent
// or replaced.
func (s *Session) SetPanel(ref MessageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel = ref
}

// AddPlayer admits a player, returning their 1-based position and whether
// this admission filled the session. It is a no-op returning (-1, false)
// when the session is not collecting or the user is already in.
//
// Callers admit one distinct player at a time, in arrival order; batching is
// the aggregator's job.
func (s *Session) AddPlayer(p Player) (pos int, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCollecting {
		return -1, false
	}
	if s.hasPlayerLocked(p.UserID) {
		return -1, false
	}
	if len(s.players) >= s.capacity {
		// Unreachable while AddPlayer is the only admitter: the session
		// flips to Completed on the admission that fills it.
		return -1, false
	}

	s.players = append(s.players, p)
	pos = len(s.players)
	if pos == s.capacity {
		s.state = StateCompleted
	}
	return pos, s.state == StateCompleted
}

// Winner returns the winning player. It reports false until the session is
// Completed; the winning position is not observable before that.
func (s *Session) Winner() (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return Player{}, false
	}
	if s.winningPos < 1 || s.winningPos > len(s.players) {
		// Capacity/admission bookkeeping is broken; fail loudly rather
		// than crown an arbitrary player.
		panic(fmt.Sprintf("guess: winning position %d out of range for %d players", s.winningPos, len(s.players)))
	}
	return s.players[s.winningPos-1], true
}

// Cancel moves a collecting session to Cancelled. Terminal sessions are left
// untouched and false is returned.
func (s *Session) Cancel(reason CancelReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCollecting {
		return false
	}
	s.state = StateCancelled
	s.cancelReason = reason
	return true
}

// CancelledFor returns the cancel reason once the session is Cancelled.
func (s *Session) CancelledFor() (CancelReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCancelled {
		return CancelReason{}, false
	}
	return s.cancelReason, true
}

// Describe renders a one-line summary of the session for logs and tests.
func (s *Session) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCompleted:
		w := s.players[s.winningPos-1]
		return fmt.Sprintf("completed %d/%d, winner @%s", len(s.players), s.capacity, w.Tag)
	case StateCancelled:
		return fmt.Sprintf("cancelled at %d/%d", len(s.players), s.capacity)
	default:
		return fmt.Sprintf("collecting %d/%d", len(s.players), s.capacity)
	}
}
