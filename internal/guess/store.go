package guess

import (
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Store holds at most one live session per chat. It is the only place
// sessions are created and removed, so the one-session-per-chat invariant
// lives entirely behind its mutex.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	rng      *rand.Rand
	clock    clock.Clock
}

// NewStore creates a Store drawing winning positions from rng.
func NewStore(rng *rand.Rand, clk clock.Clock) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		sessions: make(map[int64]*Session),
		rng:      rng,
		clock:    clk,
	}
}

// Create starts a new session for the chat. The winning position is drawn
// uniformly from [1, capacity] here, before any player joins.
func (st *Store) Create(chatID, ownerID int64, capacity int, stakeBase, stakeSurge *big.Int) (*Session, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[chatID]; ok && s.State() == StateCollecting {
		return nil, ErrSessionExists
	}

	winningPos := st.rng.Intn(capacity) + 1
	s, err := newSession(chatID, ownerID, capacity, winningPos, stakeBase, stakeSurge, st.clock.Now())
	if err != nil {
		return nil, err
	}
	st.sessions[chatID] = s
	return s, nil
}

// Get returns the chat's session, if any.
func (st *Store) Get(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// Remove drops the chat's session. Called the moment a session reaches a
// terminal state.
func (st *Store) Remove(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}

// Cancel cancels and removes the chat's collecting session, returning it for
// rendering. ErrNoSession when there is nothing to cancel.
func (st *Store) Cancel(chatID int64, reason CancelReason) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok || !s.Cancel(reason) {
		return nil, ErrNoSession
	}
	delete(st.sessions, chatID)
	return s, nil
}

// CancelSession cancels and removes the given session only if it is still
// the chat's live one. Used by expiry timers, which must not touch a newer
// session that replaced the one they were armed for.
func (st *Store) CancelSession(s *Session, reason CancelReason) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	cur, ok := st.sessions[s.chatID]
	if !ok || cur != s {
		return false
	}
	if !cur.Cancel(reason) {
		return false
	}
	delete(st.sessions, s.chatID)
	return true
}

// Len returns the number of live sessions (for logs).
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
