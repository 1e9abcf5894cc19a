package guess

import (
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// SurgeTracker raises the minimum stake when games start in quick succession
// in the same chat. State is per chat and decays lazily: the multiplier is
// treated as zero once the cooldown window has elapsed since the last
// activity, so there is nothing to clean up.
type SurgeTracker struct {
	mu       sync.Mutex
	clock    clock.Clock
	cooldown time.Duration
	step     *big.Int // smallest units added per multiplier step
	states   map[int64]*surgeState
}

type surgeState struct {
	multiplier   int
	lastActivity time.Time
}

// NewSurgeTracker creates a tracker. step is the stake increase per
// multiplier step, in smallest units.
func NewSurgeTracker(clk clock.Clock, cooldown time.Duration, step *big.Int) *SurgeTracker {
	if clk == nil {
		clk = clock.New()
	}
	if step == nil {
		step = new(big.Int)
	}
	return &SurgeTracker{
		clock:    clk,
		cooldown: cooldown,
		step:     new(big.Int).Set(step),
		states:   make(map[int64]*surgeState),
	}
}

// RecordActivity notes a game start and returns the multiplier to apply.
// Within the cooldown window each start increments the multiplier by exactly
// one; once the window has elapsed it resets to zero first. Callers record
// only when actually starting a game (never while one is already active).
func (t *SurgeTracker) RecordActivity(chatID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	st, ok := t.states[chatID]
	if !ok {
		st = &surgeState{}
		t.states[chatID] = st
	}

	if st.lastActivity.IsZero() || now.Sub(st.lastActivity) > t.cooldown {
		st.multiplier = 0
	} else {
		st.multiplier++
	}
	st.lastActivity = now
	return st.multiplier
}

// Touch refreshes the activity timestamp without changing the multiplier.
// Called when a game settles, so the next start still sees the surge.
func (t *SurgeTracker) Touch(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[chatID]
	if !ok {
		return
	}
	st.lastActivity = t.clock.Now()
}

// Multiplier returns the current multiplier, applying decay on read.
func (t *SurgeTracker) Multiplier(chatID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[chatID]
	if !ok {
		return 0
	}
	if t.clock.Now().Sub(st.lastActivity) > t.cooldown {
		st.multiplier = 0
	}
	return st.multiplier
}

// Surcharge returns multiplier × step in smallest units.
func (t *SurgeTracker) Surcharge(chatID int64) *big.Int {
	m := t.Multiplier(chatID)
	return new(big.Int).Mul(t.step, big.NewInt(int64(m)))
}

// Floor returns the minimum acceptable stake: base + multiplier × step.
// Stakes below the floor are raised to it at session creation.
func (t *SurgeTracker) Floor(chatID int64, base *big.Int) *big.Int {
	return new(big.Int).Add(base, t.Surcharge(chatID))
}
