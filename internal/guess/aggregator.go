package guess

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"telegram-guess-bot/internal/pkg/tag"
)

// AckToken is the opaque handle used to answer one specific join tap.
// On Telegram it is the callback query ID.
type AckToken string

// Notifier delivers per-player join outcomes and session display updates.
// Implementations are best-effort: they retry transient transport failures
// internally and never return an error to the aggregator.
type Notifier interface {
	// Ack answers a single join tap with a short status.
	Ack(t AckToken, text string)
	// AckAlert is Ack with a popup, for outcomes the player should not miss.
	AckAlert(t AckToken, text string)
	// EditPanel updates the live session message in place.
	EditPanel(ref MessageRef, text string)
	// DeletePanel removes the collecting-phase message.
	DeletePanel(ref MessageRef)
	// AnnounceWinner posts the settlement message to the chat.
	AnnounceWinner(chatID int64, text string)
}

// candidate is one buffered join request.
type candidate struct {
	userID int64
	tag    string
	ack    AckToken
}

// pendingBatch buffers the join taps of one collection window.
// order preserves first-seen arrival order; a repeated tap updates the
// existing candidate (keeping the newest ack token) without reordering.
type pendingBatch struct {
	order []*candidate
	byID  map[int64]*candidate
}

// Aggregator turns a storm of concurrent, possibly duplicate join taps into
// one deterministic admission batch per chat per collection window.
//
// The first tap for a chat creates the batch and arms a single timer; taps
// landing inside the window are upserted into the batch; when the timer
// fires the whole batch is resolved atomically against the session.
type Aggregator struct {
	mu      sync.Mutex
	batches map[int64]*pendingBatch

	store    *Store
	surge    *SurgeTracker
	notifier Notifier
	clock    clock.Clock
	window   time.Duration
	symbol   string

	// OnCompleted, when set, observes sessions settled by batch resolution.
	// Runs after the winner announcement; must not block for long.
	OnCompleted func(s *Session, winner Player)
}

// NewAggregator creates an Aggregator. window is the collection delay
// between the first tap and batch resolution.
func NewAggregator(store *Store, surge *SurgeTracker, notifier Notifier, clk clock.Clock, window time.Duration, tokenSymbol string) *Aggregator {
	if clk == nil {
		clk = clock.New()
	}
	return &Aggregator{
		batches:  make(map[int64]*pendingBatch),
		store:    store,
		surge:    surge,
		notifier: notifier,
		clock:    clk,
		window:   window,
		symbol:   tokenSymbol,
	}
}

// SubmitJoin buffers one join tap. A user whose display name yields no
// usable tag is told so immediately and never enters the buffer. Repeat
// taps within the window are idempotent.
func (a *Aggregator) SubmitJoin(chatID, userID int64, displayName string, ack AckToken) {
	playerTag, ok := tag.Normalize(displayName)
	if !ok {
		a.notifier.AckAlert(ack, MsgNoTag)
		return
	}

	a.mu.Lock()
	b, exists := a.batches[chatID]
	if !exists {
		b = &pendingBatch{byID: make(map[int64]*candidate)}
		a.batches[chatID] = b
		// Exactly one timer per batch; it fires once and consumes it.
		a.clock.AfterFunc(a.window, func() { a.resolve(chatID) })
	}
	if c, dup := b.byID[userID]; dup {
		// Keep the first-seen position, answer the newest tap.
		c.tag = playerTag
		c.ack = ack
	} else {
		c := &candidate{userID: userID, tag: playerTag, ack: ack}
		b.byID[userID] = c
		b.order = append(b.order, c)
	}
	a.mu.Unlock()

	log.Debug().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Bool("new_batch", !exists).
		Msg("Join buffered")
}

// resolve consumes the chat's pending batch and applies it to the session.
func (a *Aggregator) resolve(chatID int64) {
	a.mu.Lock()
	b := a.batches[chatID]
	delete(a.batches, chatID)
	a.mu.Unlock()

	if b == nil || len(b.order) == 0 {
		return
	}

	s, ok := a.store.Get(chatID)
	if !ok || s.State() != StateCollecting {
		// The game ended while taps were buffered; the batch discards
		// itself, but every tap still gets an answer.
		a.fanOut(b.order, func(c *candidate) {
			a.notifier.Ack(c.ack, MsgNoActiveGame)
		})
		log.Debug().
			Int64("chat_id", chatID).
			Int("candidates", len(b.order)).
			Msg("Join batch discarded, no collecting session")
		return
	}

	var (
		winner    Player
		completed bool
		admitted  int
	)
	acks := make([]func(), 0, len(b.order))

	// Admission runs in first-seen arrival order; the session enforces
	// capacity and duplicate-identity rules per player.
	for _, c := range b.order {
		c := c
		pos, filled := s.AddPlayer(Player{UserID: c.userID, Tag: c.tag})
		switch {
		case pos == -1 && s.HasPlayer(c.userID):
			acks = append(acks, func() { a.notifier.Ack(c.ack, MsgAlreadyJoined) })
		case pos == -1:
			acks = append(acks, func() { a.notifier.AckAlert(c.ack, MsgGameFull) })
		default:
			admitted++
			p := pos
			if filled {
				completed = true
				winner, _ = s.Winner()
			}
			acks = append(acks, func() {
				if completed && c.userID == winner.UserID {
					a.notifier.AckAlert(c.ack, MsgYouWon)
				} else if completed {
					a.notifier.AckAlert(c.ack, FormatLostAck(p))
				} else {
					a.notifier.Ack(c.ack, FormatJoinedAck(p, s.Capacity()))
				}
			})
		}
	}

	// Every candidate hears back exactly once; order between players is
	// not guaranteed.
	var wg sync.WaitGroup
	for _, fn := range acks {
		wg.Add(1)
		go func(fn func()) {
			defer wg.Done()
			fn()
		}(fn)
	}
	wg.Wait()

	if completed {
		a.settle(s, winner)
	} else if admitted > 0 {
		a.notifier.EditPanel(s.Panel(), FormatPanel(s, a.symbol))
	}

	log.Info().
		Int64("chat_id", chatID).
		Int("candidates", len(b.order)).
		Int("admitted", admitted).
		Bool("completed", completed).
		Msg("Join batch resolved")
}

// settle replaces the collecting panel with the winner announcement and
// retires the session.
func (a *Aggregator) settle(s *Session, winner Player) {
	if ref := s.Panel(); !ref.IsZero() {
		a.notifier.DeletePanel(ref)
	}
	a.notifier.AnnounceWinner(s.ChatID(), FormatWinnerAnnouncement(s, winner, a.symbol))

	a.store.Remove(s.ChatID())
	a.surge.Touch(s.ChatID())

	if a.OnCompleted != nil {
		a.OnCompleted(s, winner)
	}

	log.Info().
		Int64("chat_id", s.ChatID()).
		Int64("winner_id", winner.UserID).
		Str("winner_tag", winner.Tag).
		Str("stake_total", s.StakeTotal().String()).
		Msg("Guess game completed")
}

// fanOut runs fn for every candidate concurrently and waits for all.
func (a *Aggregator) fanOut(cs []*candidate, fn func(*candidate)) {
	var wg sync.WaitGroup
	for _, c := range cs {
		wg.Add(1)
		go func(c *candidate) {
			defer wg.Done()
			fn(c)
		}(c)
	}
	wg.Wait()
}

// PendingCount returns the number of buffered candidates for a chat.
func (a *Aggregator) PendingCount(chatID int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.batches[chatID]; ok {
		return len(b.order)
	}
	return 0
}
