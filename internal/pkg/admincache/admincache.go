// Package admincache caches chat administrator lookups so that cancel
// authorization does not hit the Telegram API on every command.
package admincache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// AdminSource fetches the current administrator user IDs of a chat.
type AdminSource interface {
	ChatAdmins(chatID int64) ([]int64, error)
}

// Directory answers "is this user an admin of this chat" with a TTL cache
// in front of the source. On a source failure the last known list, if any,
// keeps serving until the next successful refresh.
type Directory struct {
	source AdminSource
	cache  *gocache.Cache
}

// NewDirectory creates a Directory with the given cache TTL.
func NewDirectory(source AdminSource, ttl time.Duration) *Directory {
	return &Directory{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

func freshKey(chatID int64) string {
	return fmt.Sprintf("admins:%d", chatID)
}

func staleKey(chatID int64) string {
	return fmt.Sprintf("admins:%d:stale", chatID)
}

// IsAdmin reports whether userID administers chatID.
func (d *Directory) IsAdmin(chatID, userID int64) (bool, error) {
	admins, err := d.admins(chatID)
	if err != nil {
		return false, err
	}
	for _, id := range admins {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cached admin lists for a chat.
func (d *Directory) Invalidate(chatID int64) {
	d.cache.Delete(freshKey(chatID))
	d.cache.Delete(staleKey(chatID))
}

func (d *Directory) admins(chatID int64) ([]int64, error) {
	if v, ok := d.cache.Get(freshKey(chatID)); ok {
		return v.([]int64), nil
	}

	admins, err := d.source.ChatAdmins(chatID)
	if err != nil {
		if v, ok := d.cache.Get(staleKey(chatID)); ok {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("Admin lookup failed, serving stale cache")
			return v.([]int64), nil
		}
		return nil, fmt.Errorf("failed to fetch chat admins: %w", err)
	}

	d.cache.Set(freshKey(chatID), admins, gocache.DefaultExpiration)
	d.cache.Set(staleKey(chatID), admins, gocache.NoExpiration)
	return admins, nil
}
