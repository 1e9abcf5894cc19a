// Package lock provides chat-level locking so that game lifecycle
// commands for the same chat never interleave.
package lock

import (
	"sync"
)

// chatMutex wraps a mutex with reference counting for cleanup.
type chatMutex struct {
	mu       sync.Mutex
	refCount int
}

// ChatLock serializes game start and cancel operations per chat.
// Different chats never block each other.
type ChatLock struct {
	locks sync.Map // map[int64]*chatMutex
	pool  sync.Pool
}

// NewChatLock creates a new ChatLock instance.
func NewChatLock() *ChatLock {
	return &ChatLock{
		pool: sync.Pool{
			New: func() any {
				return &chatMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given chat ID.
func (cl *ChatLock) getLock(chatID int64) *chatMutex {
	if v, ok := cl.locks.Load(chatID); ok {
		return v.(*chatMutex)
	}

	newLock := cl.pool.Get().(*chatMutex)
	newLock.refCount = 0

	// LoadOrStore handles the race with a concurrent creator.
	actual, loaded := cl.locks.LoadOrStore(chatID, newLock)
	if loaded {
		cl.pool.Put(newLock)
	}
	return actual.(*chatMutex)
}

// Lock acquires the lock for a chat.
func (cl *ChatLock) Lock(chatID int64) {
	lock := cl.getLock(chatID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a chat.
func (cl *ChatLock) Unlock(chatID int64) {
	if v, ok := cl.locks.Load(chatID); ok {
		lock := v.(*chatMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (cl *ChatLock) TryLock(chatID int64) bool {
	lock := cl.getLock(chatID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the chat's lock.
func (cl *ChatLock) WithLock(chatID int64, fn func() error) error {
	cl.Lock(chatID)
	defer cl.Unlock(chatID)
	return fn()
}

// IsLocked checks if a chat currently has an active lock.
// Note: This is a point-in-time check and may change immediately after.
func (cl *ChatLock) IsLocked(chatID int64) bool {
	if v, ok := cl.locks.Load(chatID); ok {
		lock := v.(*chatMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
