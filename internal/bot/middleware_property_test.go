// Property-based tests for middleware gating logic.
package bot

import (
	"testing"

	"pgregory.net/rapid"

	"telegram-guess-bot/internal/config"
)

// TestWhitelistEnforcementProperty checks that a chat is allowed if and
// only if its ID is in the whitelist.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(1, 10).Draw(t, "numChats")
		chatIDs := make([]int64, numChats)
		for i := 0; i < numChats; i++ {
			// Group chat IDs are typically negative.
			chatIDs[i] = -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
		}

		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{
				Chats: chatIDs,
			},
		}

		testChatID := -rapid.Int64Range(1, 1000000000).Draw(t, "testChatID")

		isAllowed := cfg.IsChatAllowed(testChatID)

		expectedIsAllowed := false
		for _, id := range chatIDs {
			if id == testChatID {
				expectedIsAllowed = true
				break
			}
		}

		if isAllowed != expectedIsAllowed {
			t.Fatalf("Whitelist check mismatch: chatID=%d, whitelistedChats=%v, expected=%v, got=%v",
				testChatID, chatIDs, expectedIsAllowed, isAllowed)
		}
	})
}

// TestWhitelistEnforcementWithKnownChatProperty checks that every
// whitelisted chat is allowed.
func TestWhitelistEnforcementWithKnownChatProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(1, 10).Draw(t, "numChats")
		chatIDs := make([]int64, numChats)
		for i := 0; i < numChats; i++ {
			chatIDs[i] = -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
		}

		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{
				Chats: chatIDs,
			},
		}

		chatIndex := rapid.IntRange(0, numChats-1).Draw(t, "chatIndex")
		knownChatID := chatIDs[chatIndex]

		if !cfg.IsChatAllowed(knownChatID) {
			t.Fatalf("Known whitelisted chat ID %d should be allowed, whitelistedChats=%v", knownChatID, chatIDs)
		}
	})
}

// TestEmptyWhitelistAllowsAllChatsProperty checks the open-by-default
// special case of an empty whitelist.
func TestEmptyWhitelistAllowsAllChatsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{
				Chats: []int64{},
			},
		}

		chatID := -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")

		if !cfg.IsChatAllowed(chatID) {
			t.Fatalf("With empty whitelist, chat ID %d should be allowed", chatID)
		}
	})
}

// TestPrivateUserCacheProperty checks the allow-then-query round trip of
// the private user cache.
func TestPrivateUserCacheProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")

		AllowPrivateUser(userID)

		if !IsPrivateUserAllowed(userID) {
			t.Fatalf("User %d should be allowed after being added to private user cache", userID)
		}
	})
}
