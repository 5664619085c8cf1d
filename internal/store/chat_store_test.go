package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/nutriscan/internal/domain"
)

func TestChatStoreSaveMessageCreatesChat(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	ctx := context.Background()

	msg, err := s.SaveMessage(ctx, domain.RoleUser, "Is an apple a day enough fruit?", "chat_1")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, domain.RoleUser, msg.Role)

	chats, err := s.GetRecentChats(ctx, DefaultRecentChats)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "chat_1", chats[0].ID)
	assert.Equal(t, "Is an apple a", chats[0].Title)
	assert.Equal(t, "Is an apple a day enough fruit?", chats[0].LastMessage)
}

func TestChatStoreTitleFollowsLastMessage(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	s.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, domain.RoleUser, "How much protein in eggs", "chat_1")
	require.NoError(t, err)
	_, err = s.SaveMessage(ctx, domain.RoleBot, "About six grams per large egg.", "chat_1")
	require.NoError(t, err)

	chats, err := s.GetRecentChats(ctx, 5)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "About six grams per", chats[0].Title)
	assert.Equal(t, "About six grams per large egg.", chats[0].LastMessage)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC), chats[0].Timestamp.UTC())
}

func TestChatStoreGetMessagesOrdered(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	s.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleBot
		}
		_, err := s.SaveMessage(ctx, role, text, "chat_a")
		require.NoError(t, err)
	}
	_, err := s.SaveMessage(ctx, domain.RoleUser, "other chat", "chat_b")
	require.NoError(t, err)

	messages, err := s.GetMessages(ctx, "chat_a")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		assert.Equal(t, texts[i], msg.Text)
		assert.Equal(t, "chat_a", msg.ChatID)
	}
	assert.Equal(t, domain.RoleBot, messages[1].Role)

	empty, err := s.GetMessages(ctx, "chat_missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChatStoreGetRecentChatsLimitAndOrder(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	s.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := s.SaveMessage(ctx, domain.RoleUser, "hello", NewChatID())
		require.NoError(t, err)
	}

	chats, err := s.GetRecentChats(ctx, DefaultRecentChats)
	require.NoError(t, err)
	assert.Len(t, chats, DefaultRecentChats)
	for i := 1; i < len(chats); i++ {
		assert.True(t, chats[i-1].Timestamp.After(chats[i].Timestamp))
	}

	chats, err = s.GetRecentChats(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, chats, 2)

	chats, err = s.GetRecentChats(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, chats)

	_, err = s.GetRecentChats(ctx, -1)
	assert.Error(t, err)
}

func TestChatStoreDeleteChat(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, domain.RoleUser, "hi", "chat_1")
	require.NoError(t, err)
	_, err = s.SaveMessage(ctx, domain.RoleBot, "hello", "chat_1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteChat(ctx, "chat_1"))

	messages, err := s.GetMessages(ctx, "chat_1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	chats, err := s.GetRecentChats(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, chats)

	assert.NoError(t, s.DeleteChat(ctx, "chat_unknown"))
}

func TestChatStoreRejectsBadInput(t *testing.T) {
	s := NewChatStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, domain.RoleUser, "hi", "")
	assert.Error(t, err)
	_, err = s.SaveMessage(ctx, domain.Role("system"), "hi", "chat_1")
	assert.Error(t, err)
}

func TestChatStoreNotInitialized(t *testing.T) {
	s := NewChatStore(nil)
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, domain.RoleUser, "hi", "chat_1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.GetMessages(ctx, "chat_1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.GetRecentChats(ctx, 5)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.DeleteChat(ctx, "chat_1"), ErrNotInitialized)
}

func TestNewChatID(t *testing.T) {
	a, b := NewChatID(), NewChatID()
	assert.True(t, strings.HasPrefix(a, "chat_"))
	assert.NotEqual(t, a, b)
}

func TestGenerateChatTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short", "Hello there", "Hello there"},
		{"four words", "one two three four five six", "one two three four"},
		{"truncated", "Supercalifragilistic expialidocious nutrition facts", "Supercalifragilistic expialido..."},
		{"exactly thirty", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"multibyte", strings.Repeat("é", 31), strings.Repeat("é", 30) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateChatTitle(tt.text)
			assert.Equal(t, tt.want, got)

			words := strings.Split(tt.text, " ")
			if len(words) > 4 {
				words = words[:4]
			}
			assert.True(t, strings.HasPrefix(strings.Join(words, " "), strings.TrimSuffix(got, "...")))
		})
	}
}
