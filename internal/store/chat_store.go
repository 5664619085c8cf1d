package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vbonduro/nutriscan/internal/domain"
)

const (
	DefaultRecentChats = 5

	titleWords    = 4
	titleMaxRunes = 30
)

type ChatStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db, now: time.Now}
}

// SaveMessage appends a message to chatID and upserts the chat summary in
// the same transaction. The summary's title, last message and timestamp all
// follow the message being saved.
func (s *ChatStore) SaveMessage(ctx context.Context, role domain.Role, text, chatID string) (*domain.Message, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat id is required")
	}
	if role != domain.RoleUser && role != domain.RoleBot {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	msg := &domain.Message{
		Role:      role,
		Text:      text,
		ChatID:    chatID,
		Timestamp: s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO messages (role, text, chat_id, timestamp) VALUES (?, ?, ?, ?)
	`, string(msg.Role), msg.Text, msg.ChatID, msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	msg.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (id, title, last_message, timestamp) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title        = excluded.title,
			last_message = excluded.last_message,
			timestamp    = excluded.timestamp
	`, chatID, GenerateChatTitle(text), text, msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return msg, nil
}

// GetMessages returns the messages of a chat oldest first. Unknown chats
// yield an empty slice.
func (s *ChatStore) GetMessages(ctx context.Context, chatID string) ([]*domain.Message, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, chat_id, timestamp
		FROM messages WHERE chat_id = ?
		ORDER BY timestamp ASC, id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		msg := &domain.Message{}
		var role string
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &msg.ChatID, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// GetRecentChats returns up to limit chats, most recently active first.
// Callers with no limit of their own pass DefaultRecentChats.
func (s *ChatStore) GetRecentChats(ctx context.Context, limit int) ([]*domain.Chat, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit < 0 {
		return nil, fmt.Errorf("invalid limit %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, last_message, timestamp
		FROM chats
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent chats: %w", err)
	}
	defer rows.Close()

	chats := []*domain.Chat{}
	for rows.Next() {
		chat := &domain.Chat{}
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.LastMessage, &chat.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}

// DeleteChat removes a chat and all of its messages atomically. Deleting an
// unknown chat is not an error.
func (s *ChatStore) DeleteChat(ctx context.Context, chatID string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat deletion: %w", err)
	}
	return nil
}

func NewChatID() string {
	return "chat_" + uuid.NewString()
}

// GenerateChatTitle builds a chat title from a message: the first four
// space-separated words, cut to 30 runes with a trailing ellipsis.
func GenerateChatTitle(text string) string {
	words := strings.Split(text, " ")
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")

	if utf8.RuneCountInString(title) > titleMaxRunes {
		title = string([]rune(title)[:titleMaxRunes]) + "..."
	}
	return title
}
