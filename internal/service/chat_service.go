package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/store"
)

var ErrEmptyMessage = errors.New("message text is required")

// chatRepository is the subset of store.ChatStore that ChatService requires.
type chatRepository interface {
	SaveMessage(ctx context.Context, role domain.Role, text, chatID string) (*domain.Message, error)
	GetMessages(ctx context.Context, chatID string) ([]*domain.Message, error)
	GetRecentChats(ctx context.Context, limit int) ([]*domain.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
}

// Reply is the outcome of one user turn. Failed is set when the completion
// call failed and Bot holds chat.FallbackMessage.
type Reply struct {
	ChatID string          `json:"chatId"`
	User   *domain.Message `json:"user"`
	Bot    *domain.Message `json:"bot"`
	Failed bool            `json:"failed"`
}

type ChatService struct {
	chats     chatRepository
	completer chat.Completer
	logger    *slog.Logger
}

func NewChatService(chats chatRepository, completer chat.Completer, logger *slog.Logger) *ChatService {
	return &ChatService{chats: chats, completer: completer, logger: logger}
}

// Send stores the user's message, asks the completer for a reply over the
// whole conversation, and stores the reply. An empty chatID starts a new
// chat. Completion failures are not returned: the fallback message is stored
// and returned instead.
func (s *ChatService) Send(ctx context.Context, chatID, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if chatID == "" {
		chatID = store.NewChatID()
		s.logger.Info("chat started", "chat_id", chatID)
	}

	history, err := s.chats.GetMessages(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load chat history", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	userMsg, err := s.chats.SaveMessage(ctx, domain.RoleUser, text, chatID)
	if err != nil {
		s.logger.Error("failed to save user message", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	turns := append(chat.TurnsFromMessages(history), chat.Turn{Role: domain.RoleUser, Text: text})

	s.logger.Info("completion started", "chat_id", chatID, "turns", len(turns))
	replyText, cerr := s.completer.Complete(ctx, turns)
	failed := cerr != nil
	if failed {
		s.logger.Error("completion failed", "chat_id", chatID, "error", cerr)
		replyText = chat.FallbackMessage
	}

	botMsg, err := s.chats.SaveMessage(ctx, domain.RoleBot, replyText, chatID)
	if err != nil {
		s.logger.Error("failed to save bot message", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to save bot message: %w", err)
	}

	s.logger.Info("completion complete", "chat_id", chatID, "failed", failed)
	return &Reply{ChatID: chatID, User: userMsg, Bot: botMsg, Failed: failed}, nil
}

func (s *ChatService) History(ctx context.Context, chatID string) ([]*domain.Message, error) {
	return s.chats.GetMessages(ctx, chatID)
}

func (s *ChatService) RecentChats(ctx context.Context, limit int) ([]*domain.Chat, error) {
	return s.chats.GetRecentChats(ctx, limit)
}

func (s *ChatService) DeleteChat(ctx context.Context, chatID string) error {
	s.logger.Info("deleting chat", "chat_id", chatID)
	return s.chats.DeleteChat(ctx, chatID)
}
