package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/nutriscan/internal/service"
	"github.com/vbonduro/nutriscan/internal/store"
)

const maxChatBodySize = 64 * 1024

type sendMessageRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, s.logger, "invalid request body: %v", err)
		return
	}

	reply, err := s.chats.Send(r.Context(), req.ChatID, req.Text)
	if errors.Is(err, service.ErrEmptyMessage) {
		httpError(w, http.StatusBadRequest, s.logger, "text is required")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, reply, s.logger)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRecentChats
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpError(w, http.StatusBadRequest, s.logger, "invalid limit")
			return
		}
		limit = n
	}

	chats, err := s.chats.RecentChats(r.Context(), limit)
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to list chats")
		s.logger.Error("list chats failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, chats, s.logger)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	messages, err := s.chats.History(r.Context(), chatID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to get messages")
		s.logger.Error("get messages failed", "chat_id", chatID, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, messages, s.logger)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	if err := s.chats.DeleteChat(r.Context(), chatID); err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to delete chat")
		s.logger.Error("delete chat failed", "chat_id", chatID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
