package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

const defaultChatHistoryLimit = 10

// ChatHandler AI 陪伴对话
type ChatHandler struct {
	chat   *service.ChatService
	store  repository.ConversationsRepository
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, store repository.ConversationsRepository, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, store: store, logger: logger}
}

type chatRequest struct {
	UserID   flexID `json:"userId"`
	Message  string `json:"message"`
	Language string `json:"language"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "userId and message are required")
		return
	}

	res, err := h.chat.Chat(r.Context(), int64(req.UserID), req.Message, req.Language)
	if err != nil {
		failure(w, h.logger, err, "Failed to process chat message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  res.Message,
		"response": res.Response,
		"language": res.Language,
	})
}

type healthAdviceRequest struct {
	Symptom  string `json:"symptom"`
	Language string `json:"language"`
}

func (h *ChatHandler) HealthAdvice(w http.ResponseWriter, r *http.Request) {
	var req healthAdviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Symptom) == "" {
		writeError(w, http.StatusBadRequest, "Symptom is required")
		return
	}
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}

	advice := h.chat.HealthAdvice(r.Context(), req.Symptom, req.Language)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"symptom":  req.Symptom,
		"advice":   advice,
		"language": req.Language,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), defaultChatHistoryLimit)

	history, err := h.store.GetConversationHistory(r.Context(), userID, limit)
	if err != nil {
		failure(w, h.logger, err, "Failed to get chat history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(history),
		"history": nonNil(history),
	})
}
