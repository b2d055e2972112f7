package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"medimate-backend/internal/repository"
)

// UsersHandler 用户资料与统计
type UsersHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUsersHandler(store repository.Store, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{store: store, logger: logger}
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.store.FindUserByID(r.Context(), id)
	if err != nil {
		failure(w, h.logger, err, "Failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *UsersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stats, err := h.store.GetUserStats(r.Context(), id)
	if err != nil {
		failure(w, h.logger, err, "Failed to get user stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "userId": id, "stats": stats})
}
