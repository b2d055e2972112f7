package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

// AuthHandler 注册/登录
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// userView 对外返回的用户资料
type userView struct {
	ID       int64  `json:"id"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

func newUserView(u *domain.User) userView {
	return userView{ID: u.ID, Phone: u.Phone, Name: u.Name, Language: u.Language}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Phone and name are required")
		return
	}

	sess, err := h.auth.Register(r.Context(), req.Phone, req.Name, req.Language)
	if errors.Is(err, repository.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "User already exists with this phone number")
		return
	}
	if err != nil {
		failure(w, h.logger, err, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    newUserView(sess.User),
		"token":   sess.Token,
	})
}

type loginRequest struct {
	Phone string `json:"phone"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Phone)
	if errors.Is(err, service.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found. Please register first.")
		return
	}
	if err != nil {
		failure(w, h.logger, err, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    newUserView(sess.User),
		"token":   sess.Token,
	})
}
