package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

// emergencyStore 订阅鉴权需要查询照护关系
type emergencyStore interface {
	repository.EmergencyRepository
	repository.CaregiversRepository
}

// EmergencyHandler SOS、紧急联系人与告警订阅
type EmergencyHandler struct {
	emergency *service.EmergencyService
	store     emergencyStore
	hub       *AlertHub
	logger    *zap.Logger
}

// NewEmergencyHandler hub 为 nil 时不提供 WebSocket 订阅
func NewEmergencyHandler(emergency *service.EmergencyService, store emergencyStore, hub *AlertHub, logger *zap.Logger) *EmergencyHandler {
	return &EmergencyHandler{emergency: emergency, store: store, hub: hub, logger: logger}
}

type triggerRequest struct {
	UserID   flexID `json:"userId"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (h *EmergencyHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	res, err := h.emergency.Trigger(r.Context(), service.TriggerRequest{
		UserID:   int64(req.UserID),
		Location: req.Location,
		Message:  req.Message,
	})
	if err != nil {
		failure(w, h.logger, err, "Failed to trigger emergency alert")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EmergencyHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	status, err := h.emergency.Status(r.Context(), userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get emergency status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"hasActiveAlerts":   status.HasActiveAlerts,
		"activeAlerts":      nonNil(status.ActiveAlerts),
		"emergencyContacts": nonNil(status.EmergencyContacts),
		"contactCount":      status.ContactCount,
	})
}

type addContactRequest struct {
	UserID       flexID `json:"userId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	Priority     int    `json:"priority"`
}

func (h *EmergencyHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req addContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	contact, err := domain.NewEmergencyContact(int64(req.UserID), req.Name, req.Phone, req.Relationship, req.Priority)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User ID, name, and phone are required")
		return
	}

	created, err := h.store.AddEmergencyContact(r.Context(), contact)
	if err != nil {
		failure(w, h.logger, err, "Failed to add emergency contact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"contact": created,
		"message": "Emergency contact added successfully",
	})
}

func (h *EmergencyHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	contacts, err := h.store.GetEmergencyContacts(r.Context(), userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get emergency contacts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contacts": nonNil(contacts),
		"count":    len(contacts),
	})
}

func (h *EmergencyHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteEmergencyContact(r.Context(), id); err != nil {
		failure(w, h.logger, err, "Failed to delete emergency contact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Emergency contact deleted successfully"})
}

// Resolve 重复解除或告警不存在时同样返回成功
func (h *EmergencyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	alertID, ok := pathID(w, r, "alertId")
	if !ok {
		return
	}
	if _, err := h.emergency.Resolve(r.Context(), alertID); err != nil {
		failure(w, h.logger, err, "Failed to resolve emergency alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Emergency alert resolved"})
}

// Subscribe WebSocket：订阅某个用户的 SOS 事件，只允许本人或已接受邀请的照护者
func (h *EmergencyHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "Alert subscriptions not available")
		return
	}
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	allowed, err := h.canWatch(r.Context(), claims.UserID, claims.Phone, userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to check subscription access")
		return
	}
	if !allowed {
		h.logger.Warn("alert subscription denied",
			zap.Int64("subscriber_id", claims.UserID),
			zap.Int64("user_id", userID),
		)
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	h.hub.Serve(w, r, userID)
}

func (h *EmergencyHandler) canWatch(ctx context.Context, subscriberID int64, subscriberPhone string, userID int64) (bool, error) {
	if subscriberID == userID {
		return true, nil
	}
	if subscriberPhone == "" {
		return false, nil
	}
	caregivers, err := h.store.GetPatientCaregivers(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range caregivers {
		if c.CaregiverPhone == subscriberPhone {
			return true, nil
		}
	}
	return false, nil
}
