package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

// NotificationsHandler 推送设备与通知
type NotificationsHandler struct {
	notifications *service.NotificationService
	store         repository.Store
	logger        *zap.Logger
}

func NewNotificationsHandler(notifications *service.NotificationService, store repository.Store, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, store: store, logger: logger}
}

type registerDeviceRequest struct {
	UserID     flexID `json:"userId"`
	Token      string `json:"token"`
	DeviceType string `json:"deviceType"`
}

func (h *NotificationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "User ID and device token are required")
		return
	}

	record, err := h.notifications.Register(r.Context(), int64(req.UserID), req.Token, req.DeviceType)
	if err != nil {
		failure(w, h.logger, err, "Failed to register device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"tokenRecord": record,
		"message":     "Device registered for notifications",
	})
}

type sendNotificationRequest struct {
	UserID flexID         `json:"userId"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data"`
}

func (h *NotificationsHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "User ID, title, and body are required")
		return
	}

	res, err := h.notifications.Send(r.Context(), int64(req.UserID), service.Notification{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		failure(w, h.logger, err, "Failed to send notification")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type medicationReminderRequest struct {
	UserID       flexID `json:"userId"`
	MedicationID flexID `json:"medicationId"`
}

// MedicationReminder 立即推送某条用药的服药提醒
func (h *NotificationsHandler) MedicationReminder(w http.ResponseWriter, r *http.Request) {
	var req medicationReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || req.MedicationID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID and medication ID are required")
		return
	}

	meds, err := h.store.GetMedicationsByUserID(r.Context(), int64(req.UserID))
	if err != nil {
		failure(w, h.logger, err, "Failed to send medication reminder")
		return
	}
	for _, m := range meds {
		if m.ID != int64(req.MedicationID) {
			continue
		}
		res, err := h.notifications.SendMedicationReminder(r.Context(), m)
		if err != nil {
			failure(w, h.logger, err, "Failed to send medication reminder")
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeError(w, http.StatusNotFound, "Medication not found")
}

type appointmentReminderRequest struct {
	UserID        flexID `json:"userId"`
	AppointmentID flexID `json:"appointmentId"`
}

// AppointmentReminder 立即推送某个预约的就诊提醒
func (h *NotificationsHandler) AppointmentReminder(w http.ResponseWriter, r *http.Request) {
	var req appointmentReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || req.AppointmentID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID and appointment ID are required")
		return
	}

	appts, err := h.store.GetAllAppointments(r.Context(), int64(req.UserID))
	if err != nil {
		failure(w, h.logger, err, "Failed to send appointment reminder")
		return
	}
	for _, a := range appts {
		if a.ID != int64(req.AppointmentID) {
			continue
		}
		res, err := h.notifications.SendAppointmentReminder(r.Context(), a)
		if err != nil {
			failure(w, h.logger, err, "Failed to send appointment reminder")
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeError(w, http.StatusNotFound, "Appointment not found")
}

type unregisterRequest struct {
	Token string `json:"token"`
}

func (h *NotificationsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req unregisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "Device token is required")
		return
	}
	if err := h.notifications.Unregister(r.Context(), req.Token); err != nil {
		failure(w, h.logger, err, "Failed to unregister device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Device unregistered"})
}

func (h *NotificationsHandler) Devices(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	devices, err := h.notifications.Devices(r.Context(), userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"devices": nonNil(devices),
		"count":   len(devices),
	})
}
