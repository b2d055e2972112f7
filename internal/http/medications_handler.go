package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
)

// MedicationsHandler 用药与服药提醒
type MedicationsHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewMedicationsHandler(store repository.Store, logger *zap.Logger) *MedicationsHandler {
	return &MedicationsHandler{store: store, logger: logger}
}

type createMedicationRequest struct {
	UserID       flexID `json:"user_id"`
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Time         string `json:"time"`
	Frequency    string `json:"frequency"`
}

func (h *MedicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMedicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.MedicineName) == "" || strings.TrimSpace(req.Time) == "" {
		writeError(w, http.StatusBadRequest, "user_id, medicine_name, and time are required")
		return
	}

	med, err := h.store.CreateMedication(r.Context(), int64(req.UserID), req.MedicineName, req.Dosage, req.Time, req.Frequency)
	if err != nil {
		failure(w, h.logger, err, "Failed to add medication")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"message":    "Medication added successfully",
		"medication": med,
	})
}

func (h *MedicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	meds, err := h.store.GetMedicationsByUserID(r.Context(), userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get medications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(meds),
		"medications": nonNil(meds),
	})
}

func (h *MedicationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch domain.MedicationPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	med, err := h.store.UpdateMedication(r.Context(), id, patch)
	if err != nil {
		failure(w, h.logger, err, "Failed to update medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "Medication not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Medication updated successfully",
		"medication": med,
	})
}

func (h *MedicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	found, err := h.store.DeleteMedication(r.Context(), id)
	if err != nil {
		failure(w, h.logger, err, "Failed to delete medication")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Medication not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Medication deleted successfully"})
}

type createReminderRequest struct {
	MedicationID  flexID `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"`
}

func (h *MedicationsHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rem, err := h.store.CreateReminder(r.Context(), int64(req.MedicationID), req.ScheduledTime)
	if err != nil {
		failure(w, h.logger, err, "Failed to create reminder")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "reminder": rem})
}

func (h *MedicationsHandler) PendingReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	reminders, err := h.store.GetPendingReminders(r.Context(), userID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get pending reminders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(reminders),
		"reminders": nonNil(reminders),
	})
}

func (h *MedicationsHandler) ConfirmReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	changed, err := h.store.MarkReminderDelivered(r.Context(), id)
	if err != nil {
		failure(w, h.logger, err, "Failed to confirm reminder")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "Reminder not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Medication confirmed as taken"})
}

// nonNil 空结果序列化为 [] 而不是 null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
