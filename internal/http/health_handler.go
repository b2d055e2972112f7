package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
)

// HealthHandler 健康体征与就诊预约
type HealthHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewHealthHandler(store repository.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// windowDays 解析 ?days=，缺省或非正数时取 30
func windowDays(r *http.Request) int {
	days := parseInt(r.URL.Query().Get("days"), domain.DefaultWindowDays)
	if days <= 0 {
		days = domain.DefaultWindowDays
	}
	return days
}

type addVitalRequest struct {
	UserID    flexID `json:"userId"`
	VitalType string `json:"vitalType"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes"`
}

func (h *HealthHandler) AddVital(w http.ResponseWriter, r *http.Request) {
	var req addVitalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vital, err := domain.NewHealthVital(int64(req.UserID), req.VitalType, req.Value, req.Unit, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User ID, vital type, and value are required")
		return
	}

	created, err := h.store.AddHealthVital(r.Context(), vital)
	if err != nil {
		failure(w, h.logger, err, "Failed to add health vital")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"vital":   created,
		"message": "Health vital recorded successfully",
	})
}

func (h *HealthHandler) Vitals(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	days := windowDays(r)

	var (
		vitals []domain.HealthVital
		err    error
	)
	if vitalType := r.URL.Query().Get("type"); vitalType != "" {
		vitals, err = h.store.GetVitalsByType(r.Context(), userID, vitalType, days)
	} else {
		vitals, err = h.store.GetAllVitals(r.Context(), userID, days)
	}
	if err != nil {
		failure(w, h.logger, err, "Failed to get vitals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"vitals":  nonNil(vitals),
		"count":   len(vitals),
	})
}

// ExportVitals 导出最近 days 天的体征为 xlsx
func (h *HealthHandler) ExportVitals(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	vitals, err := h.store.GetAllVitals(r.Context(), userID, windowDays(r))
	if err != nil {
		failure(w, h.logger, err, "Failed to export vitals")
		return
	}
	data, err := GenerateVitalsExport(vitals)
	if err != nil {
		failure(w, h.logger, err, "Failed to export vitals")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vitals-%d.xlsx"`, userID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *HealthHandler) Trends(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	days := windowDays(r)
	trends, err := h.store.GetHealthTrends(r.Context(), userID, days)
	if err != nil {
		failure(w, h.logger, err, "Failed to get health trends")
		return
	}
	if trends == nil {
		trends = domain.HealthTrends{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  fmt.Sprintf("Last %d days", days),
		"trends":  trends,
	})
}

type addAppointmentRequest struct {
	UserID          flexID `json:"userId"`
	DoctorName      string `json:"doctorName"`
	Specialty       string `json:"specialty"`
	AppointmentDate string `json:"appointmentDate"`
	Location        string `json:"location"`
	Phone           string `json:"phone"`
	Notes           string `json:"notes"`
}

func (h *HealthHandler) AddAppointment(w http.ResponseWriter, r *http.Request) {
	var req addAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.DoctorName) == "" || strings.TrimSpace(req.AppointmentDate) == "" {
		writeError(w, http.StatusBadRequest, "User ID, doctor name, and appointment date are required")
		return
	}
	date, err := parseAppointmentDate(req.AppointmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment date")
		return
	}

	appt, err := domain.NewAppointment(int64(req.UserID), req.DoctorName, req.Specialty, date, req.Location, req.Phone, req.Notes)
	if err != nil {
		failure(w, h.logger, err, "Failed to add appointment")
		return
	}
	created, err := h.store.AddAppointment(r.Context(), appt)
	if err != nil {
		failure(w, h.logger, err, "Failed to add appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"appointment": created,
		"message":     "Appointment scheduled successfully",
	})
}

func (h *HealthHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	var (
		appts []domain.Appointment
		err   error
	)
	if r.URL.Query().Get("upcoming") == "true" {
		appts, err = h.store.GetUpcomingAppointments(r.Context(), userID)
	} else {
		appts, err = h.store.GetAllAppointments(r.Context(), userID)
	}
	if err != nil {
		failure(w, h.logger, err, "Failed to get appointments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"appointments": nonNil(appts),
		"count":        len(appts),
	})
}

func (h *HealthHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch domain.AppointmentPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if err := patch.Validate(); err != nil {
		failure(w, h.logger, err, "Failed to update appointment")
		return
	}

	appt, err := h.store.UpdateAppointment(r.Context(), id, patch)
	if err != nil {
		failure(w, h.logger, err, "Failed to update appointment")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"appointment": appt,
		"message":     "Appointment updated successfully",
	})
}

func (h *HealthHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteAppointment(r.Context(), id); err != nil {
		failure(w, h.logger, err, "Failed to cancel appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Appointment cancelled successfully"})
}
