package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

// CaregiversHandler 照护者邀请与患者看板
type CaregiversHandler struct {
	caregivers *service.CaregiverService
	store      repository.CaregiversRepository
	logger     *zap.Logger
}

func NewCaregiversHandler(caregivers *service.CaregiverService, store repository.CaregiversRepository, logger *zap.Logger) *CaregiversHandler {
	return &CaregiversHandler{caregivers: caregivers, store: store, logger: logger}
}

type inviteRequest struct {
	PatientID      flexID `json:"patientId"`
	CaregiverPhone string `json:"caregiverPhone"`
	CaregiverName  string `json:"caregiverName"`
	Relationship   string `json:"relationship"`
	AccessLevel    string `json:"accessLevel"`
}

func (h *CaregiversHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PatientID <= 0 || strings.TrimSpace(req.CaregiverPhone) == "" || strings.TrimSpace(req.CaregiverName) == "" {
		writeError(w, http.StatusBadRequest, "Patient ID, caregiver phone, and name are required")
		return
	}

	cg, err := h.caregivers.Invite(r.Context(), service.InviteRequest{
		PatientID:      int64(req.PatientID),
		CaregiverPhone: req.CaregiverPhone,
		CaregiverName:  req.CaregiverName,
		Relationship:   req.Relationship,
		AccessLevel:    req.AccessLevel,
	})
	if err != nil {
		failure(w, h.logger, err, "Failed to invite caregiver")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"caregiver":  cg,
		"inviteCode": cg.InviteCode,
		"message":    fmt.Sprintf("Invitation sent to %s. Share code: %s", cg.CaregiverName, cg.InviteCode),
	})
}

type acceptInviteRequest struct {
	InviteCode     string `json:"inviteCode"`
	CaregiverPhone string `json:"caregiverPhone"`
}

func (h *CaregiversHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" || strings.TrimSpace(req.CaregiverPhone) == "" {
		writeError(w, http.StatusBadRequest, "Invite code and phone number are required")
		return
	}

	cg, err := h.store.AcceptCaregiverInvite(r.Context(), strings.ToUpper(strings.TrimSpace(req.InviteCode)), req.CaregiverPhone)
	if err != nil {
		failure(w, h.logger, err, "Failed to accept invitation")
		return
	}
	if cg == nil {
		writeError(w, http.StatusNotFound, "Invalid invite code or phone number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"caregiver": cg,
		"message":   "Invitation accepted successfully",
	})
}

func (h *CaregiversHandler) Patients(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("caregiverPhone")
	patients, err := h.store.GetCaregiverPatients(r.Context(), phone)
	if err != nil {
		failure(w, h.logger, err, "Failed to get patients")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"patients": nonNil(patients),
		"count":    len(patients),
	})
}

func (h *CaregiversHandler) Caregivers(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	caregivers, err := h.store.GetPatientCaregivers(r.Context(), patientID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get caregivers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"caregivers": nonNil(caregivers),
		"count":      len(caregivers),
	})
}

func (h *CaregiversHandler) PatientStatus(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	status, err := h.caregivers.PatientStatus(r.Context(), patientID)
	if err != nil {
		failure(w, h.logger, err, "Failed to get patient status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"patient":      status.Patient,
		"medications":  status.Medications,
		"vitals":       nonNil(status.Vitals),
		"appointments": nonNil(status.Appointments),
		"adherence":    status.Adherence,
	})
}

func (h *CaregiversHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.RemoveCaregiver(r.Context(), id); err != nil {
		failure(w, h.logger, err, "Failed to remove caregiver")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Caregiver access removed"})
}
