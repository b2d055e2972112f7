package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
)

const inviteCodeAttempts = 3

// NewInviteCode 12 位大写十六进制邀请码
func NewInviteCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:12])
}

// CaregiverService 照护者邀请与患者概览
type CaregiverService struct {
	store   repository.Store
	newCode func() string
	logger  *zap.Logger
}

// NewCaregiverService 创建照护者服务
func NewCaregiverService(store repository.Store, logger *zap.Logger) *CaregiverService {
	return &CaregiverService{store: store, newCode: NewInviteCode, logger: logger}
}

// InviteRequest 邀请照护者
type InviteRequest struct {
	PatientID      int64  `json:"patientId"`
	CaregiverPhone string `json:"caregiverPhone"`
	CaregiverName  string `json:"caregiverName"`
	Relationship   string `json:"relationship"`
	AccessLevel    string `json:"accessLevel"`
}

// Invite 生成邀请码并保存 pending 邀请；邀请码冲突时重新生成
func (s *CaregiverService) Invite(ctx context.Context, req InviteRequest) (*domain.Caregiver, error) {
	var lastErr error
	for i := 0; i < inviteCodeAttempts; i++ {
		cg, err := domain.NewCaregiver(req.PatientID, req.CaregiverPhone, req.CaregiverName,
			req.Relationship, req.AccessLevel, s.newCode())
		if err != nil {
			return nil, err
		}

		created, err := s.store.InviteCaregiver(ctx, cg)
		if err == nil {
			s.logger.Info("caregiver invited",
				zap.Int64("patient_id", created.PatientID),
				zap.Int64("caregiver_id", created.ID),
			)
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("invite code collision, retrying", zap.Int("attempt", i+1))
	}
	return nil, fmt.Errorf("failed to allocate invite code: %w", lastErr)
}

// MedicationSummary 患者用药概览
type MedicationSummary struct {
	Total  int                 `json:"total"`
	Active int                 `json:"active"`
	List   []domain.Medication `json:"list"`
}

// PatientInfo 照护者可见的患者资料
type PatientInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

// PatientStatus 照护者看到的患者状态
type PatientStatus struct {
	Patient      PatientInfo          `json:"patient"`
	Medications  MedicationSummary    `json:"medications"`
	Vitals       []domain.HealthVital `json:"vitals"`
	Appointments []domain.Appointment `json:"appointments"`
	Adherence    *domain.Adherence    `json:"adherence"`
}

const patientStatusVitalDays = 7

// PatientStatus 汇总患者的用药（含已停用）、近 7 天体征、待就诊预约与 30 天依从性
func (s *CaregiverService) PatientStatus(ctx context.Context, patientID int64) (*PatientStatus, error) {
	patient, err := s.store.FindUserByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrUserNotFound
	}

	meds, err := s.store.ListMedicationsByUserID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	vitals, err := s.store.GetAllVitals(ctx, patientID, patientStatusVitalDays)
	if err != nil {
		return nil, err
	}
	appts, err := s.store.GetUpcomingAppointments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	adherence, err := s.store.GetMedicationAdherence(ctx, patientID, domain.DefaultWindowDays)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, m := range meds {
		if m.Active {
			active++
		}
	}

	return &PatientStatus{
		Patient: PatientInfo{
			ID:       patient.ID,
			Name:     patient.Name,
			Phone:    patient.Phone,
			Language: patient.Language,
		},
		Medications:  MedicationSummary{Total: len(meds), Active: active, List: meds},
		Vitals:       vitals,
		Appointments: appts,
		Adherence:    adherence,
	}, nil
}
