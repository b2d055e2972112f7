package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/notify"
	"medimate-backend/internal/repository"
)

// DefaultNotificationTitle 未指定标题时使用
const DefaultNotificationTitle = "MediMate"

// notificationStore 通知服务依赖的存储能力
type notificationStore interface {
	repository.UsersRepository
	repository.NotificationTokensRepository
}

// NotificationService 设备注册与推送
type NotificationService struct {
	store   notificationStore
	push    notify.PushSender     // nil 表示只记录，不真正下发
	devices notify.DeviceNotifier // nil 表示不镜像到 MQTT
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService 创建通知服务；push 与 devices 均可为 nil
func NewNotificationService(store notificationStore, push notify.PushSender, devices notify.DeviceNotifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:   store,
		push:    push,
		devices: devices,
		logger:  logger,
		now:     time.Now,
	}
}

// Notification 一条待发送的通知
type Notification struct {
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	Sound    string         `json:"sound,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

// SendResult 发送结果
type SendResult struct {
	Success bool                `json:"success"`
	Sent    int                 `json:"sent"`
	Payload *Notification       `json:"payload,omitempty"`
	Tickets []notify.PushTicket `json:"tickets,omitempty"`
	Message string              `json:"message"`
}

// Register 注册设备令牌；已存在的令牌重新激活、绑定到 userID 并刷新 last_used_at
func (s *NotificationService) Register(ctx context.Context, userID int64, token, deviceType string) (*domain.NotificationToken, error) {
	nt, err := domain.NewNotificationToken(userID, token, deviceType)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindNotificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.reactivate(ctx, existing, userID, deviceType)
	}

	created, err := s.store.CreateNotificationToken(ctx, nt)
	if errors.Is(err, repository.ErrDuplicate) {
		// 并发注册同一令牌
		existing, err = s.store.FindNotificationToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.reactivate(ctx, existing, userID, deviceType)
		}
		return nil, repository.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("device registered",
		zap.Int64("user_id", userID),
		zap.String("device_type", created.DeviceType),
	)
	return created, nil
}

// reactivate deviceType 为空时保留原值
func (s *NotificationService) reactivate(ctx context.Context, t *domain.NotificationToken, userID int64, deviceType string) (*domain.NotificationToken, error) {
	now := s.now().UTC()
	active := true
	patch := domain.TokenPatch{UserID: &userID, IsActive: &active, LastUsedAt: &now}
	if deviceType != "" {
		patch.DeviceType = &deviceType
	}
	if err := s.store.UpdateNotificationToken(ctx, t.Token, patch); err != nil {
		return nil, err
	}
	if t.UserID != userID {
		s.logger.Info("device moved to another user",
			zap.Int64("from_user_id", t.UserID),
			zap.Int64("to_user_id", userID),
		)
	}
	patch.Apply(t)
	return t, nil
}

// Unregister 注销设备（is_active=false）
func (s *NotificationService) Unregister(ctx context.Context, token string) error {
	return s.store.DeactivateNotificationToken(ctx, token)
}

// Devices 用户当前有效的设备
func (s *NotificationService) Devices(ctx context.Context, userID int64) ([]domain.NotificationToken, error) {
	return s.store.GetUserNotificationTokens(ctx, userID)
}

// Send 推送给用户的所有有效设备，并镜像到用户的 MQTT 主题
func (s *NotificationService) Send(ctx context.Context, userID int64, n Notification) (*SendResult, error) {
	tokens, err := s.store.GetUserNotificationTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return &SendResult{Success: false, Message: "No devices registered"}, nil
	}

	if n.Title == "" {
		n.Title = DefaultNotificationTitle
	}
	if n.Sound == "" {
		n.Sound = "default"
	}
	if n.Priority == "" {
		n.Priority = "high"
	}

	msgs := make([]notify.PushMessage, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, notify.PushMessage{
			To:       t.Token,
			Title:    n.Title,
			Body:     n.Body,
			Data:     n.Data,
			Sound:    n.Sound,
			Priority: n.Priority,
		})
	}

	result := &SendResult{Success: true, Sent: len(msgs), Payload: &n, Message: "Notification queued for delivery"}
	if s.push != nil {
		tickets, err := s.push.SendPush(ctx, msgs)
		if err != nil {
			return nil, fmt.Errorf("failed to send push: %w", err)
		}
		result.Tickets = tickets
		result.Sent = 0
		for _, t := range tickets {
			if t.Status == "ok" {
				result.Sent++
			}
		}
		result.Message = "Notification sent"
	} else {
		s.logger.Debug("push sender not configured, notification queued only",
			zap.Int64("user_id", userID),
			zap.Int("devices", len(msgs)),
		)
	}

	if s.devices != nil {
		if err := s.devices.NotifyDevice(ctx, userID, n); err != nil {
			s.logger.Warn("device notify failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return result, nil
}

// SendMedicationReminder 服药提醒
func (s *NotificationService) SendMedicationReminder(ctx context.Context, med domain.Medication) (*SendResult, error) {
	return s.Send(ctx, med.UserID, Notification{
		Title: "💊 Medication Reminder",
		Body:  fmt.Sprintf("Time to take %s - %s", med.MedicineName, med.Dosage),
		Data: map[string]any{
			"type":          "medication_reminder",
			"medication_id": med.ID,
		},
	})
}

// SendAppointmentReminder 就诊提醒
func (s *NotificationService) SendAppointmentReminder(ctx context.Context, appt domain.Appointment) (*SendResult, error) {
	return s.Send(ctx, appt.UserID, Notification{
		Title: "👨‍⚕️ Appointment Reminder",
		Body: fmt.Sprintf("Appointment with Dr. %s at %s",
			appt.DoctorName, appt.AppointmentDate.Format("Jan 2, 3:04 PM")),
		Data: map[string]any{
			"type":           "appointment_reminder",
			"appointment_id": appt.ID,
		},
	})
}

// CaregiverNotifyResult 单个照护者的紧急推送结果
type CaregiverNotifyResult struct {
	CaregiverID int64  `json:"caregiverId"`
	Name        string `json:"name"`
	Sent        int    `json:"sent"`
	Error       string `json:"error,omitempty"`
}

// SendEmergencyNotification 推送紧急告警给已接受邀请、且已注册账号的照护者
func (s *NotificationService) SendEmergencyNotification(ctx context.Context, patient domain.User, alert domain.EmergencyAlert, caregivers []domain.Caregiver) []CaregiverNotifyResult {
	location := alert.Location
	if location == "" {
		location = "Unknown"
	}
	n := Notification{
		Title: "🆘 EMERGENCY ALERT",
		Body:  fmt.Sprintf("%s needs help! Location: %s", patient.Name, location),
		Data: map[string]any{
			"type":       "emergency",
			"alert_id":   alert.ID,
			"patient_id": patient.ID,
		},
		Priority: "high",
	}

	results := make([]CaregiverNotifyResult, 0, len(caregivers))
	for _, cg := range caregivers {
		if cg.Status != domain.CaregiverStatusAccepted {
			continue
		}
		r := CaregiverNotifyResult{CaregiverID: cg.ID, Name: cg.CaregiverName}

		account, err := s.store.FindUserByPhone(ctx, cg.CaregiverPhone)
		if err != nil {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}
		if account == nil {
			continue
		}

		sent, err := s.Send(ctx, account.ID, n)
		if err != nil {
			s.logger.Warn("emergency push failed", zap.Int64("caregiver_id", cg.ID), zap.Error(err))
			r.Error = err.Error()
		} else {
			r.Sent = sent.Sent
		}
		results = append(results, r)
	}
	return results
}
