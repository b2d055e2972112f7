package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/events"
	"medimate-backend/internal/notify"
	"medimate-backend/internal/repository"
)

// DefaultSMSWorkers 并发发送短信的协程数
const DefaultSMSWorkers = 8

// EmergencyService SOS 触发、状态查询与解除
type EmergencyService struct {
	store    repository.Store
	sms      notify.SMSSender // nil 表示短信未配置
	notifier *NotificationService
	events   events.Publisher
	pool     *ants.Pool
	logger   *zap.Logger
	now      func() time.Time
}

// NewEmergencyService 创建紧急服务；sms、notifier 可为 nil，pub 为 nil 时丢弃事件
func NewEmergencyService(store repository.Store, sms notify.SMSSender, notifier *NotificationService,
	pub events.Publisher, workers int, logger *zap.Logger) (*EmergencyService, error) {
	if workers <= 0 {
		workers = DefaultSMSWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create sms pool: %w", err)
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &EmergencyService{
		store:    store,
		sms:      sms,
		notifier: notifier,
		events:   pub,
		pool:     pool,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Release 释放短信协程池
func (s *EmergencyService) Release() {
	s.pool.Release()
}

// TriggerRequest 触发 SOS
type TriggerRequest struct {
	UserID   int64  `json:"userId"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// SMSResult 单个联系人的短信结果
type SMSResult struct {
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Status  string `json:"status"` // sent | failed
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SMSSummary 短信群发汇总
type SMSSummary struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Results []SMSResult `json:"results,omitempty"`
	Sent    int         `json:"sent"`
	Failed  int         `json:"failed"`
}

// TriggerResult SOS 结果
type TriggerResult struct {
	Success            bool                    `json:"success"`
	Alert              *domain.EmergencyAlert  `json:"alert,omitempty"`
	ContactsNotified   int                     `json:"contactsNotified"`
	SMSResults         *SMSSummary             `json:"smsResults,omitempty"`
	CaregiversNotified []CaregiverNotifyResult `json:"caregiversNotified,omitempty"`
	Message            string                  `json:"message"`
}

// Trigger 记录告警，短信通知所有紧急联系人，推送给照护者并发布事件
func (s *EmergencyService) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	alert, err := domain.NewEmergencyAlert(req.UserID, domain.AlertTypeManual, req.Location, req.Message)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	contacts, err := s.store.GetEmergencyContacts(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return &TriggerResult{Success: false, Message: "No emergency contacts configured"}, nil
	}

	created, err := s.store.CreateEmergencyAlert(ctx, alert)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("emergency alert triggered",
		zap.Int64("user_id", user.ID),
		zap.Int64("alert_id", created.ID),
		zap.Int("contacts", len(contacts)),
	)

	summary := s.sendSMS(ctx, *user, req.Location, contacts)

	var caregiverResults []CaregiverNotifyResult
	if s.notifier != nil {
		caregivers, err := s.store.GetPatientCaregivers(ctx, user.ID)
		if err != nil {
			s.logger.Warn("failed to load caregivers", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			caregiverResults = s.notifier.SendEmergencyNotification(ctx, *user, *created, caregivers)
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.TypeEmergencyTriggered,
		UserID:  user.ID,
		AlertID: created.ID,
		Data:    created,
	})

	return &TriggerResult{
		Success:            true,
		Alert:              created,
		ContactsNotified:   len(contacts),
		SMSResults:         summary,
		CaregiversNotified: caregiverResults,
		Message:            "Emergency alert sent successfully",
	}, nil
}

// EmergencyMessage 发给紧急联系人的短信正文
func EmergencyMessage(user domain.User, location string) string {
	if location == "" {
		location = "Not available"
	}
	return fmt.Sprintf("🆘 EMERGENCY ALERT!\n\n%s needs help!\n\nPhone: %s\nLocation: %s\n\nPlease check on them immediately!",
		user.Name, user.Phone, location)
}

// sendSMS 通过协程池并发发送，结果顺序与联系人顺序一致
func (s *EmergencyService) sendSMS(ctx context.Context, user domain.User, location string, contacts []domain.EmergencyContact) *SMSSummary {
	if s.sms == nil {
		return &SMSSummary{Success: false, Message: "SMS service not configured"}
	}

	body := EmergencyMessage(user, location)
	results := make([]SMSResult, len(contacts))
	var wg sync.WaitGroup
	for i, c := range contacts {
		results[i] = SMSResult{Contact: c.Name, Phone: c.Phone}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			sid, err := s.sms.SendSMS(ctx, c.Phone, body)
			if err != nil {
				results[i].Status = "failed"
				results[i].Error = err.Error()
				return
			}
			results[i].Status = "sent"
			results[i].SID = sid
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			results[i].Status = "failed"
			results[i].Error = err.Error()
		}
	}
	wg.Wait()

	summary := &SMSSummary{Success: true, Results: results}
	for _, r := range results {
		if r.Status == "sent" {
			summary.Sent++
		} else {
			summary.Failed++
			s.logger.Error("emergency sms failed", zap.String("contact", r.Contact), zap.String("error", r.Error))
		}
	}
	return summary
}

// EmergencyStatus 用户的紧急状态
type EmergencyStatus struct {
	HasActiveAlerts   bool                      `json:"hasActiveAlerts"`
	ActiveAlerts      []domain.EmergencyAlert   `json:"activeAlerts"`
	EmergencyContacts []domain.EmergencyContact `json:"emergencyContacts"`
	ContactCount      int                       `json:"contactCount"`
}

// Status 未解除的告警与联系人
func (s *EmergencyService) Status(ctx context.Context, userID int64) (*EmergencyStatus, error) {
	alerts, err := s.store.GetActiveEmergencyAlerts(ctx, userID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.store.GetEmergencyContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &EmergencyStatus{
		HasActiveAlerts:   len(alerts) > 0,
		ActiveAlerts:      alerts,
		EmergencyContacts: contacts,
		ContactCount:      len(contacts),
	}, nil
}

// Resolve 解除告警；只有真正从 active 迁移时才返回告警并通知告警所属用户的订阅者
// 告警不存在或已解除时返回 (nil, nil)
func (s *EmergencyService) Resolve(ctx context.Context, alertID int64) (*domain.EmergencyAlert, error) {
	alert, err := s.store.ResolveEmergencyAlert(ctx, alertID)
	if err != nil || alert == nil {
		return nil, err
	}
	s.logger.Info("emergency alert resolved",
		zap.Int64("alert_id", alert.ID),
		zap.Int64("user_id", alert.UserID),
	)
	s.publish(ctx, events.Event{
		Type:    events.TypeEmergencyResolved,
		UserID:  alert.UserID,
		AlertID: alert.ID,
	})
	return alert, nil
}

func (s *EmergencyService) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", e.Type), zap.Error(err))
	}
}
