package repository

import (
	"context"

	"medimate-backend/internal/domain"
)

// UsersRepository 用户Repository接口
type UsersRepository interface {
	// CreateUser phone 重复时返回 ErrDuplicate
	CreateUser(ctx context.Context, phone, name, language string) (*domain.User, error)
	// FindUserByPhone 不存在时返回 (nil, nil)
	FindUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// MedicationsRepository 用药Repository接口（软删除）
type MedicationsRepository interface {
	CreateMedication(ctx context.Context, userID int64, medicineName, dosage, timeOfDay, frequency string) (*domain.Medication, error)
	// GetMedicationsByUserID 只返回 active=true，按创建时间倒序
	GetMedicationsByUserID(ctx context.Context, userID int64) ([]domain.Medication, error)
	// ListMedicationsByUserID 包含已停用的用药，排序同上
	ListMedicationsByUserID(ctx context.Context, userID int64) ([]domain.Medication, error)
	// UpdateMedication 不存在时返回 (nil, nil)
	UpdateMedication(ctx context.Context, id int64, patch domain.MedicationPatch) (*domain.Medication, error)
	// DeleteMedication 置 active=false；记录存在即返回 true（重复调用同样为 true）
	DeleteMedication(ctx context.Context, id int64) (bool, error)
}

// ConversationsRepository 对话Repository接口（只追加）
type ConversationsRepository interface {
	CreateConversation(ctx context.Context, userID int64, message, response string) (*domain.Conversation, error)
	// GetConversationHistory 最近 limit 条，按时间正序；limit<=0 取默认 5
	GetConversationHistory(ctx context.Context, userID int64, limit int) ([]domain.Conversation, error)
}

// RemindersRepository 提醒Repository接口
type RemindersRepository interface {
	CreateReminder(ctx context.Context, medicationID int64, scheduledTime string) (*domain.Reminder, error)
	// GetPendingReminders 该用户 active 用药下 delivered=false 的提醒
	GetPendingReminders(ctx context.Context, userID int64) ([]domain.Reminder, error)
	// MarkReminderDelivered 仅在 false->true 时返回 true；重复确认返回 false
	MarkReminderDelivered(ctx context.Context, id int64) (bool, error)
}

// EmergencyRepository 紧急联系人与告警Repository接口
type EmergencyRepository interface {
	AddEmergencyContact(ctx context.Context, contact domain.EmergencyContact) (*domain.EmergencyContact, error)
	// GetEmergencyContacts is_active=true，priority 升序
	GetEmergencyContacts(ctx context.Context, userID int64) ([]domain.EmergencyContact, error)
	// DeleteEmergencyContact 物理删除；不存在也视为成功
	DeleteEmergencyContact(ctx context.Context, id int64) error

	CreateEmergencyAlert(ctx context.Context, alert domain.EmergencyAlert) (*domain.EmergencyAlert, error)
	// GetActiveEmergencyAlerts status=active，按触发时间倒序
	GetActiveEmergencyAlerts(ctx context.Context, userID int64) ([]domain.EmergencyAlert, error)
	// ResolveEmergencyAlert 只迁移 active 告警并返回迁移后的记录；已 resolved 或不存在时返回 (nil, nil)
	ResolveEmergencyAlert(ctx context.Context, id int64) (*domain.EmergencyAlert, error)
}

// VitalsRepository 健康体征Repository接口
type VitalsRepository interface {
	AddHealthVital(ctx context.Context, vital domain.HealthVital) (*domain.HealthVital, error)
	// GetAllVitals 最近 days 天，按记录时间倒序
	GetAllVitals(ctx context.Context, userID int64, days int) ([]domain.HealthVital, error)
	GetVitalsByType(ctx context.Context, userID int64, vitalType string, days int) ([]domain.HealthVital, error)
	GetHealthTrends(ctx context.Context, userID int64, days int) (domain.HealthTrends, error)
}

// CaregiversRepository 照护者Repository接口
type CaregiversRepository interface {
	// InviteCaregiver invite_code 重复时返回 ErrDuplicate
	InviteCaregiver(ctx context.Context, caregiver domain.Caregiver) (*domain.Caregiver, error)
	// AcceptCaregiverInvite code+phone 匹配且仍为 pending 时接受；否则 (nil, nil)
	AcceptCaregiverInvite(ctx context.Context, inviteCode, caregiverPhone string) (*domain.Caregiver, error)
	// GetPatientCaregivers 已接受的照护者
	GetPatientCaregivers(ctx context.Context, patientID int64) ([]domain.Caregiver, error)
	// GetCaregiverPatients 该手机号已接受的照护关系 + 被照护人
	GetCaregiverPatients(ctx context.Context, caregiverPhone string) ([]domain.CaregiverWithPatient, error)
	RemoveCaregiver(ctx context.Context, id int64) error
}

// AppointmentsRepository 预约Repository接口
type AppointmentsRepository interface {
	AddAppointment(ctx context.Context, appointment domain.Appointment) (*domain.Appointment, error)
	// GetAllAppointments 按预约时间升序
	GetAllAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error)
	// GetUpcomingAppointments 未来且 scheduled，按预约时间升序
	GetUpcomingAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, patch domain.AppointmentPatch) (*domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

// NotificationTokensRepository 推送令牌Repository接口
type NotificationTokensRepository interface {
	// CreateNotificationToken token 重复时返回 ErrDuplicate
	CreateNotificationToken(ctx context.Context, token domain.NotificationToken) (*domain.NotificationToken, error)
	FindNotificationToken(ctx context.Context, token string) (*domain.NotificationToken, error)
	// GetUserNotificationTokens is_active=true
	GetUserNotificationTokens(ctx context.Context, userID int64) ([]domain.NotificationToken, error)
	UpdateNotificationToken(ctx context.Context, token string, patch domain.TokenPatch) error
	DeactivateNotificationToken(ctx context.Context, token string) error
}

// StatsRepository 派生统计
type StatsRepository interface {
	GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
	GetMedicationAdherence(ctx context.Context, userID int64, days int) (*domain.Adherence, error)
}

// Store 完整的持久化契约，PostgresStore 与 MemoryStore 两种实现可互换
type Store interface {
	UsersRepository
	MedicationsRepository
	ConversationsRepository
	RemindersRepository
	EmergencyRepository
	VitalsRepository
	CaregiversRepository
	AppointmentsRepository
	NotificationTokensRepository
	StatsRepository
}
