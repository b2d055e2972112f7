package domain

import "time"

// 告警状态
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// AlertTypeManual 用户手动触发的 SOS
const AlertTypeManual = "manual"

// DefaultAlertMessage 未填写求助内容时使用
const DefaultAlertMessage = "Emergency help needed!"

// EmergencyContact 紧急联系人（对应 emergency_contacts 表）
// 按 priority 升序通知；删除为物理删除
type EmergencyContact struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	Relationship string    `json:"relationship" db:"relationship"`
	Priority     int       `json:"priority" db:"priority"`   // 1 = 最先通知
	IsActive     bool      `json:"is_active" db:"is_active"` // DEFAULT TRUE
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewEmergencyContact 校验联系人；priority <= 0 时取 1
func NewEmergencyContact(userID int64, name, phone, relationship string, priority int) (EmergencyContact, error) {
	if err := requiredID("user_id", userID); err != nil {
		return EmergencyContact{}, err
	}
	if err := required("name", name); err != nil {
		return EmergencyContact{}, err
	}
	if err := required("phone", phone); err != nil {
		return EmergencyContact{}, err
	}
	if priority <= 0 {
		priority = 1
	}
	return EmergencyContact{
		UserID:       userID,
		Name:         name,
		Phone:        phone,
		Relationship: relationship,
		Priority:     priority,
		IsActive:     true,
	}, nil
}

// EmergencyAlert 紧急告警（对应 emergency_alerts 表）
// status: active -> resolved，只发生一次
type EmergencyAlert struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	AlertType   string     `json:"alert_type" db:"alert_type"`
	Location    string     `json:"location" db:"location"`
	Message     string     `json:"message" db:"message"`
	Status      string     `json:"status" db:"status"`
	TriggeredAt time.Time  `json:"triggered_at" db:"triggered_at"`
	ResolvedAt  *time.Time `json:"resolved_at" db:"resolved_at"`
}

// NewEmergencyAlert 构造一条 active 告警
func NewEmergencyAlert(userID int64, alertType, location, message string) (EmergencyAlert, error) {
	if err := requiredID("user_id", userID); err != nil {
		return EmergencyAlert{}, err
	}
	return EmergencyAlert{
		UserID:    userID,
		AlertType: orDefault(alertType, AlertTypeManual),
		Location:  location,
		Message:   orDefault(message, DefaultAlertMessage),
		Status:    AlertStatusActive,
	}, nil
}
