package domain

import "time"

// DefaultDeviceType 客户端未上报设备类型时使用
const DefaultDeviceType = "unknown"

// NotificationToken 推送设备令牌（对应 notification_tokens 表）
// token 唯一；注销只把 is_active 置为 false
type NotificationToken struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	Token      string     `json:"token" db:"token"`
	DeviceType string     `json:"device_type" db:"device_type"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at" db:"last_used_at"`
}

// NewNotificationToken 校验设备注册参数
func NewNotificationToken(userID int64, token, deviceType string) (NotificationToken, error) {
	if err := requiredID("user_id", userID); err != nil {
		return NotificationToken{}, err
	}
	if err := required("token", token); err != nil {
		return NotificationToken{}, err
	}
	return NotificationToken{
		UserID:     userID,
		Token:      token,
		DeviceType: orDefault(deviceType, DefaultDeviceType),
		IsActive:   true,
	}, nil
}

// TokenPatch 令牌部分更新
type TokenPatch struct {
	UserID     *int64 // 设备换了账号时重新绑定
	DeviceType *string
	IsActive   *bool
	LastUsedAt *time.Time
}

// Apply 把补丁合并到 t 上
func (p TokenPatch) Apply(t *NotificationToken) {
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	if p.DeviceType != nil {
		t.DeviceType = *p.DeviceType
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.LastUsedAt != nil {
		lu := *p.LastUsedAt
		t.LastUsedAt = &lu
	}
}
