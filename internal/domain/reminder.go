package domain

import "time"

// Reminder 服药提醒（对应 reminders 表）
// delivered 只允许 false -> true 一次
type Reminder struct {
	ID            int64      `json:"id" db:"id"`
	MedicationID  int64      `json:"medication_id" db:"medication_id"`
	ScheduledTime string     `json:"scheduled_time" db:"scheduled_time"`
	Delivered     bool       `json:"delivered" db:"delivered"`
	DeliveredAt   *time.Time `json:"delivered_at" db:"delivered_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// NewReminder 校验提醒参数
func NewReminder(medicationID int64, scheduledTime string) (Reminder, error) {
	if err := requiredID("medication_id", medicationID); err != nil {
		return Reminder{}, err
	}
	if err := required("scheduled_time", scheduledTime); err != nil {
		return Reminder{}, err
	}
	return Reminder{MedicationID: medicationID, ScheduledTime: scheduledTime}, nil
}
