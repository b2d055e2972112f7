package domain

import "time"

// DefaultFrequency 未指定服药频率时使用
const DefaultFrequency = "daily"

// Medication 用药领域模型（对应 medications 表）
// 删除为软删除：active=false，记录永不物理删除
type Medication struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`             // FK users(id)
	MedicineName string    `json:"medicine_name" db:"medicine_name"` // NOT NULL
	Dosage       string    `json:"dosage" db:"dosage"`               // nullable
	Time         string    `json:"time" db:"time"`                   // "08:00"
	Frequency    string    `json:"frequency" db:"frequency"`         // DEFAULT 'daily'
	Active       bool      `json:"active" db:"active"`               // DEFAULT TRUE
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewMedication 校验新增用药参数
func NewMedication(userID int64, medicineName, dosage, timeOfDay, frequency string) (Medication, error) {
	if err := requiredID("user_id", userID); err != nil {
		return Medication{}, err
	}
	if err := required("medicine_name", medicineName); err != nil {
		return Medication{}, err
	}
	if err := required("time", timeOfDay); err != nil {
		return Medication{}, err
	}
	return Medication{
		UserID:       userID,
		MedicineName: medicineName,
		Dosage:       dosage,
		Time:         timeOfDay,
		Frequency:    orDefault(frequency, DefaultFrequency),
		Active:       true,
	}, nil
}

// MedicationPatch 部分字段更新，nil 表示不修改
type MedicationPatch struct {
	MedicineName *string `json:"medicine_name,omitempty"`
	Dosage       *string `json:"dosage,omitempty"`
	Time         *string `json:"time,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// Empty 没有任何字段需要更新
func (p MedicationPatch) Empty() bool {
	return p.MedicineName == nil && p.Dosage == nil && p.Time == nil && p.Frequency == nil && p.Active == nil
}

// Apply 把补丁合并到 m 上（last write wins）
func (p MedicationPatch) Apply(m *Medication) {
	if p.MedicineName != nil {
		m.MedicineName = *p.MedicineName
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Time != nil {
		m.Time = *p.Time
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
}
