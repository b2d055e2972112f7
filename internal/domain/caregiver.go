package domain

import "time"

// 照护者邀请状态
const (
	CaregiverStatusPending  = "pending"
	CaregiverStatusAccepted = "accepted"
)

// 默认关系与权限
const (
	DefaultRelationship = "Family"
	DefaultAccessLevel  = "view"
)

// Caregiver 照护者关系（对应 caregivers 表）
// invite_code 唯一，最多被接受一次；删除为物理删除
type Caregiver struct {
	ID             int64      `json:"id" db:"id"`
	PatientID      int64      `json:"patient_id" db:"patient_id"`
	CaregiverPhone string     `json:"caregiver_phone" db:"caregiver_phone"`
	CaregiverName  string     `json:"caregiver_name" db:"caregiver_name"`
	Relationship   string     `json:"relationship" db:"relationship"`
	AccessLevel    string     `json:"access_level" db:"access_level"`
	InviteCode     string     `json:"invite_code" db:"invite_code"`
	Status         string     `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt     *time.Time `json:"accepted_at" db:"accepted_at"`
}

// NewCaregiver 构造一条 pending 邀请
func NewCaregiver(patientID int64, phone, name, relationship, accessLevel, inviteCode string) (Caregiver, error) {
	if err := requiredID("patient_id", patientID); err != nil {
		return Caregiver{}, err
	}
	if err := required("caregiver_phone", phone); err != nil {
		return Caregiver{}, err
	}
	if err := required("caregiver_name", name); err != nil {
		return Caregiver{}, err
	}
	if err := required("invite_code", inviteCode); err != nil {
		return Caregiver{}, err
	}
	return Caregiver{
		PatientID:      patientID,
		CaregiverPhone: phone,
		CaregiverName:  name,
		Relationship:   orDefault(relationship, DefaultRelationship),
		AccessLevel:    orDefault(accessLevel, DefaultAccessLevel),
		InviteCode:     inviteCode,
		Status:         CaregiverStatusPending,
	}, nil
}

// CaregiverWithPatient 照护者记录 + 被照护人资料
type CaregiverWithPatient struct {
	Caregiver
	Patient *User `json:"patient"`
}
