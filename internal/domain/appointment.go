package domain

import "time"

// 预约状态
const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
)

// Appointment 就诊预约（对应 appointments 表），删除为物理删除
type Appointment struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	DoctorName      string    `json:"doctor_name" db:"doctor_name"`
	Specialty       string    `json:"specialty" db:"specialty"`
	AppointmentDate time.Time `json:"appointment_date" db:"appointment_date"`
	Location        string    `json:"location" db:"location"`
	Phone           string    `json:"phone" db:"phone"`
	Notes           string    `json:"notes" db:"notes"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewAppointment 构造一条 scheduled 预约
func NewAppointment(userID int64, doctorName, specialty string, date time.Time, location, phone, notes string) (Appointment, error) {
	if err := requiredID("user_id", userID); err != nil {
		return Appointment{}, err
	}
	if err := required("doctor_name", doctorName); err != nil {
		return Appointment{}, err
	}
	if date.IsZero() {
		return Appointment{}, &ValidationError{Field: "appointment_date"}
	}
	return Appointment{
		UserID:          userID,
		DoctorName:      doctorName,
		Specialty:       specialty,
		AppointmentDate: date,
		Location:        location,
		Phone:           phone,
		Notes:           notes,
		Status:          AppointmentScheduled,
	}, nil
}

// AppointmentPatch 部分字段更新，nil 表示不修改
type AppointmentPatch struct {
	DoctorName      *string    `json:"doctor_name,omitempty"`
	Specialty       *string    `json:"specialty,omitempty"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	Location        *string    `json:"location,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Status          *string    `json:"status,omitempty"`
}

// Validate 只校验 status 取值
func (p AppointmentPatch) Validate() error {
	if p.Status != nil {
		return oneOf("status", *p.Status, AppointmentScheduled, AppointmentCancelled, AppointmentCompleted)
	}
	return nil
}

// Empty 没有任何字段需要更新
func (p AppointmentPatch) Empty() bool {
	return p.DoctorName == nil && p.Specialty == nil && p.AppointmentDate == nil &&
		p.Location == nil && p.Phone == nil && p.Notes == nil && p.Status == nil
}

// Apply 把补丁合并到 a 上
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.DoctorName != nil {
		a.DoctorName = *p.DoctorName
	}
	if p.Specialty != nil {
		a.Specialty = *p.Specialty
	}
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}
