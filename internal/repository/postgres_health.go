package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const vitalColumns = `id, user_id, vital_type, value, COALESCE(unit, ''), COALESCE(notes, ''), recorded_at`

func scanVital(row rowScanner) (*domain.HealthVital, error) {
	var v domain.HealthVital
	if err := row.Scan(&v.ID, &v.UserID, &v.VitalType, &v.Value, &v.Unit, &v.Notes, &v.RecordedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// AddHealthVital 记录一条体征
func (s *PostgresStore) AddHealthVital(ctx context.Context, vital domain.HealthVital) (*domain.HealthVital, error) {
	v, err := domain.NewHealthVital(vital.UserID, vital.VitalType, vital.Value, vital.Unit, vital.Notes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO health_vitals (user_id, vital_type, value, unit, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + vitalColumns

	created, err := scanVital(s.db.QueryRowContext(ctx, query,
		v.UserID, v.VitalType, v.Value, nullIfEmpty(v.Unit), nullIfEmpty(v.Notes)))
	if err != nil {
		return nil, wrapErr("add health vital", err)
	}
	return created, nil
}

// GetAllVitals 最近 days 天全部体征
func (s *PostgresStore) GetAllVitals(ctx context.Context, userID int64, days int) ([]domain.HealthVital, error) {
	query := `
		SELECT ` + vitalColumns + `
		FROM health_vitals
		WHERE user_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at DESC, id DESC`
	return s.queryVitals(ctx, "list health vitals", query, userID, windowStart(s.now(), days))
}

// GetVitalsByType 最近 days 天某一类型的体征
func (s *PostgresStore) GetVitalsByType(ctx context.Context, userID int64, vitalType string, days int) ([]domain.HealthVital, error) {
	query := `
		SELECT ` + vitalColumns + `
		FROM health_vitals
		WHERE user_id = $1 AND vital_type = $2 AND recorded_at >= $3
		ORDER BY recorded_at DESC, id DESC`
	return s.queryVitals(ctx, "list health vitals by type", query, userID, vitalType, windowStart(s.now(), days))
}

// GetHealthTrends 按类型分组，每组时间升序
func (s *PostgresStore) GetHealthTrends(ctx context.Context, userID int64, days int) (domain.HealthTrends, error) {
	vitals, err := s.GetAllVitals(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return groupTrends(vitals), nil
}

func (s *PostgresStore) queryVitals(ctx context.Context, op, query string, args ...any) ([]domain.HealthVital, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.HealthVital, 0)
	for rows.Next() {
		v, err := scanVital(rows)
		if err != nil {
			return nil, wrapErr("scan health vital", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// --- Appointments ---

const appointmentColumns = `id, user_id, doctor_name, COALESCE(specialty, ''), appointment_date,
	COALESCE(location, ''), COALESCE(phone, ''), COALESCE(notes, ''), status, created_at`

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := row.Scan(&a.ID, &a.UserID, &a.DoctorName, &a.Specialty, &a.AppointmentDate,
		&a.Location, &a.Phone, &a.Notes, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// AddAppointment 新增预约
func (s *PostgresStore) AddAppointment(ctx context.Context, appointment domain.Appointment) (*domain.Appointment, error) {
	a, err := domain.NewAppointment(appointment.UserID, appointment.DoctorName, appointment.Specialty,
		appointment.AppointmentDate, appointment.Location, appointment.Phone, appointment.Notes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO appointments (user_id, doctor_name, specialty, appointment_date, location, phone, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + appointmentColumns

	created, err := scanAppointment(s.db.QueryRowContext(ctx, query,
		a.UserID, a.DoctorName, nullIfEmpty(a.Specialty), a.AppointmentDate,
		nullIfEmpty(a.Location), nullIfEmpty(a.Phone), nullIfEmpty(a.Notes), a.Status))
	if err != nil {
		return nil, wrapErr("add appointment", err)
	}
	return created, nil
}

// GetAllAppointments 全部预约，按预约时间升序
func (s *PostgresStore) GetAllAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date ASC, id ASC`
	return s.queryAppointments(ctx, "list appointments", query, userID)
}

// GetUpcomingAppointments 未来的 scheduled 预约
func (s *PostgresStore) GetUpcomingAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1 AND appointment_date >= $2 AND status = 'scheduled'
		ORDER BY appointment_date ASC, id ASC`
	return s.queryAppointments(ctx, "list upcoming appointments", query, userID, s.now().UTC())
}

func (s *PostgresStore) queryAppointments(ctx context.Context, op, query string, args ...any) ([]domain.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapErr("scan appointment", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// UpdateAppointment 部分更新；不存在时返回 (nil, nil)
func (s *PostgresStore) UpdateAppointment(ctx context.Context, id int64, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var set setClause
	if patch.DoctorName != nil {
		set.add("doctor_name", *patch.DoctorName)
	}
	if patch.Specialty != nil {
		set.add("specialty", nullIfEmpty(*patch.Specialty))
	}
	if patch.AppointmentDate != nil {
		set.add("appointment_date", *patch.AppointmentDate)
	}
	if patch.Location != nil {
		set.add("location", nullIfEmpty(*patch.Location))
	}
	if patch.Phone != nil {
		set.add("phone", nullIfEmpty(*patch.Phone))
	}
	if patch.Notes != nil {
		set.add("notes", nullIfEmpty(*patch.Notes))
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}

	var query string
	if patch.Empty() {
		query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ` + set.where(id)
	} else {
		query = `UPDATE appointments SET ` + set.String() + ` WHERE id = ` + set.where(id) +
			` RETURNING ` + appointmentColumns
	}

	a, err := scanAppointment(s.db.QueryRowContext(ctx, query, set.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("update appointment", err)
	}
	return a, nil
}

// DeleteAppointment 物理删除
func (s *PostgresStore) DeleteAppointment(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return wrapErr("delete appointment", err)
	}
	return nil
}
