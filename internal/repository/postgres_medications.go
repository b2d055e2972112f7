package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const medicationColumns = `id, user_id, medicine_name, COALESCE(dosage, ''), time, frequency, active, created_at`

func scanMedication(row rowScanner) (*domain.Medication, error) {
	var m domain.Medication
	if err := row.Scan(&m.ID, &m.UserID, &m.MedicineName, &m.Dosage, &m.Time, &m.Frequency, &m.Active, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMedication 新增用药
func (s *PostgresStore) CreateMedication(ctx context.Context, userID int64, medicineName, dosage, timeOfDay, frequency string) (*domain.Medication, error) {
	m, err := domain.NewMedication(userID, medicineName, dosage, timeOfDay, frequency)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO medications (user_id, medicine_name, dosage, time, frequency, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + medicationColumns

	created, err := scanMedication(s.db.QueryRowContext(ctx, query,
		m.UserID, m.MedicineName, nullIfEmpty(m.Dosage), m.Time, m.Frequency))
	if err != nil {
		return nil, wrapErr("create medication", err)
	}
	return created, nil
}

// GetMedicationsByUserID 只返回 active 用药，最新的在前
func (s *PostgresStore) GetMedicationsByUserID(ctx context.Context, userID int64) ([]domain.Medication, error) {
	return s.listMedications(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at DESC, id DESC`, userID)
}

// ListMedicationsByUserID 连同已停用的一起返回
func (s *PostgresStore) ListMedicationsByUserID(ctx context.Context, userID int64) ([]domain.Medication, error) {
	return s.listMedications(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
}

func (s *PostgresStore) listMedications(ctx context.Context, query string, userID int64) ([]domain.Medication, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list medications", err)
	}
	defer rows.Close()

	out := make([]domain.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, wrapErr("scan medication", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate medications", err)
	}
	return out, nil
}

// UpdateMedication 部分更新；补丁为空时原样返回当前记录
func (s *PostgresStore) UpdateMedication(ctx context.Context, id int64, patch domain.MedicationPatch) (*domain.Medication, error) {
	var set setClause
	if patch.MedicineName != nil {
		set.add("medicine_name", *patch.MedicineName)
	}
	if patch.Dosage != nil {
		set.add("dosage", nullIfEmpty(*patch.Dosage))
	}
	if patch.Time != nil {
		set.add("time", *patch.Time)
	}
	if patch.Frequency != nil {
		set.add("frequency", *patch.Frequency)
	}
	if patch.Active != nil {
		set.add("active", *patch.Active)
	}

	var query string
	if patch.Empty() {
		query = `SELECT ` + medicationColumns + ` FROM medications WHERE id = ` + set.where(id)
	} else {
		query = `UPDATE medications SET ` + set.String() + ` WHERE id = ` + set.where(id) +
			` RETURNING ` + medicationColumns
	}

	m, err := scanMedication(s.db.QueryRowContext(ctx, query, set.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("update medication", err)
	}
	return m, nil
}

// DeleteMedication 软删除；记录存在即返回 true
func (s *PostgresStore) DeleteMedication(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE medications SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return false, wrapErr("delete medication", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("delete medication", err)
	}
	return n > 0, nil
}

// --- Reminders ---

const reminderColumns = `id, medication_id, scheduled_time, delivered, delivered_at, created_at`

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var r domain.Reminder
	var deliveredAt sql.NullTime
	if err := row.Scan(&r.ID, &r.MedicationID, &r.ScheduledTime, &r.Delivered, &deliveredAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.DeliveredAt = timePtr(deliveredAt)
	return &r, nil
}

// CreateReminder 为用药创建一条待确认提醒
func (s *PostgresStore) CreateReminder(ctx context.Context, medicationID int64, scheduledTime string) (*domain.Reminder, error) {
	r, err := domain.NewReminder(medicationID, scheduledTime)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO reminders (medication_id, scheduled_time, delivered)
		VALUES ($1, $2, FALSE)
		RETURNING ` + reminderColumns

	created, err := scanReminder(s.db.QueryRowContext(ctx, query, r.MedicationID, r.ScheduledTime))
	if err != nil {
		return nil, wrapErr("create reminder", err)
	}
	return created, nil
}

// GetPendingReminders 用户 active 用药下未确认的提醒
func (s *PostgresStore) GetPendingReminders(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	query := `
		SELECT r.id, r.medication_id, r.scheduled_time, r.delivered, r.delivered_at, r.created_at
		FROM reminders r
		JOIN medications m ON m.id = r.medication_id
		WHERE m.user_id = $1 AND m.active = TRUE AND r.delivered = FALSE
		ORDER BY r.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("get pending reminders", err)
	}
	defer rows.Close()

	out := make([]domain.Reminder, 0)
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, wrapErr("scan reminder", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate reminders", err)
	}
	return out, nil
}

// MarkReminderDelivered 只有 delivered=false 的行会被更新
func (s *PostgresStore) MarkReminderDelivered(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET delivered = TRUE, delivered_at = now() WHERE id = $1 AND delivered = FALSE`, id)
	if err != nil {
		return false, wrapErr("mark reminder delivered", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("mark reminder delivered", err)
	}
	return n > 0, nil
}
