package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const caregiverColumns = `id, patient_id, caregiver_phone, caregiver_name, relationship, access_level,
	invite_code, status, created_at, accepted_at`

func scanCaregiver(row rowScanner, extra ...any) (*domain.Caregiver, error) {
	var c domain.Caregiver
	var acceptedAt sql.NullTime
	dest := []any{&c.ID, &c.PatientID, &c.CaregiverPhone, &c.CaregiverName, &c.Relationship, &c.AccessLevel,
		&c.InviteCode, &c.Status, &c.CreatedAt, &acceptedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.AcceptedAt = timePtr(acceptedAt)
	return &c, nil
}

// InviteCaregiver 创建 pending 邀请；invite_code 唯一
func (s *PostgresStore) InviteCaregiver(ctx context.Context, caregiver domain.Caregiver) (*domain.Caregiver, error) {
	c, err := domain.NewCaregiver(caregiver.PatientID, caregiver.CaregiverPhone, caregiver.CaregiverName,
		caregiver.Relationship, caregiver.AccessLevel, caregiver.InviteCode)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO caregivers (patient_id, caregiver_phone, caregiver_name, relationship, access_level, invite_code, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + caregiverColumns

	created, err := scanCaregiver(s.db.QueryRowContext(ctx, query,
		c.PatientID, c.CaregiverPhone, c.CaregiverName, c.Relationship, c.AccessLevel, c.InviteCode, c.Status))
	if err != nil {
		return nil, wrapErr("invite caregiver", err)
	}
	return created, nil
}

// AcceptCaregiverInvite 单条带条件的 UPDATE，同一邀请码只能被接受一次
func (s *PostgresStore) AcceptCaregiverInvite(ctx context.Context, inviteCode, caregiverPhone string) (*domain.Caregiver, error) {
	query := `
		UPDATE caregivers
		SET status = 'accepted', accepted_at = now()
		WHERE invite_code = $1 AND caregiver_phone = $2 AND status = 'pending'
		RETURNING ` + caregiverColumns

	c, err := scanCaregiver(s.db.QueryRowContext(ctx, query, inviteCode, caregiverPhone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("accept caregiver invite", err)
	}
	return c, nil
}

// GetPatientCaregivers 已接受邀请的照护者
func (s *PostgresStore) GetPatientCaregivers(ctx context.Context, patientID int64) ([]domain.Caregiver, error) {
	query := `
		SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE patient_id = $1 AND status = 'accepted'
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, wrapErr("list patient caregivers", err)
	}
	defer rows.Close()

	out := make([]domain.Caregiver, 0)
	for rows.Next() {
		c, err := scanCaregiver(rows)
		if err != nil {
			return nil, wrapErr("scan caregiver", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate caregivers", err)
	}
	return out, nil
}

// GetCaregiverPatients 照护者手机号下已接受的关系，附带被照护人资料
func (s *PostgresStore) GetCaregiverPatients(ctx context.Context, caregiverPhone string) ([]domain.CaregiverWithPatient, error) {
	query := `
		SELECT c.id, c.patient_id, c.caregiver_phone, c.caregiver_name, c.relationship, c.access_level,
			c.invite_code, c.status, c.created_at, c.accepted_at,
			u.id, u.phone, u.name, u.language, u.created_at
		FROM caregivers c
		JOIN users u ON u.id = c.patient_id
		WHERE c.caregiver_phone = $1 AND c.status = 'accepted'
		ORDER BY c.id`

	rows, err := s.db.QueryContext(ctx, query, caregiverPhone)
	if err != nil {
		return nil, wrapErr("list caregiver patients", err)
	}
	defer rows.Close()

	out := make([]domain.CaregiverWithPatient, 0)
	for rows.Next() {
		var u domain.User
		c, err := scanCaregiver(rows, &u.ID, &u.Phone, &u.Name, &u.Language, &u.CreatedAt)
		if err != nil {
			return nil, wrapErr("scan caregiver patient", err)
		}
		out = append(out, domain.CaregiverWithPatient{Caregiver: *c, Patient: &u})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate caregiver patients", err)
	}
	return out, nil
}

// RemoveCaregiver 物理删除
func (s *PostgresStore) RemoveCaregiver(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM caregivers WHERE id = $1`, id); err != nil {
		return wrapErr("remove caregiver", err)
	}
	return nil
}
