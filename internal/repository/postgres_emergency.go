package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const contactColumns = `id, user_id, name, phone, COALESCE(relationship, ''), priority, is_active, created_at`

func scanContact(row rowScanner) (*domain.EmergencyContact, error) {
	var c domain.EmergencyContact
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relationship, &c.Priority, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// AddEmergencyContact 新增紧急联系人
func (s *PostgresStore) AddEmergencyContact(ctx context.Context, contact domain.EmergencyContact) (*domain.EmergencyContact, error) {
	c, err := domain.NewEmergencyContact(contact.UserID, contact.Name, contact.Phone, contact.Relationship, contact.Priority)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO emergency_contacts (user_id, name, phone, relationship, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + contactColumns

	created, err := scanContact(s.db.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.Phone, nullIfEmpty(c.Relationship), c.Priority))
	if err != nil {
		return nil, wrapErr("add emergency contact", err)
	}
	return created, nil
}

// GetEmergencyContacts active 联系人，priority 升序
func (s *PostgresStore) GetEmergencyContacts(ctx context.Context, userID int64) ([]domain.EmergencyContact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM emergency_contacts
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY priority ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list emergency contacts", err)
	}
	defer rows.Close()

	out := make([]domain.EmergencyContact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, wrapErr("scan emergency contact", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate emergency contacts", err)
	}
	return out, nil
}

// DeleteEmergencyContact 物理删除
func (s *PostgresStore) DeleteEmergencyContact(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE id = $1`, id); err != nil {
		return wrapErr("delete emergency contact", err)
	}
	return nil
}

const alertColumns = `id, user_id, alert_type, COALESCE(location, ''), COALESCE(message, ''), status, triggered_at, resolved_at`

func scanAlert(row rowScanner) (*domain.EmergencyAlert, error) {
	var a domain.EmergencyAlert
	var resolvedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.AlertType, &a.Location, &a.Message, &a.Status, &a.TriggeredAt, &resolvedAt); err != nil {
		return nil, err
	}
	a.ResolvedAt = timePtr(resolvedAt)
	return &a, nil
}

// CreateEmergencyAlert 记录一条 active 告警
func (s *PostgresStore) CreateEmergencyAlert(ctx context.Context, alert domain.EmergencyAlert) (*domain.EmergencyAlert, error) {
	a, err := domain.NewEmergencyAlert(alert.UserID, alert.AlertType, alert.Location, alert.Message)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO emergency_alerts (user_id, alert_type, location, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + alertColumns

	created, err := scanAlert(s.db.QueryRowContext(ctx, query,
		a.UserID, a.AlertType, nullIfEmpty(a.Location), a.Message, domain.AlertStatusActive))
	if err != nil {
		return nil, wrapErr("create emergency alert", err)
	}
	return created, nil
}

// GetActiveEmergencyAlerts 未解除的告警，最新的在前
func (s *PostgresStore) GetActiveEmergencyAlerts(ctx context.Context, userID int64) ([]domain.EmergencyAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM emergency_alerts
		WHERE user_id = $1 AND status = 'active'
		ORDER BY triggered_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list active alerts", err)
	}
	defer rows.Close()

	out := make([]domain.EmergencyAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, wrapErr("scan emergency alert", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate emergency alerts", err)
	}
	return out, nil
}

// ResolveEmergencyAlert 只迁移 active 告警，resolved_at 只写一次
func (s *PostgresStore) ResolveEmergencyAlert(ctx context.Context, id int64) (*domain.EmergencyAlert, error) {
	query := `
		UPDATE emergency_alerts
		SET status = 'resolved', resolved_at = now()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + alertColumns
	a, err := scanAlert(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("resolve emergency alert", err)
	}
	return a, nil
}
