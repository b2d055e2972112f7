package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const tokenColumns = `id, user_id, token, device_type, is_active, created_at, last_used_at`

func scanToken(row rowScanner) (*domain.NotificationToken, error) {
	var t domain.NotificationToken
	var lastUsedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.IsActive, &t.CreatedAt, &lastUsedAt); err != nil {
		return nil, err
	}
	t.LastUsedAt = timePtr(lastUsedAt)
	return &t, nil
}

// CreateNotificationToken 登记设备令牌；token 唯一
func (s *PostgresStore) CreateNotificationToken(ctx context.Context, token domain.NotificationToken) (*domain.NotificationToken, error) {
	t, err := domain.NewNotificationToken(token.UserID, token.Token, token.DeviceType)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notification_tokens (user_id, token, device_type, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING ` + tokenColumns

	created, err := scanToken(s.db.QueryRowContext(ctx, query, t.UserID, t.Token, t.DeviceType))
	if err != nil {
		return nil, wrapErr("create notification token", err)
	}
	return created, nil
}

// FindNotificationToken 按令牌值查询（不论是否 active）
func (s *PostgresStore) FindNotificationToken(ctx context.Context, token string) (*domain.NotificationToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM notification_tokens WHERE token = $1`
	t, err := scanToken(s.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find notification token", err)
	}
	return t, nil
}

// GetUserNotificationTokens 用户的 active 令牌
func (s *PostgresStore) GetUserNotificationTokens(ctx context.Context, userID int64) ([]domain.NotificationToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM notification_tokens
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list notification tokens", err)
	}
	defer rows.Close()

	out := make([]domain.NotificationToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, wrapErr("scan notification token", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate notification tokens", err)
	}
	return out, nil
}

// UpdateNotificationToken 部分更新；令牌不存在时静默成功
func (s *PostgresStore) UpdateNotificationToken(ctx context.Context, token string, patch domain.TokenPatch) error {
	var set setClause
	if patch.UserID != nil {
		set.add("user_id", *patch.UserID)
	}
	if patch.DeviceType != nil {
		set.add("device_type", *patch.DeviceType)
	}
	if patch.IsActive != nil {
		set.add("is_active", *patch.IsActive)
	}
	if patch.LastUsedAt != nil {
		set.add("last_used_at", *patch.LastUsedAt)
	}
	if len(set.sets) == 0 {
		return nil
	}

	query := `UPDATE notification_tokens SET ` + set.String() + ` WHERE token = ` + set.where(token)
	if _, err := s.db.ExecContext(ctx, query, set.args...); err != nil {
		return wrapErr("update notification token", err)
	}
	return nil
}

// DeactivateNotificationToken 注销设备：is_active=false
func (s *PostgresStore) DeactivateNotificationToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notification_tokens SET is_active = FALSE WHERE token = $1`, token); err != nil {
		return wrapErr("deactivate notification token", err)
	}
	return nil
}
