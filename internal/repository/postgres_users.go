package repository

import (
	"context"
	"database/sql"
	"errors"

	"medimate-backend/internal/domain"
)

const userColumns = `id, phone, name, language, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Phone, &u.Name, &u.Language, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser 注册用户，phone 唯一
func (s *PostgresStore) CreateUser(ctx context.Context, phone, name, language string) (*domain.User, error) {
	u, err := domain.NewUser(phone, name, language)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (phone, name, language)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	created, err := scanUser(s.db.QueryRowContext(ctx, query, u.Phone, u.Name, u.Language))
	if err != nil {
		return nil, wrapErr("create user", err)
	}
	return created, nil
}

// FindUserByPhone 根据手机号查询用户
func (s *PostgresStore) FindUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find user by phone", err)
	}
	return u, nil
}

// FindUserByID 根据 id 查询用户
func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find user by id", err)
	}
	return u, nil
}

// --- Conversations ---

const conversationColumns = `id, user_id, message, COALESCE(response, ''), timestamp`

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.Message, &c.Response, &c.Timestamp); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation 追加一轮对话
func (s *PostgresStore) CreateConversation(ctx context.Context, userID int64, message, response string) (*domain.Conversation, error) {
	c, err := domain.NewConversation(userID, message, response)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO conversations (user_id, message, response)
		VALUES ($1, $2, $3)
		RETURNING ` + conversationColumns

	created, err := scanConversation(s.db.QueryRowContext(ctx, query, c.UserID, c.Message, nullIfEmpty(c.Response)))
	if err != nil {
		return nil, wrapErr("create conversation", err)
	}
	return created, nil
}

// GetConversationHistory 取最近 limit 条，再按时间正序返回
func (s *PostgresStore) GetConversationHistory(ctx context.Context, userID int64, limit int) ([]domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM (
			SELECT id, user_id, message, response, timestamp
			FROM conversations
			WHERE user_id = $1
			ORDER BY timestamp DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		return nil, wrapErr("get conversation history", err)
	}
	defer rows.Close()

	out := make([]domain.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, wrapErr("scan conversation", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate conversations", err)
	}
	return out, nil
}
