package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"medimate-backend/internal/auth"
	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
)

// AuthService 手机号注册与登录（无密码）
type AuthService struct {
	users  repository.UsersRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(users repository.UsersRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Session 登录结果：用户 + 令牌
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register 注册新用户；手机号已存在时返回 repository.ErrDuplicate
func (s *AuthService) Register(ctx context.Context, phone, name, language string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	existing, err := s.users.FindUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrDuplicate
	}

	user, err := s.users.CreateUser(ctx, phone, strings.TrimSpace(name), language)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("language", user.Language))
	return s.session(user)
}

// Login 按手机号登录；用户不存在时返回 ErrUserNotFound
func (s *AuthService) Login(ctx context.Context, phone string) (*Session, error) {
	user, err := s.users.FindUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.session(user)
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
