package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) CreateNotificationToken(_ context.Context, token domain.NotificationToken) (*domain.NotificationToken, error) {
	t, err := domain.NewNotificationToken(token.UserID, token.Token, token.DeviceType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokenByValue(t.Token); ok {
		return nil, ErrDuplicate
	}
	if err := s.requireUser(t.UserID); err != nil {
		return nil, err
	}
	t.ID = s.nextID("notification_tokens")
	t.CreatedAt = s.timestamp()
	s.tokens[t.ID] = t
	return &t, nil
}

func (s *MemoryStore) FindNotificationToken(_ context.Context, token string) (*domain.NotificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokenByValue(token)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// tokenByValue must be called with mu held.
func (s *MemoryStore) tokenByValue(token string) (domain.NotificationToken, bool) {
	for _, t := range s.tokens {
		if t.Token == token {
			return t, true
		}
	}
	return domain.NotificationToken{}, false
}

func (s *MemoryStore) GetUserNotificationTokens(_ context.Context, userID int64) ([]domain.NotificationToken, error) {
	s.mu.RLock()
	out := make([]domain.NotificationToken, 0)
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsActive {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateNotificationToken(_ context.Context, token string, patch domain.TokenPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokenByValue(token)
	if !ok {
		return nil
	}
	if patch.UserID != nil {
		if err := s.requireUser(*patch.UserID); err != nil {
			return err
		}
	}
	patch.Apply(&t)
	s.tokens[t.ID] = t
	return nil
}

func (s *MemoryStore) DeactivateNotificationToken(ctx context.Context, token string) error {
	inactive := false
	return s.UpdateNotificationToken(ctx, token, domain.TokenPatch{IsActive: &inactive})
}
