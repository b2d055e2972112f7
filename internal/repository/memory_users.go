package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) CreateUser(_ context.Context, phone, name, language string) (*domain.User, error) {
	u, err := domain.NewUser(phone, name, language)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Phone == phone {
			return nil, ErrDuplicate
		}
	}
	u.ID = s.nextID("users")
	u.CreatedAt = s.timestamp()
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryStore) FindUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Phone == phone {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// --- Conversations ---

func (s *MemoryStore) CreateConversation(_ context.Context, userID int64, message, response string) (*domain.Conversation, error) {
	c, err := domain.NewConversation(userID, message, response)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	c.ID = s.nextID("conversations")
	c.Timestamp = s.timestamp()
	s.conversations[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) GetConversationHistory(_ context.Context, userID int64, limit int) ([]domain.Conversation, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	out := make([]domain.Conversation, 0)
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) countConversations(userID int64) int {
	n := 0
	for _, c := range s.conversations {
		if c.UserID == userID {
			n++
		}
	}
	return n
}
