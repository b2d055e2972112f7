package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) AddEmergencyContact(_ context.Context, contact domain.EmergencyContact) (*domain.EmergencyContact, error) {
	c, err := domain.NewEmergencyContact(contact.UserID, contact.Name, contact.Phone, contact.Relationship, contact.Priority)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(c.UserID); err != nil {
		return nil, err
	}
	c.ID = s.nextID("emergency_contacts")
	c.CreatedAt = s.timestamp()
	s.contacts[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) GetEmergencyContacts(_ context.Context, userID int64) ([]domain.EmergencyContact, error) {
	s.mu.RLock()
	out := make([]domain.EmergencyContact, 0)
	for _, c := range s.contacts {
		if c.UserID == userID && c.IsActive {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteEmergencyContact(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, id)
	return nil
}

func (s *MemoryStore) CreateEmergencyAlert(_ context.Context, alert domain.EmergencyAlert) (*domain.EmergencyAlert, error) {
	a, err := domain.NewEmergencyAlert(alert.UserID, alert.AlertType, alert.Location, alert.Message)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(a.UserID); err != nil {
		return nil, err
	}
	a.ID = s.nextID("emergency_alerts")
	a.TriggeredAt = s.timestamp()
	s.alerts[a.ID] = a
	return &a, nil
}

func (s *MemoryStore) GetActiveEmergencyAlerts(_ context.Context, userID int64) ([]domain.EmergencyAlert, error) {
	s.mu.RLock()
	out := make([]domain.EmergencyAlert, 0)
	for _, a := range s.alerts {
		if a.UserID == userID && a.Status == domain.AlertStatusActive {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TriggeredAt.Equal(out[j].TriggeredAt) {
			return out[i].TriggeredAt.After(out[j].TriggeredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ResolveEmergencyAlert(_ context.Context, id int64) (*domain.EmergencyAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.Status != domain.AlertStatusActive {
		return nil, nil
	}
	now := s.timestamp()
	a.Status = domain.AlertStatusResolved
	a.ResolvedAt = &now
	s.alerts[id] = a
	return &a, nil
}
