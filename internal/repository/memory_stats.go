package repository

import (
	"context"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) GetUserStats(_ context.Context, userID int64) (*domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adherence := s.adherence(userID, domain.DefaultWindowDays)
	return &domain.UserStats{
		TotalMedications:   len(s.activeMedications(userID)),
		TotalConversations: s.countConversations(userID),
		PendingReminders:   len(s.pendingReminders(userID)),
		AdherenceRate:      adherence.Rate,
	}, nil
}

func (s *MemoryStore) GetMedicationAdherence(_ context.Context, userID int64, days int) (*domain.Adherence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.adherence(userID, days)
	return &a, nil
}

// adherence 统计窗口内该用户全部用药（含已停用）下的提醒，delivered 计为已服
// must be called with mu held.
func (s *MemoryStore) adherence(userID int64, days int) domain.Adherence {
	medIDs := map[int64]struct{}{}
	for _, m := range s.medications {
		if m.UserID == userID {
			medIDs[m.ID] = struct{}{}
		}
	}
	since := windowStart(s.timestamp(), days)
	taken, total := 0, 0
	for _, r := range s.reminders {
		if _, ok := medIDs[r.MedicationID]; !ok || r.CreatedAt.Before(since) {
			continue
		}
		total++
		if r.Delivered {
			taken++
		}
	}
	return domain.ComputeAdherence(taken, total)
}
