package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) CreateMedication(_ context.Context, userID int64, medicineName, dosage, timeOfDay, frequency string) (*domain.Medication, error) {
	m, err := domain.NewMedication(userID, medicineName, dosage, timeOfDay, frequency)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	m.ID = s.nextID("medications")
	m.CreatedAt = s.timestamp()
	s.medications[m.ID] = m
	return &m, nil
}

func (s *MemoryStore) GetMedicationsByUserID(_ context.Context, userID int64) ([]domain.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeMedications(userID), nil
}

func (s *MemoryStore) ListMedicationsByUserID(_ context.Context, userID int64) ([]domain.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.medicationsOf(userID, false), nil
}

// activeMedications must be called with mu held.
func (s *MemoryStore) activeMedications(userID int64) []domain.Medication {
	return s.medicationsOf(userID, true)
}

// medicationsOf must be called with mu held.
func (s *MemoryStore) medicationsOf(userID int64, activeOnly bool) []domain.Medication {
	out := make([]domain.Medication, 0)
	for _, m := range s.medications {
		if m.UserID == userID && (m.Active || !activeOnly) {
			out = append(out, m)
		}
	}
	// newest first, same as ORDER BY created_at DESC, id DESC
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *MemoryStore) UpdateMedication(_ context.Context, id int64, patch domain.MedicationPatch) (*domain.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medications[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&m)
	s.medications[id] = m
	return &m, nil
}

func (s *MemoryStore) DeleteMedication(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medications[id]
	if !ok {
		return false, nil
	}
	m.Active = false
	s.medications[id] = m
	return true, nil
}

// --- Reminders ---

func (s *MemoryStore) CreateReminder(_ context.Context, medicationID int64, scheduledTime string) (*domain.Reminder, error) {
	r, err := domain.NewReminder(medicationID, scheduledTime)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireMedication(medicationID); err != nil {
		return nil, err
	}
	r.ID = s.nextID("reminders")
	r.CreatedAt = s.timestamp()
	s.reminders[r.ID] = r
	return &r, nil
}

func (s *MemoryStore) GetPendingReminders(_ context.Context, userID int64) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingReminders(userID), nil
}

// pendingReminders must be called with mu held.
func (s *MemoryStore) pendingReminders(userID int64) []domain.Reminder {
	medIDs := map[int64]struct{}{}
	for _, m := range s.activeMedications(userID) {
		medIDs[m.ID] = struct{}{}
	}
	out := make([]domain.Reminder, 0)
	if len(medIDs) == 0 {
		return out
	}
	for _, r := range s.reminders {
		if _, ok := medIDs[r.MedicationID]; ok && !r.Delivered {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) MarkReminderDelivered(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.Delivered {
		return false, nil
	}
	now := s.timestamp()
	r.Delivered = true
	r.DeliveredAt = &now
	s.reminders[id] = r
	return true, nil
}
