package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) InviteCaregiver(_ context.Context, caregiver domain.Caregiver) (*domain.Caregiver, error) {
	c, err := domain.NewCaregiver(caregiver.PatientID, caregiver.CaregiverPhone, caregiver.CaregiverName,
		caregiver.Relationship, caregiver.AccessLevel, caregiver.InviteCode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.caregivers {
		if existing.InviteCode == c.InviteCode {
			return nil, ErrDuplicate
		}
	}
	if err := s.requireUser(c.PatientID); err != nil {
		return nil, err
	}
	c.ID = s.nextID("caregivers")
	c.CreatedAt = s.timestamp()
	s.caregivers[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) AcceptCaregiverInvite(_ context.Context, inviteCode, caregiverPhone string) (*domain.Caregiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.caregivers {
		if c.InviteCode != inviteCode || c.CaregiverPhone != caregiverPhone || c.Status != domain.CaregiverStatusPending {
			continue
		}
		now := s.timestamp()
		c.Status = domain.CaregiverStatusAccepted
		c.AcceptedAt = &now
		s.caregivers[id] = c
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetPatientCaregivers(_ context.Context, patientID int64) ([]domain.Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acceptedCaregivers(func(c domain.Caregiver) bool { return c.PatientID == patientID }), nil
}

func (s *MemoryStore) GetCaregiverPatients(_ context.Context, caregiverPhone string) ([]domain.CaregiverWithPatient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := s.acceptedCaregivers(func(c domain.Caregiver) bool { return c.CaregiverPhone == caregiverPhone })
	out := make([]domain.CaregiverWithPatient, 0, len(links))
	for _, c := range links {
		u, ok := s.users[c.PatientID]
		if !ok {
			continue
		}
		out = append(out, domain.CaregiverWithPatient{Caregiver: c, Patient: &u})
	}
	return out, nil
}

// acceptedCaregivers must be called with mu held.
func (s *MemoryStore) acceptedCaregivers(keep func(domain.Caregiver) bool) []domain.Caregiver {
	out := make([]domain.Caregiver, 0)
	for _, c := range s.caregivers {
		if c.Status == domain.CaregiverStatusAccepted && keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) RemoveCaregiver(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caregivers, id)
	return nil
}
