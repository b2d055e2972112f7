package repository

import (
	"context"
	"sort"

	"medimate-backend/internal/domain"
)

func (s *MemoryStore) AddHealthVital(_ context.Context, vital domain.HealthVital) (*domain.HealthVital, error) {
	v, err := domain.NewHealthVital(vital.UserID, vital.VitalType, vital.Value, vital.Unit, vital.Notes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(v.UserID); err != nil {
		return nil, err
	}
	v.ID = s.nextID("health_vitals")
	v.RecordedAt = s.timestamp()
	s.vitals[v.ID] = v
	return &v, nil
}

func (s *MemoryStore) GetAllVitals(_ context.Context, userID int64, days int) ([]domain.HealthVital, error) {
	return s.vitalsInWindow(userID, "", days), nil
}

func (s *MemoryStore) GetVitalsByType(_ context.Context, userID int64, vitalType string, days int) ([]domain.HealthVital, error) {
	if vitalType == "" {
		return []domain.HealthVital{}, nil
	}
	return s.vitalsInWindow(userID, vitalType, days), nil
}

func (s *MemoryStore) GetHealthTrends(_ context.Context, userID int64, days int) (domain.HealthTrends, error) {
	return groupTrends(s.vitalsInWindow(userID, "", days)), nil
}

// vitalsInWindow 最近 days 天的体征，按记录时间倒序；vitalType 为空表示全部类型
func (s *MemoryStore) vitalsInWindow(userID int64, vitalType string, days int) []domain.HealthVital {
	s.mu.RLock()
	since := windowStart(s.timestamp(), days)
	out := make([]domain.HealthVital, 0)
	for _, v := range s.vitals {
		if v.UserID != userID || v.RecordedAt.Before(since) {
			continue
		}
		if vitalType != "" && v.VitalType != vitalType {
			continue
		}
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// --- Appointments ---

func (s *MemoryStore) AddAppointment(_ context.Context, appointment domain.Appointment) (*domain.Appointment, error) {
	a, err := domain.NewAppointment(appointment.UserID, appointment.DoctorName, appointment.Specialty,
		appointment.AppointmentDate, appointment.Location, appointment.Phone, appointment.Notes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(a.UserID); err != nil {
		return nil, err
	}
	a.ID = s.nextID("appointments")
	a.CreatedAt = s.timestamp()
	s.appointments[a.ID] = a
	return &a, nil
}

func (s *MemoryStore) GetAllAppointments(_ context.Context, userID int64) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appointmentsWhere(func(a domain.Appointment) bool { return a.UserID == userID }), nil
}

func (s *MemoryStore) GetUpcomingAppointments(_ context.Context, userID int64) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.timestamp()
	return s.appointmentsWhere(func(a domain.Appointment) bool {
		return a.UserID == userID && a.Status == domain.AppointmentScheduled && !a.AppointmentDate.Before(now)
	}), nil
}

// appointmentsWhere must be called with mu held.
func (s *MemoryStore) appointmentsWhere(keep func(domain.Appointment) bool) []domain.Appointment {
	out := make([]domain.Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.Before(out[j].AppointmentDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) UpdateAppointment(_ context.Context, id int64, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&a)
	s.appointments[id] = a
	return &a, nil
}

func (s *MemoryStore) DeleteAppointment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.appointments, id)
	return nil
}
