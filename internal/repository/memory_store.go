package repository

import (
	"sync"
	"time"

	"medimate-backend/internal/domain"
)

// MemoryStore supports every Store operation when the hosted DB is not configured
// or unreachable. Data lives for the process lifetime only.
// Each entity kind has its own counter seeded at 1; ids are never reused.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[int64]domain.User
	medications   map[int64]domain.Medication
	conversations map[int64]domain.Conversation
	reminders     map[int64]domain.Reminder
	contacts      map[int64]domain.EmergencyContact
	alerts        map[int64]domain.EmergencyAlert
	vitals        map[int64]domain.HealthVital
	caregivers    map[int64]domain.Caregiver
	appointments  map[int64]domain.Appointment
	tokens        map[int64]domain.NotificationToken

	seq map[string]int64 // entity kind -> last issued id
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the wall clock used for server-assigned timestamps and windows.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:           time.Now,
		users:         map[int64]domain.User{},
		medications:   map[int64]domain.Medication{},
		conversations: map[int64]domain.Conversation{},
		reminders:     map[int64]domain.Reminder{},
		contacts:      map[int64]domain.EmergencyContact{},
		alerts:        map[int64]domain.EmergencyAlert{},
		vitals:        map[int64]domain.HealthVital{},
		caregivers:    map[int64]domain.Caregiver{},
		appointments:  map[int64]domain.Appointment{},
		tokens:        map[int64]domain.NotificationToken{},
		seq:           map[string]int64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID must be called with mu held for writing.
func (s *MemoryStore) nextID(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

// requireUser must be called with mu held.
func (s *MemoryStore) requireUser(id int64) error {
	if _, ok := s.users[id]; !ok {
		return ErrInvalidReference
	}
	return nil
}

// requireMedication must be called with mu held.
func (s *MemoryStore) requireMedication(id int64) error {
	if _, ok := s.medications[id]; !ok {
		return ErrInvalidReference
	}
	return nil
}

func (s *MemoryStore) timestamp() time.Time {
	return s.now().UTC()
}
