package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-backend/internal/domain"
)

// runStoreContract 两种后端共用的行为测试
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("IDsStrictlyIncrease", func(t *testing.T) { testIDsStrictlyIncrease(t, newStore(t)) })
	t.Run("UserRoundTrip", func(t *testing.T) { testUserRoundTrip(t, newStore(t)) })
	t.Run("DuplicatePhone", func(t *testing.T) { testDuplicatePhone(t, newStore(t)) })
	t.Run("MedicationSoftDelete", func(t *testing.T) { testMedicationSoftDelete(t, newStore(t)) })
	t.Run("MedicationUpdate", func(t *testing.T) { testMedicationUpdate(t, newStore(t)) })
	t.Run("PendingReminders", func(t *testing.T) { testPendingReminders(t, newStore(t)) })
	t.Run("ReminderDeliveredOnce", func(t *testing.T) { testReminderDeliveredOnce(t, newStore(t)) })
	t.Run("ConversationHistory", func(t *testing.T) { testConversationHistory(t, newStore(t)) })
	t.Run("EmergencyContactsByPriority", func(t *testing.T) { testEmergencyContactsByPriority(t, newStore(t)) })
	t.Run("ResolveAlertOnce", func(t *testing.T) { testResolveAlertOnce(t, newStore(t)) })
	t.Run("VitalsAndTrends", func(t *testing.T) { testVitalsAndTrends(t, newStore(t)) })
	t.Run("CaregiverInviteAcceptedOnce", func(t *testing.T) { testCaregiverInviteAcceptedOnce(t, newStore(t)) })
	t.Run("Appointments", func(t *testing.T) { testAppointments(t, newStore(t)) })
	t.Run("NotificationTokens", func(t *testing.T) { testNotificationTokens(t, newStore(t)) })
	t.Run("StatsAndAdherence", func(t *testing.T) { testStatsAndAdherence(t, newStore(t)) })
	t.Run("MissingReferences", func(t *testing.T) { testMissingReferences(t, newStore(t)) })
	t.Run("TokenRebind", func(t *testing.T) { testTokenRebind(t, newStore(t)) })
}

// uniquePhone 集成测试共享数据库，手机号必须唯一
func uniquePhone() string {
	return "9" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func mustUser(t *testing.T, s Store) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), uniquePhone(), "Test User", "")
	require.NoError(t, err)
	return u
}

func mustMedication(t *testing.T, s Store, userID int64, name string) *domain.Medication {
	t.Helper()
	m, err := s.CreateMedication(context.Background(), userID, name, "1 tablet", "08:00", "daily")
	require.NoError(t, err)
	return m
}

func testIDsStrictlyIncrease(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	var last int64
	for i := 0; i < 5; i++ {
		c, err := s.CreateConversation(ctx, u.ID, "hello", "hi")
		require.NoError(t, err)
		assert.Greater(t, c.ID, last)
		last = c.ID
	}

	last = 0
	for i := 0; i < 3; i++ {
		m := mustMedication(t, s, u.ID, "Aspirin")
		assert.Greater(t, m.ID, last)
		last = m.ID
	}
}

func testUserRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	phone := uniquePhone()

	created, err := s.CreateUser(ctx, phone, "Test User", "")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.DefaultLanguage, created.Language)
	assert.False(t, created.CreatedAt.IsZero())

	byPhone, err := s.FindUserByPhone(ctx, phone)
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, created.ID, byPhone.ID)
	assert.Equal(t, "Test User", byPhone.Name)

	byID, err := s.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, phone, byID.Phone)

	missing, err := s.FindUserByPhone(ctx, uniquePhone())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testDuplicatePhone(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	_, err := s.CreateUser(ctx, u.Phone, "Someone Else", "ta")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.CreateUser(ctx, "", "No Phone", "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func testMedicationSoftDelete(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	aspirin := mustMedication(t, s, u.ID, "Aspirin")
	meds, err := s.GetMedicationsByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, aspirin.ID, meds[0].ID)
	assert.True(t, meds[0].Active)
	assert.Equal(t, "Aspirin", meds[0].MedicineName)
	assert.Equal(t, "1 tablet", meds[0].Dosage)
	assert.Equal(t, "08:00", meds[0].Time)
	assert.Equal(t, "daily", meds[0].Frequency)

	metformin := mustMedication(t, s, u.ID, "Metformin")
	meds, err = s.GetMedicationsByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, metformin.ID, meds[0].ID, "newest first")

	ok, err := s.DeleteMedication(ctx, aspirin.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteMedication(ctx, aspirin.ID)
	require.NoError(t, err)
	assert.True(t, ok, "second delete reports the same success")

	meds, err = s.GetMedicationsByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, metformin.ID, meds[0].ID)

	all, err := s.ListMedicationsByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, metformin.ID, all[0].ID)
	assert.Equal(t, aspirin.ID, all[1].ID)
	assert.False(t, all[1].Active)

	// 记录仍在，只是 active=false
	stillThere, err := s.UpdateMedication(ctx, aspirin.ID, domain.MedicationPatch{})
	require.NoError(t, err)
	require.NotNil(t, stillThere)
	assert.False(t, stillThere.Active)

	ok, err = s.DeleteMedication(ctx, 1<<40)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testMedicationUpdate(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	m := mustMedication(t, s, u.ID, "Aspirin")

	dosage := "2 tablets"
	updated, err := s.UpdateMedication(ctx, m.ID, domain.MedicationPatch{Dosage: &dosage})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "2 tablets", updated.Dosage)
	assert.Equal(t, "Aspirin", updated.MedicineName)

	missing, err := s.UpdateMedication(ctx, 1<<40, domain.MedicationPatch{Dosage: &dosage})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testPendingReminders(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	other := mustUser(t, s)

	active := mustMedication(t, s, u.ID, "Aspirin")
	stopped := mustMedication(t, s, u.ID, "Old Pill")
	foreign := mustMedication(t, s, other.ID, "Aspirin")

	r1, err := s.CreateReminder(ctx, active.ID, "08:00")
	require.NoError(t, err)
	r2, err := s.CreateReminder(ctx, active.ID, "20:00")
	require.NoError(t, err)
	_, err = s.CreateReminder(ctx, stopped.ID, "09:00")
	require.NoError(t, err)
	_, err = s.CreateReminder(ctx, foreign.ID, "08:00")
	require.NoError(t, err)
	_, err = s.DeleteMedication(ctx, stopped.ID)
	require.NoError(t, err)

	pending, err := s.GetPendingReminders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, r1.ID, pending[0].ID)
	assert.Equal(t, r2.ID, pending[1].ID)

	ok, err := s.MarkReminderDelivered(ctx, r1.ID)
	require.NoError(t, err)
	require.True(t, ok)

	pending, err = s.GetPendingReminders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r2.ID, pending[0].ID)
}

func testReminderDeliveredOnce(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	m := mustMedication(t, s, u.ID, "Aspirin")

	r, err := s.CreateReminder(ctx, m.ID, "08:00")
	require.NoError(t, err)
	assert.False(t, r.Delivered)
	assert.Nil(t, r.DeliveredAt)

	ok, err := s.MarkReminderDelivered(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkReminderDelivered(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, ok, "re-delivery is rejected")

	ok, err = s.MarkReminderDelivered(ctx, 1<<40)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testConversationHistory(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	for _, msg := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"} {
		_, err := s.CreateConversation(ctx, u.ID, msg, "reply to "+msg)
		require.NoError(t, err)
	}

	history, err := s.GetConversationHistory(ctx, u.ID, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "m5", history[0].Message)
	assert.Equal(t, "m6", history[1].Message)
	assert.Equal(t, "m7", history[2].Message)

	history, err = s.GetConversationHistory(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, domain.DefaultHistoryLimit)

	history, err = s.GetConversationHistory(ctx, u.ID, 50)
	require.NoError(t, err)
	assert.Len(t, history, 7)
	assert.Equal(t, "m1", history[0].Message)
}

func testEmergencyContactsByPriority(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	for _, p := range []int{3, 1, 2} {
		_, err := s.AddEmergencyContact(ctx, domain.EmergencyContact{
			UserID: u.ID, Name: "Contact", Phone: "+1555000000" + string(rune('0'+p)), Priority: p,
		})
		require.NoError(t, err)
	}

	contacts, err := s.GetEmergencyContacts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{contacts[0].Priority, contacts[1].Priority, contacts[2].Priority})

	require.NoError(t, s.DeleteEmergencyContact(ctx, contacts[0].ID))
	require.NoError(t, s.DeleteEmergencyContact(ctx, contacts[0].ID))
	contacts, err = s.GetEmergencyContacts(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func testResolveAlertOnce(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	alert, err := s.CreateEmergencyAlert(ctx, domain.EmergencyAlert{UserID: u.ID, Location: "Home"})
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusActive, alert.Status)
	assert.Equal(t, domain.AlertTypeManual, alert.AlertType)
	assert.Equal(t, domain.DefaultAlertMessage, alert.Message)

	active, err := s.GetActiveEmergencyAlerts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	resolved, err := s.ResolveEmergencyAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, alert.ID, resolved.ID)
	assert.Equal(t, u.ID, resolved.UserID)
	assert.Equal(t, domain.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// 第二次解除不再迁移
	again, err := s.ResolveEmergencyAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	missing, err := s.ResolveEmergencyAlert(ctx, 1<<40)
	require.NoError(t, err)
	assert.Nil(t, missing)

	active, err = s.GetActiveEmergencyAlerts(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func testVitalsAndTrends(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	bp, err := s.AddHealthVital(ctx, domain.HealthVital{UserID: u.ID, VitalType: "blood_pressure", Value: "120/80"})
	require.NoError(t, err)
	assert.Equal(t, "mmHg", bp.Unit)
	_, err = s.AddHealthVital(ctx, domain.HealthVital{UserID: u.ID, VitalType: "heart_rate", Value: "72"})
	require.NoError(t, err)
	_, err = s.AddHealthVital(ctx, domain.HealthVital{UserID: u.ID, VitalType: "blood_pressure", Value: "130/85"})
	require.NoError(t, err)

	all, err := s.GetAllVitals(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "130/85", all[0].Value, "newest first")

	byType, err := s.GetVitalsByType(ctx, u.ID, "blood_pressure", 7)
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	trends, err := s.GetHealthTrends(ctx, u.ID, 30)
	require.NoError(t, err)
	require.Len(t, trends["blood_pressure"], 2)
	assert.Equal(t, "120/80", trends["blood_pressure"][0].Value, "oldest first")
	assert.Equal(t, "130/85", trends["blood_pressure"][1].Value)
	assert.Len(t, trends["heart_rate"], 1)
}

func testCaregiverInviteAcceptedOnce(t *testing.T, s Store) {
	ctx := context.Background()
	patient := mustUser(t, s)
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	phone := uniquePhone()

	invite, err := s.InviteCaregiver(ctx, domain.Caregiver{
		PatientID: patient.ID, CaregiverPhone: phone, CaregiverName: "Daughter", InviteCode: code,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CaregiverStatusPending, invite.Status)
	assert.Equal(t, domain.DefaultRelationship, invite.Relationship)
	assert.Equal(t, domain.DefaultAccessLevel, invite.AccessLevel)

	_, err = s.InviteCaregiver(ctx, domain.Caregiver{
		PatientID: patient.ID, CaregiverPhone: phone, CaregiverName: "Son", InviteCode: code,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	before, err := s.GetPatientCaregivers(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, before, "pending invites are not listed")

	wrongPhone, err := s.AcceptCaregiverInvite(ctx, code, uniquePhone())
	require.NoError(t, err)
	assert.Nil(t, wrongPhone)

	accepted, err := s.AcceptCaregiverInvite(ctx, code, phone)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, domain.CaregiverStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.AcceptedAt)

	again, err := s.AcceptCaregiverInvite(ctx, code, phone)
	require.NoError(t, err)
	assert.Nil(t, again)

	caregivers, err := s.GetPatientCaregivers(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, caregivers, 1)

	patients, err := s.GetCaregiverPatients(ctx, phone)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	require.NotNil(t, patients[0].Patient)
	assert.Equal(t, patient.ID, patients[0].Patient.ID)

	require.NoError(t, s.RemoveCaregiver(ctx, accepted.ID))
	caregivers, err = s.GetPatientCaregivers(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, caregivers)
}

func testAppointments(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	now := time.Now().UTC()

	past, err := s.AddAppointment(ctx, domain.Appointment{UserID: u.ID, DoctorName: "Dr. Past", AppointmentDate: now.AddDate(0, 0, -3)})
	require.NoError(t, err)
	later, err := s.AddAppointment(ctx, domain.Appointment{UserID: u.ID, DoctorName: "Dr. Later", AppointmentDate: now.AddDate(0, 0, 10)})
	require.NoError(t, err)
	soon, err := s.AddAppointment(ctx, domain.Appointment{UserID: u.ID, DoctorName: "Dr. Soon", AppointmentDate: now.AddDate(0, 0, 2)})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentScheduled, soon.Status)

	all, err := s.GetAllAppointments(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{past.ID, soon.ID, later.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	upcoming, err := s.GetUpcomingAppointments(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, soon.ID, upcoming[0].ID)

	cancelled := domain.AppointmentCancelled
	updated, err := s.UpdateAppointment(ctx, soon.ID, domain.AppointmentPatch{Status: &cancelled})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.AppointmentCancelled, updated.Status)

	upcoming, err = s.GetUpcomingAppointments(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, later.ID, upcoming[0].ID)

	bogus := "postponed"
	_, err = s.UpdateAppointment(ctx, later.ID, domain.AppointmentPatch{Status: &bogus})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, s.DeleteAppointment(ctx, past.ID))
	all, err = s.GetAllAppointments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testNotificationTokens(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	value := "ExponentPushToken[" + uuid.NewString() + "]"

	tok, err := s.CreateNotificationToken(ctx, domain.NotificationToken{UserID: u.ID, Token: value})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDeviceType, tok.DeviceType)
	assert.True(t, tok.IsActive)

	_, err = s.CreateNotificationToken(ctx, domain.NotificationToken{UserID: u.ID, Token: value})
	assert.ErrorIs(t, err, ErrDuplicate)

	used := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateNotificationToken(ctx, value, domain.TokenPatch{LastUsedAt: &used}))
	found, err := s.FindNotificationToken(ctx, value)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.LastUsedAt)
	assert.True(t, used.Equal(*found.LastUsedAt))

	tokens, err := s.GetUserNotificationTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	require.NoError(t, s.DeactivateNotificationToken(ctx, value))
	tokens, err = s.GetUserNotificationTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	missing, err := s.FindNotificationToken(ctx, "unknown-token")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testStatsAndAdherence(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s)

	empty, err := s.GetMedicationAdherence(ctx, u.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Adherence{}, *empty)

	m := mustMedication(t, s, u.ID, "Aspirin")
	var reminderIDs []int64
	for _, at := range []string{"08:00", "12:00", "16:00", "20:00"} {
		r, err := s.CreateReminder(ctx, m.ID, at)
		require.NoError(t, err)
		reminderIDs = append(reminderIDs, r.ID)
	}
	for _, id := range reminderIDs[:3] {
		_, err := s.MarkReminderDelivered(ctx, id)
		require.NoError(t, err)
	}
	_, err = s.CreateConversation(ctx, u.ID, "hello", "hi")
	require.NoError(t, err)

	adherence, err := s.GetMedicationAdherence(ctx, u.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Adherence{Rate: 75, Taken: 3, Missed: 1, Total: 4}, *adherence)

	stats, err := s.GetUserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStats{
		TotalMedications:   1,
		TotalConversations: 1,
		PendingReminders:   1,
		AdherenceRate:      75,
	}, *stats)
}

func testMissingReferences(t *testing.T, s Store) {
	ctx := context.Background()
	const ghost = int64(1 << 40)
	now := time.Now().UTC()

	tests := []struct {
		name string
		call func() error
	}{
		{"conversation", func() error {
			_, err := s.CreateConversation(ctx, ghost, "hello", "hi")
			return err
		}},
		{"medication", func() error {
			_, err := s.CreateMedication(ctx, ghost, "Aspirin", "1 tablet", "08:00", "daily")
			return err
		}},
		{"reminder", func() error {
			_, err := s.CreateReminder(ctx, ghost, "08:00")
			return err
		}},
		{"emergency contact", func() error {
			_, err := s.AddEmergencyContact(ctx, domain.EmergencyContact{UserID: ghost, Name: "Contact", Phone: "+15550000001", Priority: 1})
			return err
		}},
		{"emergency alert", func() error {
			_, err := s.CreateEmergencyAlert(ctx, domain.EmergencyAlert{UserID: ghost})
			return err
		}},
		{"health vital", func() error {
			_, err := s.AddHealthVital(ctx, domain.HealthVital{UserID: ghost, VitalType: "heart_rate", Value: "72"})
			return err
		}},
		{"appointment", func() error {
			_, err := s.AddAppointment(ctx, domain.Appointment{UserID: ghost, DoctorName: "Dr. Nobody", AppointmentDate: now.AddDate(0, 0, 1)})
			return err
		}},
		{"caregiver invite", func() error {
			_, err := s.InviteCaregiver(ctx, domain.Caregiver{
				PatientID: ghost, CaregiverPhone: uniquePhone(), CaregiverName: "Daughter",
				InviteCode: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
			})
			return err
		}},
		{"notification token", func() error {
			_, err := s.CreateNotificationToken(ctx, domain.NotificationToken{UserID: ghost, Token: "ExponentPushToken[" + uuid.NewString() + "]"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrInvalidReference)
		})
	}
}

func testTokenRebind(t *testing.T, s Store) {
	ctx := context.Background()
	first := mustUser(t, s)
	second := mustUser(t, s)
	value := "ExponentPushToken[" + uuid.NewString() + "]"

	_, err := s.CreateNotificationToken(ctx, domain.NotificationToken{UserID: first.ID, Token: value})
	require.NoError(t, err)
	require.NoError(t, s.DeactivateNotificationToken(ctx, value))

	active := true
	owner := second.ID
	require.NoError(t, s.UpdateNotificationToken(ctx, value, domain.TokenPatch{UserID: &owner, IsActive: &active}))

	found, err := s.FindNotificationToken(ctx, value)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.UserID)
	assert.True(t, found.IsActive)

	tokens, err := s.GetUserNotificationTokens(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
	tokens, err = s.GetUserNotificationTokens(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	ghost := int64(1 << 40)
	err = s.UpdateNotificationToken(ctx, value, domain.TokenPatch{UserID: &ghost})
	assert.ErrorIs(t, err, ErrInvalidReference)
}
