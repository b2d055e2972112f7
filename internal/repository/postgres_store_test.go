package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-backend/internal/domain"
)

func setupMockStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresStore(db)
}

var (
	userCols       = []string{"id", "phone", "name", "language", "created_at"}
	medicationCols = []string{"id", "user_id", "medicine_name", "dosage", "time", "frequency", "active", "created_at"}
	caregiverCols  = []string{"id", "patient_id", "caregiver_phone", "caregiver_name", "relationship", "access_level", "invite_code", "status", "created_at", "accepted_at"}
)

// ============================================
// Users
// ============================================

func TestPostgresStore_CreateUser_Success(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("9876543210", "Test User", "en").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "9876543210", "Test User", "en", createdAt))

	u, err := store.CreateUser(context.Background(), "9876543210", "Test User", "")

	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "en", u.Language)
	assert.Equal(t, createdAt, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_Duplicate(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("9876543210", "Test User", "ta").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	u, err := store.CreateUser(context.Background(), "9876543210", "Test User", "ta")

	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_ValidationSkipsDB(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	_, err := store.CreateUser(context.Background(), "9876543210", "", "")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindUserByPhone_NotFound(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE phone = \$1`).
		WithArgs("0000").
		WillReturnError(sql.ErrNoRows)

	u, err := store.FindUserByPhone(context.Background(), "0000")

	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindUserByID_BackendError(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset by peer"))

	u, err := store.FindUserByID(context.Background(), 7)

	assert.Nil(t, u)
	require.Error(t, err)
	assert.True(t, IsBackendError(err))
	assert.Equal(t, "store: find user by id failed", err.Error())
	assert.NotContains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// Medications / reminders
// ============================================

func TestPostgresStore_GetMedicationsByUserID(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE user_id = \$1 AND active = TRUE\s+ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(medicationCols).
			AddRow(int64(2), int64(3), "Metformin", "500mg", "20:00", "daily", true, now).
			AddRow(int64(1), int64(3), "Aspirin", "", "08:00", "daily", true, now.Add(-time.Hour)))

	meds, err := store.GetMedicationsByUserID(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, "Metformin", meds[0].MedicineName)
	assert.Equal(t, "", meds[1].Dosage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMedicationsByUserID_IncludesStopped(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(medicationCols).
			AddRow(int64(2), int64(3), "Metformin", "500mg", "20:00", "daily", true, now).
			AddRow(int64(1), int64(3), "Aspirin", "", "08:00", "daily", false, now.Add(-time.Hour)))

	meds, err := store.ListMedicationsByUserID(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.False(t, meds[1].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMedication_BuildsSetClause(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	dosage := "2 tablets"
	active := false
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE medications SET dosage = $1, active = $2 WHERE id = $3 RETURNING`)).
		WithArgs("2 tablets", false, int64(9)).
		WillReturnRows(sqlmock.NewRows(medicationCols).
			AddRow(int64(9), int64(3), "Aspirin", "2 tablets", "08:00", "daily", false, time.Now()))

	m, err := store.UpdateMedication(context.Background(), 9, domain.MedicationPatch{Dosage: &dosage, Active: &active})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "2 tablets", m.Dosage)
	assert.False(t, m.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMedication_NotFound(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	name := "Ibuprofen"
	mock.ExpectQuery(`UPDATE medications SET`).
		WithArgs("Ibuprofen", int64(404)).
		WillReturnError(sql.ErrNoRows)

	m, err := store.UpdateMedication(context.Background(), 404, domain.MedicationPatch{MedicineName: &name})

	require.NoError(t, err)
	assert.Nil(t, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteMedication(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE medications SET active = FALSE WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE medications SET active = FALSE WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.DeleteMedication(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.DeleteMedication(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkReminderDelivered_Guarded(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`WHERE id = \$1 AND delivered = FALSE`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`WHERE id = \$1 AND delivered = FALSE`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := store.MarkReminderDelivered(context.Background(), 5)
	require.NoError(t, err)
	second, err := store.MarkReminderDelivered(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPendingReminders(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`JOIN medications m ON m.id = r.medication_id\s+WHERE m.user_id = \$1 AND m.active = TRUE AND r.delivered = FALSE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "medication_id", "scheduled_time", "delivered", "delivered_at", "created_at"}).
			AddRow(int64(11), int64(2), "08:00", false, nil, time.Now()))

	pending, err := store.GetPendingReminders(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].DeliveredAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// Conversations / vitals
// ============================================

func TestPostgresStore_GetConversationHistory_DefaultLimit(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`ORDER BY timestamp DESC, id DESC\s+LIMIT \$2\s+\) recent\s+ORDER BY timestamp ASC`).
		WithArgs(int64(3), domain.DefaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "response", "timestamp"}).
			AddRow(int64(1), int64(3), "hello", "hi there", now.Add(-time.Minute)).
			AddRow(int64(2), int64(3), "how are you", "", now))

	history, err := store.GetConversationHistory(context.Background(), 3, 0)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetVitalsByType_Window(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectQuery(`WHERE user_id = \$1 AND vital_type = \$2 AND recorded_at >= \$3`).
		WithArgs(int64(3), "heart_rate", fixed.AddDate(0, 0, -7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vital_type", "value", "unit", "notes", "recorded_at"}).
			AddRow(int64(1), int64(3), "heart_rate", "72", "bpm", "", fixed.Add(-time.Hour)))

	vitals, err := store.GetVitalsByType(context.Background(), 3, "heart_rate", 7)

	require.NoError(t, err)
	require.Len(t, vitals, 1)
	assert.Equal(t, "bpm", vitals[0].Unit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetHealthTrends_GroupsAscending(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectQuery(`FROM health_vitals`).
		WithArgs(int64(3), fixed.AddDate(0, 0, -30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vital_type", "value", "unit", "notes", "recorded_at"}).
			AddRow(int64(3), int64(3), "blood_pressure", "130/85", "mmHg", "", fixed.Add(-time.Hour)).
			AddRow(int64(2), int64(3), "weight", "70", "kg", "", fixed.Add(-2*time.Hour)).
			AddRow(int64(1), int64(3), "blood_pressure", "120/80", "mmHg", "", fixed.Add(-3*time.Hour)))

	trends, err := store.GetHealthTrends(context.Background(), 3, -1)

	require.NoError(t, err)
	require.Len(t, trends["blood_pressure"], 2)
	assert.Equal(t, "120/80", trends["blood_pressure"][0].Value)
	assert.Equal(t, "130/85", trends["blood_pressure"][1].Value)
	assert.Len(t, trends["weight"], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// Caregivers / tokens / stats
// ============================================

func TestPostgresStore_AcceptCaregiverInvite(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE invite_code = \$1 AND caregiver_phone = \$2 AND status = 'pending'`).
		WithArgs("ABCDEF123456", "+15550001").
		WillReturnRows(sqlmock.NewRows(caregiverCols).
			AddRow(int64(1), int64(3), "+15550001", "Daughter", "Family", "view", "ABCDEF123456", "accepted", now, now))
	mock.ExpectQuery(`WHERE invite_code = \$1 AND caregiver_phone = \$2 AND status = 'pending'`).
		WithArgs("ABCDEF123456", "+15550001").
		WillReturnError(sql.ErrNoRows)

	c, err := store.AcceptCaregiverInvite(context.Background(), "ABCDEF123456", "+15550001")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, domain.CaregiverStatusAccepted, c.Status)
	require.NotNil(t, c.AcceptedAt)

	again, err := store.AcceptCaregiverInvite(context.Background(), "ABCDEF123456", "+15550001")
	require.NoError(t, err)
	assert.Nil(t, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InviteCaregiver_DuplicateCode(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO caregivers`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.InviteCaregiver(context.Background(), domain.Caregiver{
		PatientID: 3, CaregiverPhone: "+15550001", CaregiverName: "Daughter", InviteCode: "ABCDEF123456",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateNotificationToken(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	// 空补丁不访问数据库
	require.NoError(t, store.UpdateNotificationToken(context.Background(), "tok", domain.TokenPatch{}))

	used := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notification_tokens SET last_used_at = $1 WHERE token = $2`)).
		WithArgs(used, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateNotificationToken(context.Background(), "tok", domain.TokenPatch{LastUsedAt: &used}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveEmergencyAlert_OnlyActive(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	triggered := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
	resolved := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "alert_type", "location", "message", "status", "triggered_at", "resolved_at"}

	mock.ExpectQuery(`WHERE id = \$1 AND status = 'active'\s+RETURNING`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(4, 9, "manual", "Home", "Emergency alert triggered", "resolved", triggered, resolved))
	mock.ExpectQuery(`WHERE id = \$1 AND status = 'active'`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(columns))

	alert, err := store.ResolveEmergencyAlert(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, int64(9), alert.UserID)
	assert.Equal(t, domain.AlertStatusResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)
	assert.Equal(t, resolved, *alert.ResolvedAt)

	again, err := store.ResolveEmergencyAlert(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ForeignKeyViolation(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO medications`).
		WithArgs(int64(77), "Aspirin", "1 tablet", "08:00", "daily").
		WillReturnError(&pq.Error{Code: "23503", Message: "insert or update on table \"medications\" violates foreign key constraint"})
	mock.ExpectQuery(`INSERT INTO reminders`).
		WithArgs(int64(12345), "08:00").
		WillReturnError(&pq.Error{Code: "23503"})

	m, err := store.CreateMedication(context.Background(), 77, "Aspirin", "1 tablet", "08:00", "daily")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvalidReference)

	r, err := store.CreateReminder(context.Background(), 12345, "08:00")
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrInvalidReference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateNotificationToken_Rebind(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	owner := int64(8)
	active := true
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notification_tokens SET user_id = $1, is_active = $2 WHERE token = $3`)).
		WithArgs(owner, true, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateNotificationToken(context.Background(), "tok", domain.TokenPatch{UserID: &owner, IsActive: &active}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserStats(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM medications`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"m", "c", "p"}).AddRow(2, 14, 1))
	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE r.delivered = TRUE\)`).
		WithArgs(int64(3), fixed.AddDate(0, 0, -30)).
		WillReturnRows(sqlmock.NewRows([]string{"taken", "total"}).AddRow(17, 20))

	stats, err := store.GetUserStats(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, domain.UserStats{
		TotalMedications:   2,
		TotalConversations: 14,
		PendingReminders:   1,
		AdherenceRate:      85,
	}, *stats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMedicationAdherence_NoReminders(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`FROM reminders r`).
		WillReturnRows(sqlmock.NewRows([]string{"taken", "total"}).AddRow(0, 0))

	a, err := store.GetMedicationAdherence(context.Background(), 3, 7)

	require.NoError(t, err)
	assert.Equal(t, domain.Adherence{}, *a)
	require.NoError(t, mock.ExpectationsWereMet())
}
