package repository

import (
	"context"

	"medimate-backend/internal/domain"
)

// GetUserStats 首页统计；adherence_rate 取最近 30 天依从性
func (s *PostgresStore) GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM medications WHERE user_id = $1 AND active = TRUE),
			(SELECT COUNT(*) FROM conversations WHERE user_id = $1),
			(SELECT COUNT(*)
				FROM reminders r
				JOIN medications m ON m.id = r.medication_id
				WHERE m.user_id = $1 AND m.active = TRUE AND r.delivered = FALSE)`

	var stats domain.UserStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalMedications,
		&stats.TotalConversations,
		&stats.PendingReminders,
	)
	if err != nil {
		return nil, wrapErr("get user stats", err)
	}

	adherence, err := s.GetMedicationAdherence(ctx, userID, domain.DefaultWindowDays)
	if err != nil {
		return nil, err
	}
	stats.AdherenceRate = adherence.Rate
	return &stats, nil
}

// GetMedicationAdherence 窗口内提醒总数与已确认数（含已停用用药）
func (s *PostgresStore) GetMedicationAdherence(ctx context.Context, userID int64, days int) (*domain.Adherence, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE r.delivered = TRUE),
			COUNT(*)
		FROM reminders r
		JOIN medications m ON m.id = r.medication_id
		WHERE m.user_id = $1 AND r.created_at >= $2`

	var taken, total int
	if err := s.db.QueryRowContext(ctx, query, userID, windowStart(s.now(), days)).Scan(&taken, &total); err != nil {
		return nil, wrapErr("get medication adherence", err)
	}
	a := domain.ComputeAdherence(taken, total)
	return &a, nil
}
