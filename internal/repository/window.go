package repository

import (
	"sort"
	"time"

	"medimate-backend/internal/domain"
)

func normalizeDays(days int) int {
	if days <= 0 {
		return domain.DefaultWindowDays
	}
	return days
}

func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -normalizeDays(days))
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultHistoryLimit
	}
	return limit
}

// groupTrends 把体征按类型分组，每组按记录时间升序
func groupTrends(vitals []domain.HealthVital) domain.HealthTrends {
	trends := domain.HealthTrends{}
	for _, v := range vitals {
		trends[v.VitalType] = append(trends[v.VitalType], domain.TrendPoint{Value: v.Value, Date: v.RecordedAt})
	}
	for _, points := range trends {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	}
	return trends
}
