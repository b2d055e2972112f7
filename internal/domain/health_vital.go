package domain

import "time"

// DefaultWindowDays 体征/趋势/依从性查询的默认天数
const DefaultWindowDays = 30

var defaultUnits = map[string]string{
	"blood_pressure":    "mmHg",
	"blood_sugar":       "mg/dL",
	"heart_rate":        "bpm",
	"weight":            "kg",
	"temperature":       "°F",
	"oxygen_saturation": "%",
}

// DefaultUnit 体征类型的默认单位，未知类型返回空串
func DefaultUnit(vitalType string) string {
	return defaultUnits[vitalType]
}

// HealthVital 健康体征（对应 health_vitals 表），记录后不可修改
// value 保留原始文本，血压这类读数是 "120/80"
type HealthVital struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	VitalType  string    `json:"vital_type" db:"vital_type"`
	Value      string    `json:"value" db:"value"`
	Unit       string    `json:"unit" db:"unit"`
	Notes      string    `json:"notes" db:"notes"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// NewHealthVital 校验体征读数；unit 为空时按类型补默认单位
func NewHealthVital(userID int64, vitalType, value, unit, notes string) (HealthVital, error) {
	if err := requiredID("user_id", userID); err != nil {
		return HealthVital{}, err
	}
	if err := required("vital_type", vitalType); err != nil {
		return HealthVital{}, err
	}
	if err := required("value", value); err != nil {
		return HealthVital{}, err
	}
	return HealthVital{
		UserID:    userID,
		VitalType: vitalType,
		Value:     value,
		Unit:      orDefault(unit, DefaultUnit(vitalType)),
		Notes:     notes,
	}, nil
}

// TrendPoint 趋势中的一个点
type TrendPoint struct {
	Value string    `json:"value"`
	Date  time.Time `json:"date"`
}

// HealthTrends vital_type -> 按时间升序的读数
type HealthTrends map[string][]TrendPoint
