package domain

// UserStats 首页统计
type UserStats struct {
	TotalMedications   int `json:"total_medications"`
	TotalConversations int `json:"total_conversations"`
	PendingReminders   int `json:"pending_reminders"`
	AdherenceRate      int `json:"adherence_rate"` // 百分比 0-100
}

// Adherence 服药依从性汇总
type Adherence struct {
	Rate   int `json:"rate"`
	Taken  int `json:"taken"`
	Missed int `json:"missed"`
	Total  int `json:"total"`
}

// ComputeAdherence 由提醒数量计算依从性；没有提醒时 rate 为 0
func ComputeAdherence(taken, total int) Adherence {
	a := Adherence{Taken: taken, Total: total, Missed: total - taken}
	if total > 0 {
		a.Rate = (taken*100 + total/2) / total
	}
	return a
}
