package domain

import "time"

// DefaultHistoryLimit 对话历史默认条数
const DefaultHistoryLimit = 5

// Conversation 对话记录（对应 conversations 表），只追加
type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Response  string    `json:"response" db:"response"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// NewConversation 校验一轮对话
func NewConversation(userID int64, message, response string) (Conversation, error) {
	if err := requiredID("user_id", userID); err != nil {
		return Conversation{}, err
	}
	if err := required("message", message); err != nil {
		return Conversation{}, err
	}
	return Conversation{UserID: userID, Message: message, Response: response}, nil
}
