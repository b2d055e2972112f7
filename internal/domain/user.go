package domain

import "time"

// DefaultLanguage 用户未指定语言时使用
const DefaultLanguage = "en"

// User 用户领域模型（对应 users 表）
// 所有按用户归属的数据都挂在 User 下
type User struct {
	ID        int64     `json:"id" db:"id"`                 // BIGSERIAL, PRIMARY KEY
	Phone     string    `json:"phone" db:"phone"`           // TEXT, NOT NULL, UNIQUE
	Name      string    `json:"name" db:"name"`             // TEXT, NOT NULL
	Language  string    `json:"language" db:"language"`     // TEXT, NOT NULL, DEFAULT 'en'
	CreatedAt time.Time `json:"created_at" db:"created_at"` // TIMESTAMPTZ, DEFAULT now()
}

// NewUser 校验注册参数；language 为空时回落到 en
func NewUser(phone, name, language string) (User, error) {
	if err := required("phone", phone); err != nil {
		return User{}, err
	}
	if err := required("name", name); err != nil {
		return User{}, err
	}
	return User{Phone: phone, Name: name, Language: orDefault(language, DefaultLanguage)}, nil
}
