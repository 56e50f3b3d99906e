// Package auth — models.go описывает структуры проверенного initData.
package auth

import "time"

// TelegramUser — запись пользователя из поля user в initData.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Language  string `json:"language_code"`
	IsPremium bool   `json:"is_premium"`
}

// DisplayName возвращает имя для отображения: first_name, иначе username.
func (u *TelegramUser) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Игрок"
}

// InitData — результат успешной проверки подписи.
type InitData struct {
	User TelegramUser
	// AuthDate — unix-время выдачи initData Телеграмом
	AuthDate int64
	// Signature — base64url-подпись из initData, нужна для анти-replay штампа
	Signature string
	// Fields — остальные поля initData (query_id, chat_type и т.п.)
	Fields map[string]string
}

// ReplayStamp — принятый ранее initData.
// Уникальность stamp_hash в БД и есть защита от повторов.
type ReplayStamp struct {
	ID        int64
	StampHash string
	AuthDate  int64
	CreatedAt time.Time
}
