// Package session — models.go описывает сессию Mini App.
package session

import "time"

// Session — непрозрачный идентификатор доверенного игрока.
// Выдаётся после успешной проверки initData и анти-replay штампа;
// дальше запросы доверяют сессии без повторной проверки подписи.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
