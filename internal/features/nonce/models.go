// Package nonce — models.go описывает одноразовый токен действия.
package nonce

import "time"

// Nonce — анти-CSRF токен игрока. На игрока в любой момент
// существует не больше одного действующего значения.
type Nonce struct {
	UserID    int64
	Value     string
	ExpiresAt time.Time
}
