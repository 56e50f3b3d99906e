// Package admin — models.go: сессии администратора и сводки игроков.
package admin

import "time"

// Session — сессия администратора после успешного входа по паролю.
type Session struct {
	ID        int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PlayerSummary — игрок со своим инвентарём для админ-панели.
type PlayerSummary struct {
	UserID        int64          `json:"user_id"`
	Username      string         `json:"username,omitempty"`
	DisplayName   string         `json:"display_name"`
	Balance       int            `json:"balance"`
	FieldsOwned   int            `json:"fields_owned"`
	Level         int            `json:"level"`
	IsBlocked     bool           `json:"is_blocked"`
	BlockedReason string         `json:"blocked_reason,omitempty"`
	Inventory     map[string]int `json:"inventory"`
	CreatedAt     string         `json:"created_at"`
}
