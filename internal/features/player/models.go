// Package player — models.go описывает игрока, грядки и инвентарь.
package player

import "time"

// Player — запись игрока. Создаётся при первом успешном входе,
// дальше только обновляется; не удаляется никогда.
type Player struct {
	UserID      int64
	Username    string
	FirstName   string
	LastName    string
	DisplayName string

	Balance     int
	FieldsOwned int

	Level int
	XP    int

	IsBlocked     bool
	BlockedReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Plot — грядка игрока. Ключ (user_id, idx) уникален.
// Инвариант: crop_key и planted_at либо оба заданы, либо оба пусты.
type Plot struct {
	ID        int64
	UserID    int64
	Idx       int
	CropKey   string // пусто — грядка свободна
	PlantedAt *time.Time
}

// InventoryEntry — позиция инвентаря. Ключ (user_id, item_key) уникален,
// qty никогда не уходит в минус.
type InventoryEntry struct {
	ID      int64
	UserID  int64
	ItemKey string
	Qty     int
}

// PlotView — грядка в ответе API, со пересчитанной стадией роста.
type PlotView struct {
	Idx             int     `json:"idx"`
	CropKey         *string `json:"crop_key"`
	Stage           *string `json:"stage"`
	ReadyAt         *string `json:"ready_at"`
	ReadyAtUnixMS   *int64  `json:"ready_at_unix_ms"`
	RemainingMS     *int64  `json:"remaining_ms"`
	PlantedAtISO    *string `json:"planted_at_iso"`
	PlantedAtUnixMS *int64  `json:"planted_at_unix_ms"`
}

// State — состояние игрока в ответе API.
type State struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	DisplayName   string `json:"display_name"`
	Balance       int    `json:"balance"`
	FieldsOwned   int    `json:"fields_owned"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	IsBlocked     bool   `json:"is_blocked"`
	BlockedReason string `json:"blocked_reason,omitempty"`
	UpdatedAt     string `json:"updated_at"`

	ActionNonce      string     `json:"action_nonce"`
	NonceExpiry      string     `json:"nonce_expiry"`
	ServerTimeUnixMS int64      `json:"server_time_unix_ms"`
	Plots            []PlotView `json:"plots"`
}

// InventoryItem — позиция инвентаря в ответе API.
type InventoryItem struct {
	ItemKey string `json:"item_key"`
	Qty     int    `json:"qty"`
}
