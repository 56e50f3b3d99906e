// Package actions — models.go: виды действий, запросы и журнал.
package actions

import "time"

// Виды действий. Для каждого — свой потолок скользящего окна.
const (
	ActionBuyField = "buy_field"
	ActionShopBuy  = "shop_buy"
	ActionPlant    = "plant"
	ActionHarvest  = "harvest"
	ActionSell     = "sell"
)

// Исходы в журнале действий.
// Строка пишется при допуске, ДО транзакции, с исходом attempt;
// успешная транзакция атомарно со своими дельтами меняет исход на ok.
// Откат оставляет attempt — попытка всё равно считается лимитером.
const (
	OutcomeAttempt = "attempt"
	OutcomeOK      = "ok"
)

// LogEntry — строка журнала действий. Пишется движком, игровой
// логикой никогда не читается (кроме подсчёта окна лимитером);
// остальное — для эксплуатации и анти-чита.
type LogEntry struct {
	ID         int64
	UserID     int64
	Action     string
	Detail     string
	Outcome    string
	Amount     int
	OldBalance *int
	NewBalance *int
	CreatedAt  time.Time
}

// Запросы действий. Декодирование строгое: неизвестные и
// пропущенные поля валят запрос до начала транзакции.
// Указатели отличают "поле отсутствует" от нулевого значения.

type shopBuyRequest struct {
	ItemKey *string `json:"item_key"`
}

type plantRequest struct {
	Idx     *int    `json:"idx"`
	ItemKey *string `json:"item_key"`
}

type harvestRequest struct {
	Idx *int `json:"idx"`
}

type sellRequest struct {
	ItemKey *string `json:"item_key"`
}
