// Package actions — repository.go: журнал действий, лимитер
// и запросы с блокировкой строк внутри транзакций движка.
//
// Все блокирующие чтения принимают pgx.Tx: блокировка живёт ровно
// до конца транзакции действия. Вне транзакций этот репозиторий
// пишет только журнал.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/features/player"
)

// Repository выполняет запросы движка действий.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий движка.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Begin открывает транзакцию действия.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	return tx, nil
}

// AdmitAndLog — допуск скользящего окна и запись в журнал одним
// атомарным стейтментом: строка вставляется, только если в хвостовом
// окне для (игрок, вид действия) ещё есть место. Счётчик живёт в БД,
// а не в памяти процесса — конкурентные запросы могут обслуживаться
// разными воркерами без общей памяти.
//
// Считаются попытки, а не успехи: строка остаётся и если транзакция
// действия потом откатится.
func (r *Repository) AdmitAndLog(ctx context.Context, userID int64, action string, window time.Duration, limit int) (int64, error) {
	query := `
		INSERT INTO action_logs (user_id, action, outcome)
		SELECT $1, $2, 'attempt'
		WHERE (
			SELECT COUNT(*) FROM action_logs
			WHERE user_id = $1 AND action = $2 AND created_at >= NOW() - ($3 * INTERVAL '1 second')
		) < $4
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, userID, action, window.Seconds(), limit).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, common.ErrRateLimited
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка допуска действия: %w", err)
	}
	return id, nil
}

// MarkOutcome проставляет строке журнала исход и дельты баланса.
// Вызывается внутри транзакции действия: исход ok коммитится
// атомарно с самим эффектом.
func (r *Repository) MarkOutcome(ctx context.Context, tx pgx.Tx, logID int64, outcome, detail string, amount, oldBalance, newBalance int) error {
	_, err := tx.Exec(ctx, `
		UPDATE action_logs
		SET outcome = $2, detail = $3, amount = $4, old_balance = $5, new_balance = $6
		WHERE id = $1
	`, logID, outcome, detail, amount, oldBalance, newBalance)
	if err != nil {
		return fmt.Errorf("ошибка записи исхода: %w", err)
	}
	return nil
}

// LockPlayer читает игрока с эксклюзивной блокировкой строки.
// Все предусловия действия проверяются по этой строке, а не по
// значениям, прочитанным до захвата блокировки.
func (r *Repository) LockPlayer(ctx context.Context, tx pgx.Tx, userID int64) (*player.Player, error) {
	query := `
		SELECT user_id, balance, fields_owned, level, xp,
		       is_blocked, COALESCE(blocked_reason, '')
		FROM players
		WHERE user_id = $1
		FOR UPDATE
	`
	var p player.Player
	err := tx.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Balance, &p.FieldsOwned, &p.Level, &p.XP,
		&p.IsBlocked, &p.BlockedReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}
	return &p, nil
}

// UpdatePlayer записывает новые баланс и число грядок игрока.
func (r *Repository) UpdatePlayer(ctx context.Context, tx pgx.Tx, userID int64, balance, fieldsOwned int) error {
	_, err := tx.Exec(ctx, `
		UPDATE players
		SET balance = $2, fields_owned = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, balance, fieldsOwned)
	if err != nil {
		return fmt.Errorf("ошибка обновления игрока: %w", err)
	}
	return nil
}

// LockInventory читает позицию инвентаря с блокировкой строки.
// Отсутствующая строка — просто qty 0: создаётся она лениво,
// только при первом зачислении.
func (r *Repository) LockInventory(ctx context.Context, tx pgx.Tx, userID int64, itemKey string) (int, error) {
	var qty int
	err := tx.QueryRow(ctx, `
		SELECT qty FROM inventories
		WHERE user_id = $1 AND item_key = $2
		FOR UPDATE
	`, userID, itemKey).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка блокировки инвентаря: %w", err)
	}
	return qty, nil
}

// AddInventory зачисляет или списывает предметы.
// Upsert вместо "проверили-создали": ленивое создание строки без
// второго окна гонки. GREATEST страхует инвариант qty >= 0 —
// списание без предварительной проверки сюда приходить не должно.
func (r *Repository) AddInventory(ctx context.Context, tx pgx.Tx, userID int64, itemKey string, delta int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventories (user_id, item_key, qty)
		VALUES ($1, $2, GREATEST($3, 0))
		ON CONFLICT (user_id, item_key) DO UPDATE
		SET qty = GREATEST(inventories.qty + $3, 0)
	`, userID, itemKey, delta)
	if err != nil {
		return fmt.Errorf("ошибка изменения инвентаря: %w", err)
	}
	return nil
}

// LockPlot читает грядку с блокировкой строки.
// Отсутствующая строка — свободная грядка (создаётся лениво при посадке).
func (r *Repository) LockPlot(ctx context.Context, tx pgx.Tx, userID int64, idx int) (*player.Plot, error) {
	query := `
		SELECT id, user_id, idx, COALESCE(crop_key, ''), planted_at
		FROM plots
		WHERE user_id = $1 AND idx = $2
		FOR UPDATE
	`
	var p player.Plot
	err := tx.QueryRow(ctx, query, userID, idx).Scan(&p.ID, &p.UserID, &p.Idx, &p.CropKey, &p.PlantedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки грядки: %w", err)
	}
	return &p, nil
}

// PlantPlot сажает культуру: upsert строки грядки,
// crop_key и planted_at выставляются строго вместе.
func (r *Repository) PlantPlot(ctx context.Context, tx pgx.Tx, userID int64, idx int, cropKey string, plantedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO plots (user_id, idx, crop_key, planted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, idx) DO UPDATE
		SET crop_key = EXCLUDED.crop_key, planted_at = EXCLUDED.planted_at
	`, userID, idx, cropKey, plantedAt)
	if err != nil {
		return fmt.Errorf("ошибка посадки: %w", err)
	}
	return nil
}

// ClearPlot освобождает грядку после сбора:
// crop_key и planted_at очищаются строго вместе.
func (r *Repository) ClearPlot(ctx context.Context, tx pgx.Tx, userID int64, idx int) error {
	_, err := tx.Exec(ctx, `
		UPDATE plots
		SET crop_key = NULL, planted_at = NULL
		WHERE user_id = $1 AND idx = $2
	`, userID, idx)
	if err != nil {
		return fmt.Errorf("ошибка очистки грядки: %w", err)
	}
	return nil
}
