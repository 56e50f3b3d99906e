// Package player — repository.go выполняет все операции с таблицами
// players, plots и inventories вне транзакций действий.
// Чтения здесь без блокировок: клиент всё равно пересчитает стадии
// на следующем опросе /state.
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Repository предоставляет методы для работы с записями игроков.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertFromTelegram создаёт игрока при первом входе или освежает
// метаданные профиля при повторном. Один upsert вместо
// "проверили-создали", чтобы не было окна гонки между проверкой
// и созданием. Принимает плоские поля профиля: слой аутентификации
// зависит от игроков, но не наоборот.
func (r *Repository) UpsertFromTelegram(ctx context.Context, userID int64, username, firstName, lastName, displayName string, startBalance, startFields int) (*Player, error) {
	query := `
		INSERT INTO players (user_id, username, first_name, last_name, display_name, balance, fields_owned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
		RETURNING user_id, username, first_name, last_name, display_name,
		          balance, fields_owned, level, xp,
		          is_blocked, COALESCE(blocked_reason, ''), created_at, updated_at
	`
	var p Player
	err := r.db.QueryRow(ctx, query,
		userID, username, firstName, lastName, displayName,
		startBalance, startFields,
	).Scan(
		&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.DisplayName,
		&p.Balance, &p.FieldsOwned, &p.Level, &p.XP,
		&p.IsBlocked, &p.BlockedReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка upsert игрока: %w", err)
	}
	return &p, nil
}

// GetByID возвращает игрока без блокировки строки.
func (r *Repository) GetByID(ctx context.Context, userID int64) (*Player, error) {
	query := `
		SELECT user_id, username, first_name, last_name, display_name,
		       balance, fields_owned, level, xp,
		       is_blocked, COALESCE(blocked_reason, ''), created_at, updated_at
		FROM players
		WHERE user_id = $1
	`
	var p Player
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.DisplayName,
		&p.Balance, &p.FieldsOwned, &p.Level, &p.XP,
		&p.IsBlocked, &p.BlockedReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}
	return &p, nil
}

// ListPlots возвращает все грядки игрока по возрастанию индекса.
func (r *Repository) ListPlots(ctx context.Context, userID int64) ([]*Plot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, idx, COALESCE(crop_key, ''), planted_at
		FROM plots
		WHERE user_id = $1
		ORDER BY idx
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения грядок: %w", err)
	}
	defer rows.Close()

	var plots []*Plot
	for rows.Next() {
		var p Plot
		if err := rows.Scan(&p.ID, &p.UserID, &p.Idx, &p.CropKey, &p.PlantedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования грядки: %w", err)
		}
		plots = append(plots, &p)
	}
	return plots, rows.Err()
}

// ListInventory возвращает инвентарь игрока.
func (r *Repository) ListInventory(ctx context.Context, userID int64) ([]*InventoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, item_key, qty
		FROM inventories
		WHERE user_id = $1
		ORDER BY item_key
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var items []*InventoryEntry
	for rows.Next() {
		var e InventoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemKey, &e.Qty); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
