// Package admin — repository.go работает с таблицами admin_sessions,
// admin_login_attempts и админскими выборками по игрокам.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с админ-таблицами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CountRecentFailures считает неудачные входы с адреса за окно.
// Защита от перебора пароля.
func (r *Repository) CountRecentFailures(ctx context.Context, remoteAddr string, window time.Duration) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE remote_addr = $1 AND success = FALSE AND attempted_at >= NOW() - ($2 * INTERVAL '1 second')
	`, remoteAddr, window.Seconds()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток входа: %w", err)
	}
	return count, nil
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, remoteAddr string, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_login_attempts (remote_addr, success) VALUES ($1, $2)
	`, remoteAddr, success)
	if err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// CreateSession создаёт сессию администратора.
func (r *Repository) CreateSession(ctx context.Context, token string, ttl time.Duration) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		INSERT INTO admin_sessions (token, expires_at)
		VALUES ($1, NOW() + ($2 * INTERVAL '1 second'))
		RETURNING id, token, created_at, expires_at
	`, token, ttl.Seconds()).Scan(&s.ID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания админ-сессии: %w", err)
	}
	return &s, nil
}

// SessionAlive проверяет, жива ли сессия с таким токеном.
func (r *Repository) SessionAlive(ctx context.Context, token string) (bool, error) {
	var alive bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM admin_sessions WHERE token = $1 AND expires_at > NOW()
		)
	`, token).Scan(&alive)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки админ-сессии: %w", err)
	}
	return alive, nil
}

// SetBlocked ставит или снимает блокировку игрока.
// При снятии причина очищается вместе с флагом.
func (r *Repository) SetBlocked(ctx context.Context, userID int64, blocked bool, reason string) (bool, error) {
	var reasonPtr *string
	if blocked && reason != "" {
		reasonPtr = &reason
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE players
		SET is_blocked = $2, blocked_reason = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, blocked, reasonPtr)
	if err != nil {
		return false, fmt.Errorf("ошибка изменения блокировки: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPlayers возвращает всех игроков с их инвентарями.
func (r *Repository) ListPlayers(ctx context.Context) ([]*PlayerSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, COALESCE(username, ''), display_name, balance, fields_owned,
		       level, is_blocked, COALESCE(blocked_reason, ''), created_at
		FROM players
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игроков: %w", err)
	}
	defer rows.Close()

	var players []*PlayerSummary
	byID := make(map[int64]*PlayerSummary)
	for rows.Next() {
		var p PlayerSummary
		var createdAt time.Time
		err := rows.Scan(
			&p.UserID, &p.Username, &p.DisplayName, &p.Balance, &p.FieldsOwned,
			&p.Level, &p.IsBlocked, &p.BlockedReason, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игрока: %w", err)
		}
		p.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		p.Inventory = make(map[string]int)
		players = append(players, &p)
		byID[p.UserID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	invRows, err := r.db.Query(ctx, `SELECT user_id, item_key, qty FROM inventories`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентарей: %w", err)
	}
	defer invRows.Close()

	for invRows.Next() {
		var userID int64
		var itemKey string
		var qty int
		if err := invRows.Scan(&userID, &itemKey, &qty); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		if p, ok := byID[userID]; ok {
			p.Inventory[itemKey] = qty
		}
	}
	return players, invRows.Err()
}
