// Package nonce — repository.go работает с таблицей action_nonces.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository хранит одноразовые токены действий.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий токенов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// newValue генерирует случайное 16-байтовое значение токена в hex.
func newValue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue выдаёт игроку свежий токен, заменяя прежний.
// Upsert, а не "проверили-создали": вызывается на каждом чтении
// /state, перевыпускать всегда безопасно.
func (r *Repository) Issue(ctx context.Context, userID int64, ttl time.Duration) (*Nonce, error) {
	value, err := newValue()
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO action_nonces (user_id, value, expires_at)
		VALUES ($1, $2, NOW() + ($3 * INTERVAL '1 second'))
		ON CONFLICT (user_id) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at
		RETURNING user_id, value, expires_at
	`
	var n Nonce
	if err := r.db.QueryRow(ctx, query, userID, value, ttl.Seconds()).Scan(&n.UserID, &n.Value, &n.ExpiresAt); err != nil {
		return nil, fmt.Errorf("ошибка выдачи токена: %w", err)
	}
	return &n, nil
}

// VerifyAndRotate сверяет предъявленное значение и, если оно совпало
// и не протухло, атомарно выпускает новое.
//
// Проверка и ротация — один UPDATE с условием в WHERE: то же значение
// не может авторизовать два конкурентных запроса, второй просто не
// найдёт строку. При неудаче прежний токен не трогаем — неудачные
// попытки не должны ничего менять.
func (r *Repository) VerifyAndRotate(ctx context.Context, userID int64, presented string, ttl time.Duration) (*Nonce, bool, error) {
	if presented == "" {
		return nil, false, nil
	}
	value, err := newValue()
	if err != nil {
		return nil, false, err
	}
	query := `
		UPDATE action_nonces
		SET value = $3, expires_at = NOW() + ($4 * INTERVAL '1 second')
		WHERE user_id = $1 AND value = $2 AND expires_at > NOW()
		RETURNING user_id, value, expires_at
	`
	var n Nonce
	err = r.db.QueryRow(ctx, query, userID, presented, value, ttl.Seconds()).Scan(&n.UserID, &n.Value, &n.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// токена нет, значение не совпало или срок вышел —
		// для вызывающего это одно и то же
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка ротации токена: %w", err)
	}
	return &n, true, nil
}

// Get возвращает текущий токен игрока, если он есть.
func (r *Repository) Get(ctx context.Context, userID int64) (*Nonce, error) {
	var n Nonce
	err := r.db.QueryRow(ctx, `
		SELECT user_id, value, expires_at FROM action_nonces WHERE user_id = $1
	`, userID).Scan(&n.UserID, &n.Value, &n.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("токен не найден: %w", err)
	}
	return &n, nil
}
