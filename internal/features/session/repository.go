// Package session — repository.go работает с таблицей sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository хранит сессии игроков.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий сессий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create выдаёт новую сессию игроку.
func (r *Repository) Create(ctx context.Context, userID int64, ttl time.Duration) (*Session, error) {
	token := uuid.NewString()
	query := `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, NOW() + ($3 * INTERVAL '1 second'))
		RETURNING token, user_id, created_at, expires_at
	`
	var s Session
	err := r.db.QueryRow(ctx, query, token, userID, ttl.Seconds()).Scan(
		&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return &s, nil
}

// Resolve возвращает сессию по токену, если она жива.
// Мёртвый или неизвестный токен — nil без ошибки.
func (r *Repository) Resolve(ctx context.Context, token string) (*Session, error) {
	query := `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = $1 AND expires_at > NOW()
	`
	var s Session
	err := r.db.QueryRow(ctx, query, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска сессии: %w", err)
	}
	return &s, nil
}

// DeleteForUser удаляет все сессии игрока.
// Вызывается при блокировке, чтобы заблокированный вылетел сразу.
func (r *Repository) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления сессий: %w", err)
	}
	return nil
}
