// Package auth — repository.go работает с таблицей replay_stamps.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Код PostgreSQL для нарушения уникального ограничения.
const pgUniqueViolation = "23505"

// Repository хранит отпечатки уже принятых initData.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий анти-replay штампов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ConsumeStamp записывает отпечаток принятого initData.
//
// Вставка и проверка уникальности — одна атомарная операция БД:
// ограничение UNIQUE на stamp_hash. Повторная вставка того же
// отпечатка — и есть обнаруженный replay. Никакого
// "сначала проверили, потом вставили": это гонка при
// конкурентной отправке одного и того же initData.
func (r *Repository) ConsumeStamp(ctx context.Context, stampHash string, authDate int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO replay_stamps (stamp_hash, auth_date)
		VALUES ($1, $2)
	`, stampHash, authDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrReplayDetected
		}
		return fmt.Errorf("ошибка записи replay-штампа: %w", err)
	}
	return nil
}
