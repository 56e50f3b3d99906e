// Package session — service.go: выдача и проверка сессий.
package session

import (
	"context"
	"time"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Service управляет сессиями игроков.
type Service struct {
	repo *Repository
	ttl  time.Duration
}

// NewService создаёт сервис сессий.
func NewService(repo *Repository, ttl time.Duration) *Service {
	return &Service{repo: repo, ttl: ttl}
}

// Create выдаёт игроку новую сессию.
func (s *Service) Create(ctx context.Context, userID int64) (*Session, error) {
	return s.repo.Create(ctx, userID, s.ttl)
}

// Resolve возвращает user_id по токену сессии.
func (s *Service) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, common.ErrUnauthorized
	}
	sess, err := s.repo.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	if sess == nil {
		return 0, common.ErrUnauthorized
	}
	return sess.UserID, nil
}

// Revoke снимает все сессии игрока.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	return s.repo.DeleteForUser(ctx, userID)
}
