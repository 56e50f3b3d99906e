// Package nonce — service.go: выдача и потребление токенов действий.
package nonce

import (
	"context"
	"time"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Service управляет токенами действий.
type Service struct {
	repo *Repository
	ttl  time.Duration
}

// NewService создаёт сервис токенов с заданным временем жизни.
func NewService(repo *Repository, ttl time.Duration) *Service {
	return &Service{repo: repo, ttl: ttl}
}

// Issue выдаёт игроку свежий токен.
func (s *Service) Issue(ctx context.Context, userID int64) (*Nonce, error) {
	return s.repo.Issue(ctx, userID, s.ttl)
}

// Consume проверяет предъявленный токен и ротирует его.
// Возвращает новый токен для ответа клиенту.
func (s *Service) Consume(ctx context.Context, userID int64, presented string) (*Nonce, error) {
	n, ok, err := s.repo.VerifyAndRotate(ctx, userID, presented, s.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrBadNonce
	}
	return n, nil
}
