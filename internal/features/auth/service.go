// Package auth — service.go: полный поток входа Mini App.
// Проверка подписи → анти-replay штамп → upsert игрока →
// проверка блокировки → выдача сессии.
package auth

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/features/player"
	"serotonyl.ru/farm-webapp/internal/features/session"
)

// Service проводит вход игрока.
type Service struct {
	verifier *Verifier
	replays  *Repository
	players  *player.Repository
	sessions *session.Service
	cfg      *config.Config
}

// NewService создаёт сервис входа.
func NewService(verifier *Verifier, replays *Repository, players *player.Repository, sessions *session.Service, cfg *config.Config) *Service {
	return &Service{
		verifier: verifier,
		replays:  replays,
		players:  players,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Validate проверяет initData и возвращает игрока с новой сессией.
//
// Порядок жёсткий: подпись до штампа (иначе мусором можно забить
// таблицу штампов), штамп до upsert'а (replay не должен освежать
// профиль). Заблокированный игрок получает ErrUserBlocked вместе
// со своей записью — обработчику нужна причина блокировки.
func (s *Service) Validate(ctx context.Context, initDataRaw string) (*player.Player, *session.Session, error) {
	data, err := s.verifier.Verify(initDataRaw, time.Now())
	if err != nil {
		return nil, nil, err
	}

	if err := s.replays.ConsumeStamp(ctx, StampHash(data.Signature, data.AuthDate), data.AuthDate); err != nil {
		return nil, nil, err
	}

	u := &data.User
	p, err := s.players.UpsertFromTelegram(ctx,
		u.ID, u.Username, u.FirstName, u.LastName, u.DisplayName(),
		s.cfg.StartBalance, s.cfg.StartFields)
	if err != nil {
		return nil, nil, err
	}

	if p.IsBlocked {
		return p, nil, common.ErrUserBlocked
	}

	sess, err := s.sessions.Create(ctx, p.UserID)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  p.UserID,
		"username": p.Username,
	}).Info("Игрок вошёл")

	return p, sess, nil
}
