// Package admin — service.go содержит логику входа администратора
// и управления игроками.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/features/session"
)

// Защита от brute-force: столько неудач с адреса — и вход закрыт на окно.
const (
	maxLoginFailures = 3
	failureWindow    = 1 * time.Hour
	sessionTTL       = 24 * time.Hour
)

// Service управляет админ-панелью.
type Service struct {
	repo     *Repository
	sessions *session.Service
	cfg      *config.Config
}

// NewService создаёт сервис админ-панели.
func NewService(repo *Repository, sessions *session.Service, cfg *config.Config) *Service {
	return &Service{repo: repo, sessions: sessions, cfg: cfg}
}

// Login проверяет пароль администратора и выдаёт токен сессии.
// Три неудачные попытки с адреса — блокировка входа на час.
func (s *Service) Login(ctx context.Context, remoteAddr, password string) (*Session, error) {
	failures, err := s.repo.CountRecentFailures(ctx, remoteAddr, failureWindow)
	if err != nil {
		return nil, err
	}
	if failures >= maxLoginFailures {
		return nil, common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	if err := s.repo.LogAttempt(ctx, remoteAddr, match); err != nil {
		return nil, err
	}
	if !match {
		log.WithField("remote_addr", remoteAddr).Warn("Неудачный вход в админку")
		return nil, common.ErrWrongPassword
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	return s.repo.CreateSession(ctx, token, sessionTTL)
}

// Authorize проверяет токен админ-сессии.
func (s *Service) Authorize(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrUnauthorized
	}
	alive, err := s.repo.SessionAlive(ctx, token)
	if err != nil {
		return err
	}
	if !alive {
		return common.ErrUnauthorized
	}
	return nil
}

// ListPlayers возвращает всех игроков для админ-панели.
func (s *Service) ListPlayers(ctx context.Context) ([]*PlayerSummary, error) {
	return s.repo.ListPlayers(ctx)
}

// Block блокирует игрока и сразу гасит его сессии:
// бан действует со следующего же запроса.
func (s *Service) Block(ctx context.Context, userID int64, reason string) error {
	if reason == "" {
		reason = "Заблокирован администратором"
	}
	found, err := s.repo.SetBlocked(ctx, userID, true, reason)
	if err != nil {
		return err
	}
	if !found {
		return common.ErrPlayerNotFound
	}
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		return err
	}

	log.WithFields(log.Fields{"user_id": userID, "reason": reason}).Info("Игрок заблокирован")
	return nil
}

// Unblock снимает блокировку игрока.
func (s *Service) Unblock(ctx context.Context, userID int64) error {
	found, err := s.repo.SetBlocked(ctx, userID, false, "")
	if err != nil {
		return err
	}
	if !found {
		return common.ErrPlayerNotFound
	}

	log.WithField("user_id", userID).Info("Игрок разблокирован")
	return nil
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
// Отказ источника энтропии — это отказ входа: предсказуемый токен
// выдавать нельзя.
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
