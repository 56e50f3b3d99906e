// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы,
// обработчики и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/catalog"
	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/db/postgres"
	"serotonyl.ru/farm-webapp/internal/features/actions"
	"serotonyl.ru/farm-webapp/internal/features/admin"
	"serotonyl.ru/farm-webapp/internal/features/auth"
	"serotonyl.ru/farm-webapp/internal/features/crops"
	"serotonyl.ru/farm-webapp/internal/features/nonce"
	"serotonyl.ru/farm-webapp/internal/features/player"
	"serotonyl.ru/farm-webapp/internal/features/session"
	"serotonyl.ru/farm-webapp/internal/jobs"
	"serotonyl.ru/farm-webapp/internal/server"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Каталог культур и игровые часы ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	clock := crops.NewClock(cat)

	// === 3. Верификатор подписи ===
	verifier, err := auth.NewVerifier(cfg.BotID, cfg.TgSignaturePublicKeyHex, cfg.AuthTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания верификатора: %w", err)
	}

	// === 4. Репозитории ===
	replayRepo := auth.NewRepository(pool)
	playerRepo := player.NewRepository(pool)
	nonceRepo := nonce.NewRepository(pool)
	sessionRepo := session.NewRepository(pool)
	actionsRepo := actions.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	sessionService := session.NewService(sessionRepo, cfg.SessionTTL)
	nonceService := nonce.NewService(nonceRepo, cfg.NonceTTL)
	authService := auth.NewService(verifier, replayRepo, playerRepo, sessionService, cfg)
	playerService := player.NewService(playerRepo, nonceService, clock)
	adminService := admin.NewService(adminRepo, sessionService, cfg)
	engine := actions.NewEngine(actionsRepo, playerService, nonceService, clock, cat, cfg)

	// === 6. Обработчики ===
	authHandler := auth.NewHandler(authService, cfg)
	playerHandler := player.NewHandler(playerService)
	actionsHandler := actions.NewHandler(engine)
	adminHandler := admin.NewHandler(adminService)

	// === 7. HTTP-сервер ===
	srv := server.New(cfg, authHandler, playerHandler, actionsHandler, adminHandler, sessionService)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(pool, cfg)

	return &App{
		Server:    srv,
		Scheduler: scheduler,
		DB:        pool,
	}, nil
}

// Migrate выполняет все SQL-миграции. Идемпотентна: применённые
// версии пропускаются по schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationTable(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Farm},
		{3, migration003TrustGates},
		{4, migration004ActionLogs},
		{5, migration005Sessions},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}
