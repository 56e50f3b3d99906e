// Package server собирает HTTP-транспорт: маршруты, middleware
// и жизненный цикл http.Server.
package server

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/features/actions"
	"serotonyl.ru/farm-webapp/internal/features/admin"
	"serotonyl.ru/farm-webapp/internal/features/auth"
	"serotonyl.ru/farm-webapp/internal/features/player"
	"serotonyl.ru/farm-webapp/internal/features/session"
	"serotonyl.ru/farm-webapp/internal/server/middleware"
)

// Server — HTTP-сервер игры.
type Server struct {
	httpServer *http.Server
	limiter    *middleware.IPLimiter
	cfg        *config.Config
}

// New собирает сервер из обработчиков и middleware.
func New(
	cfg *config.Config,
	authHandler *auth.Handler,
	playerHandler *player.Handler,
	actionsHandler *actions.Handler,
	adminHandler *admin.Handler,
	sessions *session.Service,
) *Server {
	limiter := middleware.NewIPLimiter(cfg.HTTPRatePerSec, cfg.HTTPRateBurst)
	requireSession := middleware.RequireSession(sessions)

	mux := http.NewServeMux()

	// Вход: подпись initData + анти-replay, сессии ещё нет
	mux.Handle("POST /auth/validate", http.HandlerFunc(authHandler.HandleValidate))

	// Чтения состояния — только с сессией
	mux.Handle("GET /api/state", requireSession(http.HandlerFunc(playerHandler.HandleState)))
	mux.Handle("GET /api/inventory", requireSession(http.HandlerFunc(playerHandler.HandleInventory)))

	// Мутирующие действия — сессия, дальше токен и лимитер в движке
	mux.Handle("POST /api/action/buy_field", requireSession(http.HandlerFunc(actionsHandler.HandleBuyField)))
	mux.Handle("POST /api/action/shop/buy", requireSession(http.HandlerFunc(actionsHandler.HandleShopBuy)))
	mux.Handle("POST /api/action/plant", requireSession(http.HandlerFunc(actionsHandler.HandlePlant)))
	mux.Handle("POST /api/action/harvest", requireSession(http.HandlerFunc(actionsHandler.HandleHarvest)))
	mux.Handle("POST /api/action/sell", requireSession(http.HandlerFunc(actionsHandler.HandleSell)))

	// Админка: свой токен, сессия игрока не нужна
	mux.Handle("POST /admin/login", http.HandlerFunc(adminHandler.HandleLogin))
	mux.Handle("GET /admin/players", http.HandlerFunc(adminHandler.HandleListPlayers))
	mux.Handle("POST /admin/block", http.HandlerFunc(adminHandler.HandleBlock))
	mux.Handle("POST /admin/unblock", http.HandlerFunc(adminHandler.HandleUnblock))

	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = middleware.Logger(handler)
	handler = middleware.Recovery(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: handler,
		},
		limiter: limiter,
		cfg:     cfg,
	}
}

// Start запускает сервер и блокируется до его остановки.
func (s *Server) Start() error {
	log.Infof("HTTP-сервер слушает %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown мягко останавливает сервер: новые соединения не принимаются,
// начатые запросы дорабатывают до таймаута.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.httpServer.Shutdown(ctx)
}
