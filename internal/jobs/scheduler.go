// Package jobs управляет фоновыми задачами.
// Единственная задача — janitor: ежечасная чистка протухших
// replay-штампов, токенов, сессий и старых строк журнала действий.
// На игровую логику janitor не влияет: всё перечисленное к моменту
// чистки уже не читается.
package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/config"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron *cron.Cron
	db   *pgxpool.Pool
	cfg  *config.Config
}

// NewScheduler создаёт планировщик задач.
func NewScheduler(db *pgxpool.Pool, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
		cfg:  cfg,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.AddFunc("@hourly", func() {
		s.runJanitor(ctx)
	})
	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик, дожидаясь текущих задач.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Info("Планировщик задач остановлен")
}

// runJanitor чистит отжившие строки.
func (s *Scheduler) runJanitor(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	// Штампы старше двойного TTL уже не могут понадобиться:
	// initData с таким auth_date и без штампа не пройдёт по сроку
	stampCutoff := 2 * s.cfg.AuthTTL
	jobs := []struct {
		name  string
		query string
		arg   any
	}{
		{"replay_stamps", `DELETE FROM replay_stamps WHERE created_at < NOW() - ($1 * INTERVAL '1 second')`, stampCutoff.Seconds()},
		{"action_nonces", `DELETE FROM action_nonces WHERE expires_at < NOW()`, nil},
		{"sessions", `DELETE FROM sessions WHERE expires_at < NOW()`, nil},
		{"admin_sessions", `DELETE FROM admin_sessions WHERE expires_at < NOW()`, nil},
		{"admin_login_attempts", `DELETE FROM admin_login_attempts WHERE attempted_at < NOW() - INTERVAL '7 days'`, nil},
		{"action_logs", `DELETE FROM action_logs WHERE created_at < NOW() - ($1 * INTERVAL '1 second')`, s.cfg.ActionLogRetention.Seconds()},
	}

	for _, job := range jobs {
		var err error
		var tag int64
		if job.arg != nil {
			res, execErr := s.db.Exec(ctx, job.query, job.arg)
			err, tag = execErr, res.RowsAffected()
		} else {
			res, execErr := s.db.Exec(ctx, job.query)
			err, tag = execErr, res.RowsAffected()
		}
		if err != nil {
			log.WithError(err).Errorf("Janitor: ошибка чистки %s", job.name)
			continue
		}
		if tag > 0 {
			log.WithFields(log.Fields{"table": job.name, "rows": tag}).Debug("Janitor: удалены строки")
		}
	}
}
