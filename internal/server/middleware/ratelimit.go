// Package middleware — ratelimit.go троттлит запросы по IP.
//
// Это первая, грубая линия обороны в памяти процесса (token bucket).
// Точный лимит по игроку и виду действия живёт в движке действий
// и считается по БД — он переживает рестарты и виден всем воркерам.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"serotonyl.ru/farm-webapp/internal/common"
)

// IPLimiter выдаёт каждому IP свой token bucket.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	rps      rate.Limit
	burst    int

	stopOnce sync.Once
	stopCh   chan struct{}
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter создаёт лимитер: rps запросов в секунду, запас burst.
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	l := &IPLimiter{
		limiters: make(map[string]*ipEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (l *IPLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow сообщает, пропускать ли запрос с этого IP.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Middleware оборачивает обработчик троттлингом по IP.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.Allow(ip) {
			common.WriteError(w, common.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, entry := range l.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}
