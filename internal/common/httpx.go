// Package common — httpx.go: общий JSON-контракт ответов.
// Любой ответ — {ok: true, ...} либо {ok: false, error: <код>}.
// Неожиданные ошибки наружу уходят как server_error и логируются
// как сбои; игровые ошибки не логируются вовсе — это нормальные ответы.
package common

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID кладёт доверенный user_id в контекст запроса.
// Заполняется только middleware сессии после успешного Resolve.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext достаёт доверенный user_id из контекста.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WriteJSON сериализует v и пишет его с заданным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Ошибка записи JSON-ответа")
	}
}

// WriteOK пишет успешный ответ {ok: true} с дополнительными полями.
func WriteOK(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, http.StatusOK, body)
}

// WriteError пишет ответ-отказ по ошибке.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorWith(w, err, nil)
}

// WriteErrorWith пишет ответ-отказ с дополнительными полями
// (например, blocked_reason при user_blocked).
func WriteErrorWith(w http.ResponseWriter, err error, extra map[string]any) {
	ge, ok := AsGameError(err)
	if !ok {
		// сбой хранилища или другая неожиданность: код наружу,
		// подробности — только в лог
		log.WithError(err).Error("Внутренняя ошибка запроса")
		ge = ErrServerFault
	}
	body := map[string]any{"ok": false, "error": ge.Code}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, ge.Status, body)
}
