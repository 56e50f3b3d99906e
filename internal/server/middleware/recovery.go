// Package middleware — recovery.go перехватывает паники обработчиков.
// Паника одного запроса не должна ронять процесс: клиент получает
// server_error, стек уходит в лог.
package middleware

import (
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Recovery возвращает обработчик с перехватом паник.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(log.Fields{
					"panic": rec,
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Паника в обработчике")
				common.WriteError(w, common.ErrServerFault)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
