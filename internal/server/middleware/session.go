// Package middleware — session.go проверяет куку сессии игрока.
// После успешного Resolve доверенный user_id лежит в контексте запроса;
// подпись initData на обычных запросах не перепроверяется.
package middleware

import (
	"net/http"

	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/features/auth"
	"serotonyl.ru/farm-webapp/internal/features/session"
)

// RequireSession пускает дальше только запросы с живой сессией.
func RequireSession(sessions *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				common.WriteError(w, common.ErrUnauthorized)
				return
			}

			userID, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				common.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
		})
	}
}
