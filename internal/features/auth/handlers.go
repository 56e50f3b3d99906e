// Package auth — handlers.go обрабатывает POST /auth/validate.
package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/config"
)

// SessionCookie — имя куки с токеном сессии.
const SessionCookie = "farm_session"

// Handler обрабатывает запросы входа.
type Handler struct {
	service *Service
	cfg     *config.Config
}

// NewHandler создаёт обработчик входа.
func NewHandler(service *Service, cfg *config.Config) *Handler {
	return &Handler{service: service, cfg: cfg}
}

type validateRequest struct {
	InitData string `json:"initData"`
}

// HandleValidate принимает initData из Mini App, проверяет его
// и ставит куку сессии.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		common.WriteError(w, common.ErrAuthFailed)
		return
	}

	p, sess, err := h.service.Validate(r.Context(), req.InitData)
	if err != nil {
		if err == common.ErrUserBlocked && p != nil {
			reason := p.BlockedReason
			if reason == "" {
				reason = "Аккаунт заблокирован"
			}
			common.WriteErrorWith(w, err, map[string]any{"blocked_reason": reason})
			return
		}
		common.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	common.WriteOK(w, map[string]any{
		"player": map[string]any{
			"user_id":      p.UserID,
			"username":     p.Username,
			"first_name":   p.FirstName,
			"last_name":    p.LastName,
			"display_name": p.DisplayName,
			"balance":      p.Balance,
			"fields_owned": p.FieldsOwned,
			"level":        p.Level,
			"xp":           p.XP,
			"is_blocked":   p.IsBlocked,
			"updated_at":   p.UpdatedAt.UTC().Format(time.RFC3339),
		},
	})
}
