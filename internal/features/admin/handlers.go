// Package admin — handlers.go обрабатывает /admin/*.
// Все ручки, кроме входа, требуют токен в заголовке X-Admin-Token.
package admin

import (
	"encoding/json"
	"net"
	"net/http"

	"serotonyl.ru/farm-webapp/internal/common"
)

// AdminTokenHeader — заголовок с токеном админ-сессии.
const AdminTokenHeader = "X-Admin-Token"

// Handler обрабатывает запросы админ-панели.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) authorize(r *http.Request) error {
	return h.service.Authorize(r.Context(), r.Header.Get(AdminTokenHeader))
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin — POST /admin/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		common.WriteError(w, common.ErrBadRequest)
		return
	}

	sess, err := h.service.Login(r.Context(), remoteAddr(r), req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]any{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

// HandleListPlayers — GET /admin/players.
func (h *Handler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		common.WriteError(w, err)
		return
	}

	players, err := h.service.ListPlayers(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]any{"players": players})
}

type blockRequest struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

// HandleBlock — POST /admin/block.
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		common.WriteError(w, err)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		common.WriteError(w, common.ErrBadRequest)
		return
	}

	if err := h.service.Block(r.Context(), req.UserID, req.Reason); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}

// HandleUnblock — POST /admin/unblock.
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		common.WriteError(w, err)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		common.WriteError(w, common.ErrBadRequest)
		return
	}

	if err := h.service.Unblock(r.Context(), req.UserID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}
