// Package player — handlers.go обрабатывает GET /api/state и GET /api/inventory.
package player

import (
	"net/http"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Handler обрабатывает запросы чтения состояния.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик состояния.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleState отдаёт полное состояние игрока со свежим токеном действия.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	state, err := h.service.BuildState(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]any{"state": state})
}

// HandleInventory отдаёт инвентарь игрока.
func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	items, err := h.service.Inventory(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]any{"inventory": items})
}
