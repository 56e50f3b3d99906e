// Package actions — handlers.go обрабатывает POST /api/action/*.
// Декодирование запросов строгое и падает закрыто: лишние, пропущенные
// и кривотипные поля отсекаются ещё до входа в движок.
package actions

import (
	"encoding/json"
	"net/http"

	"serotonyl.ru/farm-webapp/internal/common"
)

// NonceHeader — заголовок с предъявляемым токеном действия.
const NonceHeader = "X-Action-Nonce"

// Handler обрабатывает запросы действий.
type Handler struct {
	engine *Engine
}

// NewHandler создаёт обработчик действий.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// decodeStrict разбирает тело запроса, отвергая неизвестные поля.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeResult отправляет итог действия: {ok, state, ...extra}.
func writeResult(w http.ResponseWriter, res *Result) {
	extra := map[string]any{"state": res.State}
	for k, v := range res.Extra {
		extra[k] = v
	}
	common.WriteOK(w, extra)
}

func (h *Handler) identity(r *http.Request) (int64, string, error) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		return 0, "", common.ErrUnauthorized
	}
	return userID, r.Header.Get(NonceHeader), nil
}

// HandleBuyField — POST /api/action/buy_field.
func (h *Handler) HandleBuyField(w http.ResponseWriter, r *http.Request) {
	userID, presented, err := h.identity(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	res, err := h.engine.BuyField(r.Context(), userID, presented)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeResult(w, res)
}

// HandleShopBuy — POST /api/action/shop/buy.
func (h *Handler) HandleShopBuy(w http.ResponseWriter, r *http.Request) {
	userID, presented, err := h.identity(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req shopBuyRequest
	if err := decodeStrict(r, &req); err != nil || req.ItemKey == nil {
		common.WriteError(w, common.ErrUnknownItem)
		return
	}

	res, err := h.engine.ShopBuy(r.Context(), userID, presented, *req.ItemKey)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeResult(w, res)
}

// HandlePlant — POST /api/action/plant.
func (h *Handler) HandlePlant(w http.ResponseWriter, r *http.Request) {
	userID, presented, err := h.identity(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req plantRequest
	if err := decodeStrict(r, &req); err != nil || req.Idx == nil {
		common.WriteError(w, common.ErrBadIndex)
		return
	}
	if req.ItemKey == nil {
		common.WriteError(w, common.ErrUnknownSeed)
		return
	}

	res, err := h.engine.Plant(r.Context(), userID, presented, *req.Idx, *req.ItemKey)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeResult(w, res)
}

// HandleHarvest — POST /api/action/harvest.
func (h *Handler) HandleHarvest(w http.ResponseWriter, r *http.Request) {
	userID, presented, err := h.identity(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req harvestRequest
	if err := decodeStrict(r, &req); err != nil || req.Idx == nil {
		common.WriteError(w, common.ErrBadIndex)
		return
	}

	res, err := h.engine.Harvest(r.Context(), userID, presented, *req.Idx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeResult(w, res)
}

// HandleSell — POST /api/action/sell.
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	userID, presented, err := h.identity(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req sellRequest
	if err := decodeStrict(r, &req); err != nil || req.ItemKey == nil {
		common.WriteError(w, common.ErrCannotSellItem)
		return
	}

	res, err := h.engine.Sell(r.Context(), userID, presented, *req.ItemKey)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeResult(w, res)
}
