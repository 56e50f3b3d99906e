// Package common — errors.go определяет игровые ошибки,
// которые используются во всех модулях бекенда.
// Каждая ошибка несёт стабильный машиночитаемый код для клиента
// и HTTP-статус для транспортного слоя. Сырые тексты исключений
// наружу не уходят никогда.
package common

import "errors"

// GameError — ожидаемая ошибка игрового уровня.
// Code попадает в поле "error" JSON-ответа, Status — в HTTP-статус.
type GameError struct {
	Code   string
	Status int
}

// Error возвращает код ошибки. Человеческий текст рисует клиент.
func (e *GameError) Error() string {
	return e.Code
}

// Ошибки аутентификации.
// Все причины отказа проверки подписи схлопнуты в одну ошибку,
// чтобы по ответам нельзя было прощупать, что именно не сошлось.
var (
	// ErrAuthFailed — подпись/срок/формат initData не прошли проверку
	ErrAuthFailed = &GameError{Code: "auth_failed", Status: 401}
	// ErrReplayDetected — этот initData уже был принят раньше.
	// Единственная различимая ошибка авторизации: клиенту нужно
	// переоткрыть Mini App и получить свежий initData.
	ErrReplayDetected = &GameError{Code: "replay_detected", Status: 401}
	// ErrUnauthorized — нет действующей сессии
	ErrUnauthorized = &GameError{Code: "unauthorized", Status: 401}
	// ErrUserBlocked — игрок заблокирован администратором
	ErrUserBlocked = &GameError{Code: "user_blocked", Status: 403}
)

// Ошибки шлюзов перед действием.
var (
	// ErrBadNonce — nonce отсутствует, протух или не совпал
	ErrBadNonce = &GameError{Code: "bad_or_expired_nonce", Status: 409}
	// ErrRateLimited — превышен лимит действий в скользящем окне
	ErrRateLimited = &GameError{Code: "rate_limited", Status: 429}
)

// Ошибки игровых правил. Ожидаемые, не фатальные,
// уходят клиенту как есть и управляют состоянием UI.
var (
	ErrPlayerNotFound   = &GameError{Code: "player_not_found", Status: 404}
	ErrNotEnoughMoney   = &GameError{Code: "not_enough_money", Status: 400}
	ErrMaxFields        = &GameError{Code: "max_fields", Status: 400}
	ErrNoFieldAccess    = &GameError{Code: "no_field_access", Status: 403}
	ErrPlotBusy         = &GameError{Code: "plot_busy", Status: 400}
	ErrNotReady         = &GameError{Code: "not_ready", Status: 400}
	ErrNothingToHarvest = &GameError{Code: "nothing_to_harvest", Status: 400}
	ErrNoSeeds          = &GameError{Code: "no_seeds", Status: 400}
	ErrNoItems          = &GameError{Code: "no_items", Status: 400}
	ErrUnknownItem      = &GameError{Code: "unknown_item", Status: 400}
	ErrUnknownSeed      = &GameError{Code: "unknown_seed", Status: 400}
	ErrCannotSellItem   = &GameError{Code: "cannot_sell_item", Status: 400}
	ErrBadIndex         = &GameError{Code: "bad_index", Status: 400}
)

// Ошибки админки.
var (
	// ErrWrongPassword — неверный пароль администратора
	ErrWrongPassword = &GameError{Code: "wrong_password", Status: 401}
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = &GameError{Code: "too_many_attempts", Status: 429}
)

// ErrBadRequest — тело запроса не разобралось или не хватает
// обязательного поля. Не путать с игровыми отказами: запрос
// отвергнут до того, как до правил вообще дошло.
var ErrBadRequest = &GameError{Code: "bad_request", Status: 400}

// ErrServerFault — сбой хранилища или другая внутренняя ошибка.
// Отдаётся вместо любой неожиданной ошибки, чтобы клиент отличал
// временный сбой от окончательного отказа по игровым правилам.
var ErrServerFault = &GameError{Code: "server_error", Status: 500}

// AsGameError возвращает GameError из цепочки ошибок, если он там есть.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
