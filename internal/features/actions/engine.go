// Package actions — engine.go: транзакционное ядро игровых действий.
//
// Каждое действие проходит одинаковый путь:
//
//	токен действия → лимитер → блокировка → транзакция БД
//
// Внутри транзакции строка игрока (и все задетые строки инвентаря
// и грядок) берутся FOR UPDATE: два действия одного игрока строго
// последовательны, второе ждёт коммита или отката первого. Действия
// разных игроков не конкурируют вовсе. Блокировка пессимистичная
// намеренно: конкуренция на игрока низкая, а потерянное обновление
// баланса недопустимо в принципе.
package actions

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/catalog"
	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/features/crops"
	"serotonyl.ru/farm-webapp/internal/features/nonce"
	"serotonyl.ru/farm-webapp/internal/features/player"
)

// Engine применяет игровые действия.
type Engine struct {
	repo    *Repository
	players *player.Service
	nonces  *nonce.Service
	clock   *crops.Clock
	catalog *catalog.Catalog
	cfg     *config.Config
}

// NewEngine создаёт движок действий.
func NewEngine(repo *Repository, players *player.Service, nonces *nonce.Service, clock *crops.Clock, cat *catalog.Catalog, cfg *config.Config) *Engine {
	return &Engine{
		repo:    repo,
		players: players,
		nonces:  nonces,
		clock:   clock,
		catalog: cat,
		cfg:     cfg,
	}
}

// Result — итог успешного действия: свежий снимок состояния
// плюс поля, специфичные для действия.
type Result struct {
	State *player.State
	Extra map[string]any
}

// effect — тело конкретного действия. Работает со строкой игрока,
// уже взятой FOR UPDATE; мутирует p и выполняет свои запросы в tx.
// Возвращает поля ответа и детализацию для журнала.
type effect func(ctx context.Context, tx pgx.Tx, p *player.Player) (extra map[string]any, detail string, err error)

// run проводит действие через шлюзы и транзакцию.
func (e *Engine) run(ctx context.Context, userID int64, presentedNonce, action string, fn effect) (*Result, error) {
	// === Шлюз 1: токен действия ===
	// Успешная проверка сразу ротирует токен: то же значение
	// не авторизует второй запрос, даже конкурентный.
	freshNonce, err := e.nonces.Consume(ctx, userID, presentedNonce)
	if err != nil {
		return nil, err
	}

	// === Шлюз 2: лимитер ===
	// Допуск и строка журнала — один атомарный INSERT.
	logID, err := e.repo.AdmitAndLog(ctx, userID, action, e.cfg.RateWindow, e.cfg.RateLimit(action))
	if err != nil {
		return nil, err
	}

	// === Транзакция действия ===
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Откат — на любом пути, кроме успешного коммита. В том числе
	// при отмене контекста: от прерванного запроса не должно
	// оставаться недокоммиченных дельт.
	defer tx.Rollback(ctx)

	p, err := e.repo.LockPlayer(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	// === Шлюз 3: блокировка игрока ===
	// Проверяется по строке под блокировкой, а не по кэшу:
	// бан, поставленный секунду назад, уже действует.
	if p.IsBlocked {
		return nil, common.ErrUserBlocked
	}

	oldBalance := p.Balance

	extra, detail, err := fn(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	if err := e.repo.UpdatePlayer(ctx, tx, userID, p.Balance, p.FieldsOwned); err != nil {
		return nil, err
	}
	if err := e.repo.MarkOutcome(ctx, tx, logID, OutcomeOK, detail, p.Balance-oldBalance, oldBalance, p.Balance); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"action":  action,
		"detail":  detail,
		"balance": p.Balance,
	}).Debug("Действие применено")

	// Снимок после коммита: полная строка игрока перечитывается,
	// стадии культур пересчитаны часами роста, в ответе — токен,
	// ротированный на входе.
	fresh, err := e.players.Repo().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	state, err := e.players.StateWithNonce(ctx, fresh, freshNonce)
	if err != nil {
		return nil, err
	}
	return &Result{State: state, Extra: extra}, nil
}

// BuyField покупает игроку новую грядку.
func (e *Engine) BuyField(ctx context.Context, userID int64, presentedNonce string) (*Result, error) {
	return e.run(ctx, userID, presentedNonce, ActionBuyField,
		func(ctx context.Context, tx pgx.Tx, p *player.Player) (map[string]any, string, error) {
			if p.FieldsOwned >= e.cfg.FieldMax {
				return nil, "", common.ErrMaxFields
			}
			if p.Balance < e.cfg.FieldCost {
				return nil, "", common.ErrNotEnoughMoney
			}
			p.Balance -= e.cfg.FieldCost
			p.FieldsOwned++
			return map[string]any{"bought_index": p.FieldsOwned - 1}, "", nil
		})
}

// ShopBuy покупает семена в магазине.
func (e *Engine) ShopBuy(ctx context.Context, userID int64, presentedNonce, itemKey string) (*Result, error) {
	// Предвалидация по каталогу — до транзакции, закрыто по умолчанию
	_, crop, ok := e.catalog.CropBySeed(itemKey)
	if !ok {
		return nil, common.ErrUnknownItem
	}

	return e.run(ctx, userID, presentedNonce, ActionShopBuy,
		func(ctx context.Context, tx pgx.Tx, p *player.Player) (map[string]any, string, error) {
			if p.Balance < crop.SeedPrice {
				return nil, "", common.ErrNotEnoughMoney
			}
			p.Balance -= crop.SeedPrice
			if err := e.repo.AddInventory(ctx, tx, userID, itemKey, +1); err != nil {
				return nil, "", err
			}
			extra := map[string]any{
				"bought": map[string]any{"item_key": itemKey, "title": crop.Title, "qty": 1},
			}
			return extra, itemKey, nil
		})
}

// Plant сажает семена на грядку.
func (e *Engine) Plant(ctx context.Context, userID int64, presentedNonce string, idx int, itemKey string) (*Result, error) {
	cropKey, _, ok := e.catalog.CropBySeed(itemKey)
	if !ok {
		return nil, common.ErrUnknownSeed
	}

	return e.run(ctx, userID, presentedNonce, ActionPlant,
		func(ctx context.Context, tx pgx.Tx, p *player.Player) (map[string]any, string, error) {
			if idx < 0 || idx >= min(p.FieldsOwned, e.cfg.FieldMax) {
				return nil, "", common.ErrNoFieldAccess
			}

			qty, err := e.repo.LockInventory(ctx, tx, userID, itemKey)
			if err != nil {
				return nil, "", err
			}
			if qty <= 0 {
				return nil, "", common.ErrNoSeeds
			}

			plot, err := e.repo.LockPlot(ctx, tx, userID, idx)
			if err != nil {
				return nil, "", err
			}
			if plot != nil && plot.CropKey != "" {
				return nil, "", common.ErrPlotBusy
			}

			if err := e.repo.AddInventory(ctx, tx, userID, itemKey, -1); err != nil {
				return nil, "", err
			}
			if err := e.repo.PlantPlot(ctx, tx, userID, idx, cropKey, time.Now().UTC()); err != nil {
				return nil, "", err
			}

			extra := map[string]any{
				"planted": map[string]any{"idx": idx, "crop_key": cropKey},
			}
			return extra, cropKey, nil
		})
}

// Harvest собирает готовый урожай с грядки.
func (e *Engine) Harvest(ctx context.Context, userID int64, presentedNonce string, idx int) (*Result, error) {
	return e.run(ctx, userID, presentedNonce, ActionHarvest,
		func(ctx context.Context, tx pgx.Tx, p *player.Player) (map[string]any, string, error) {
			if idx < 0 || idx >= min(p.FieldsOwned, e.cfg.FieldMax) {
				return nil, "", common.ErrNoFieldAccess
			}

			plot, err := e.repo.LockPlot(ctx, tx, userID, idx)
			if err != nil {
				return nil, "", err
			}
			if plot == nil || plot.CropKey == "" || plot.PlantedAt == nil {
				return nil, "", common.ErrNothingToHarvest
			}

			// Готовность — ровно стадия ready по часам роста,
			// никакого собственного сравнения таймстампов
			info, err := e.clock.Info(plot.CropKey, *plot.PlantedAt, time.Now().UTC())
			if err != nil {
				return nil, "", err
			}
			if info.Stage != crops.StageReady {
				return nil, "", common.ErrNotReady
			}

			cropItem := catalog.CropItemKey(plot.CropKey)
			if err := e.repo.AddInventory(ctx, tx, userID, cropItem, +1); err != nil {
				return nil, "", err
			}
			if err := e.repo.ClearPlot(ctx, tx, userID, idx); err != nil {
				return nil, "", err
			}

			extra := map[string]any{
				"harvested": map[string]any{"idx": idx, "item_key": cropItem, "qty": 1},
			}
			return extra, plot.CropKey, nil
		})
}

// Sell продаёт единицу урожая по цене каталога.
func (e *Engine) Sell(ctx context.Context, userID int64, presentedNonce, itemKey string) (*Result, error) {
	price, ok := e.catalog.SellPrice(itemKey)
	if !ok {
		return nil, common.ErrCannotSellItem
	}

	return e.run(ctx, userID, presentedNonce, ActionSell,
		func(ctx context.Context, tx pgx.Tx, p *player.Player) (map[string]any, string, error) {
			qty, err := e.repo.LockInventory(ctx, tx, userID, itemKey)
			if err != nil {
				return nil, "", err
			}
			if qty <= 0 {
				return nil, "", common.ErrNoItems
			}

			if err := e.repo.AddInventory(ctx, tx, userID, itemKey, -1); err != nil {
				return nil, "", err
			}
			p.Balance += price

			extra := map[string]any{
				"sold": map[string]any{"item_key": itemKey, "price": price, "qty": 1},
			}
			return extra, itemKey, nil
		})
}
