package actions_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/farm-webapp/internal/app"
	"serotonyl.ru/farm-webapp/internal/catalog"
	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/config"
	"serotonyl.ru/farm-webapp/internal/features/actions"
	"serotonyl.ru/farm-webapp/internal/features/crops"
	"serotonyl.ru/farm-webapp/internal/features/nonce"
	"serotonyl.ru/farm-webapp/internal/features/player"
)

// Тесты ниже ходят в настоящий PostgreSQL и запускаются только
// при заданном FARM_TEST_DATABASE_URL.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("FARM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FARM_TEST_DATABASE_URL не задан, тест с PostgreSQL пропущен")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, app.Migrate(context.Background(), pool))
	return pool
}

func testConfig() *config.Config {
	return &config.Config{
		FieldMax:   16,
		FieldCost:  5,
		NonceTTL:   time.Minute,
		RateWindow: 5 * time.Second,
		// потолки с запасом: лимитер проверяется отдельным тестом
		RateBuyFieldMax: 100,
		RateShopBuyMax:  100,
		RatePlantMax:    100,
		RateHarvestMax:  100,
		RateSellMax:     100,
	}
}

type testRig struct {
	pool    *pgxpool.Pool
	engine  *actions.Engine
	nonces  *nonce.Service
	players *player.Service
}

func newRig(t *testing.T, cfg *config.Config) *testRig {
	t.Helper()
	pool := testPool(t)

	cat, err := catalog.Load("")
	require.NoError(t, err)
	clock := crops.NewClock(cat)
	nonces := nonce.NewService(nonce.NewRepository(pool), cfg.NonceTTL)
	players := player.NewService(player.NewRepository(pool), nonces, clock)
	engine := actions.NewEngine(actions.NewRepository(pool), players, nonces, clock, cat, cfg)

	return &testRig{pool: pool, engine: engine, nonces: nonces, players: players}
}

func (rig *testRig) seedPlayer(t *testing.T, balance, fields int) int64 {
	t.Helper()
	userID := time.Now().UnixNano()
	_, err := rig.pool.Exec(context.Background(), `
		INSERT INTO players (user_id, display_name, balance, fields_owned)
		VALUES ($1, 'Тестовый', $2, $3)
	`, userID, balance, fields)
	require.NoError(t, err)
	return userID
}

func (rig *testRig) freshNonce(t *testing.T, userID int64) string {
	t.Helper()
	n, err := rig.nonces.Issue(context.Background(), userID)
	require.NoError(t, err)
	return n.Value
}

// Бюджета хватает ровно на K покупок из N попыток: лишние
// отклоняются not_enough_money, баланс не уходит в минус.
func TestBuyFieldBudget(t *testing.T) {
	rig := newRig(t, testConfig())
	ctx := context.Background()
	userID := rig.seedPlayer(t, 12, 2) // хватает на 2 грядки по 5

	var successes int
	var last *player.State
	for i := 0; i < 5; i++ {
		res, err := rig.engine.BuyField(ctx, userID, rig.freshNonce(t, userID))
		if err == nil {
			successes++
			last = res.State
			continue
		}
		assert.ErrorIs(t, err, common.ErrNotEnoughMoney)
	}

	require.Equal(t, 2, successes)
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Balance)
	assert.Equal(t, 4, last.FieldsOwned)
}

// Конкурентные покупки: сколько бы горутин ни пыталось, баланс
// не уходит в минус и каждая купленная грядка оплачена.
func TestBuyFieldConcurrent(t *testing.T) {
	rig := newRig(t, testConfig())
	ctx := context.Background()
	userID := rig.seedPlayer(t, 12, 2)

	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// каждая горутина берёт свой токен; перевыпуск гасит
			// чужие, поэтому часть попыток падает на шлюзе токена
			n, err := rig.nonces.Issue(ctx, userID)
			if err != nil {
				return
			}
			_, err = rig.engine.BuyField(ctx, userID, n.Value)
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case errors.Is(err, common.ErrBadNonce), errors.Is(err, common.ErrNotEnoughMoney):
				// ожидаемые отказы
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := rig.players.Repo().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.LessOrEqual(t, successes, int64(2))
	assert.Equal(t, 12-5*int(successes), p.Balance)
	assert.Equal(t, 2+int(successes), p.FieldsOwned)
	assert.GreaterOrEqual(t, p.Balance, 0)
}

// Четвёртая попытка одного вида в окне отсекается лимитером,
// независимо от исхода самих действий.
func TestBuyFieldRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateBuyFieldMax = 3
	rig := newRig(t, cfg)
	ctx := context.Background()
	userID := rig.seedPlayer(t, 1000, 2)

	for i := 0; i < 3; i++ {
		_, err := rig.engine.BuyField(ctx, userID, rig.freshNonce(t, userID))
		require.NoError(t, err)
	}

	_, err := rig.engine.BuyField(ctx, userID, rig.freshNonce(t, userID))
	assert.ErrorIs(t, err, common.ErrRateLimited)
}

// Полный цикл: купить семена, посадить, рано собрать нельзя,
// после созревания урожай зачисляется ровно один раз и грядка
// освобождается.
func TestPlantHarvestLifecycle(t *testing.T) {
	rig := newRig(t, testConfig())
	ctx := context.Background()
	userID := rig.seedPlayer(t, 100, 2)

	_, err := rig.engine.ShopBuy(ctx, userID, rig.freshNonce(t, userID), "seed_wheat")
	require.NoError(t, err)

	_, err = rig.engine.Plant(ctx, userID, rig.freshNonce(t, userID), 0, "seed_wheat")
	require.NoError(t, err)

	// сразу после посадки пшеница ещё не готова
	_, err = rig.engine.Harvest(ctx, userID, rig.freshNonce(t, userID), 0)
	assert.ErrorIs(t, err, common.ErrNotReady)

	// сдвигаем посадку в прошлое за срок созревания пшеницы
	_, err = rig.pool.Exec(ctx, `
		UPDATE plots SET planted_at = planted_at - INTERVAL '121 seconds'
		WHERE user_id = $1 AND idx = 0
	`, userID)
	require.NoError(t, err)

	res, err := rig.engine.Harvest(ctx, userID, rig.freshNonce(t, userID), 0)
	require.NoError(t, err)
	require.Contains(t, res.Extra, "harvested")

	items, err := rig.players.Inventory(ctx, userID)
	require.NoError(t, err)
	qty := 0
	for _, it := range items {
		if it.ItemKey == "crop_wheat" {
			qty = it.Qty
		}
	}
	assert.Equal(t, 1, qty)

	// грядка свободна: повторный сбор не находит урожая
	_, err = rig.engine.Harvest(ctx, userID, rig.freshNonce(t, userID), 0)
	assert.ErrorIs(t, err, common.ErrNothingToHarvest)
}

// Продажа списывает ровно по одной единице; без товара — отказ
// без изменения баланса.
func TestSellExhausted(t *testing.T) {
	rig := newRig(t, testConfig())
	ctx := context.Background()
	userID := rig.seedPlayer(t, 50, 2)

	_, err := rig.pool.Exec(ctx, `
		INSERT INTO inventories (user_id, item_key, qty) VALUES ($1, 'crop_wheat', 2)
	`, userID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := rig.engine.Sell(ctx, userID, rig.freshNonce(t, userID), "crop_wheat")
		require.NoError(t, err)
	}

	_, err = rig.engine.Sell(ctx, userID, rig.freshNonce(t, userID), "crop_wheat")
	assert.ErrorIs(t, err, common.ErrNoItems)

	p, err := rig.players.Repo().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50+2*10, p.Balance) // пшеница продаётся по 10
}

// Мусорный токен не проходит шлюз и ничего не меняет.
func TestActionBadNonce(t *testing.T) {
	rig := newRig(t, testConfig())
	ctx := context.Background()
	userID := rig.seedPlayer(t, 100, 2)

	_, err := rig.engine.BuyField(ctx, userID, "0badc0ffee")
	assert.ErrorIs(t, err, common.ErrBadNonce)

	p, err := rig.players.Repo().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Balance)
	assert.Equal(t, 2, p.FieldsOwned)
}
