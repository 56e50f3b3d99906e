package nonce_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/farm-webapp/internal/app"
	"serotonyl.ru/farm-webapp/internal/features/nonce"
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

func seedPlayer(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	userID := time.Now().UnixNano()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO players (user_id, display_name, balance, fields_owned)
		VALUES ($1, 'Тестовый', 100, 2)
	`, userID)
	require.NoError(t, err)
	return userID
}

// Токен одноразовый: успешная проверка ротирует значение,
// прежнее больше никого не авторизует.
func TestVerifyAndRotateSingleUse(t *testing.T) {
	pool := testPool(t)
	repo := nonce.NewRepository(pool)
	ctx := context.Background()
	userID := seedPlayer(t, pool)

	issued, err := repo.Issue(ctx, userID, time.Minute)
	require.NoError(t, err)

	fresh, ok, err := repo.VerifyAndRotate(ctx, userID, issued.Value, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, issued.Value, fresh.Value)

	// прежнее значение второй раз не проходит
	_, ok, err = repo.VerifyAndRotate(ctx, userID, issued.Value, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// ротированное значение действует
	_, ok, err = repo.VerifyAndRotate(ctx, userID, fresh.Value, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

// Протухший токен не авторизует, даже с верным значением.
func TestVerifyAndRotateExpired(t *testing.T) {
	pool := testPool(t)
	repo := nonce.NewRepository(pool)
	ctx := context.Background()
	userID := seedPlayer(t, pool)

	issued, err := repo.Issue(ctx, userID, -time.Second)
	require.NoError(t, err)

	_, ok, err := repo.VerifyAndRotate(ctx, userID, issued.Value, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Конкурентные предъявления одного значения: ровно одно побеждает.
// Второй UPDATE ждёт блокировку строки и перечитывает уже
// ротированное значение.
func TestVerifyAndRotateConcurrent(t *testing.T) {
	pool := testPool(t)
	repo := nonce.NewRepository(pool)
	ctx := context.Background()
	userID := seedPlayer(t, pool)

	issued, err := repo.Issue(ctx, userID, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.VerifyAndRotate(ctx, userID, issued.Value, time.Minute)
			if err == nil && ok {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
}
