package auth_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/farm-webapp/internal/app"
	"serotonyl.ru/farm-webapp/internal/common"
	"serotonyl.ru/farm-webapp/internal/features/auth"
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

// Повторная сдача того же initData упирается в UNIQUE по отпечатку.
func TestConsumeStampReplay(t *testing.T) {
	pool := testPool(t)
	repo := auth.NewRepository(pool)
	ctx := context.Background()

	sig := fmt.Sprintf("sig-%d", time.Now().UnixNano())
	stamp := auth.StampHash(sig, 1700000000)

	require.NoError(t, repo.ConsumeStamp(ctx, stamp, 1700000000))

	err := repo.ConsumeStamp(ctx, stamp, 1700000000)
	assert.ErrorIs(t, err, common.ErrReplayDetected)

	// другой отпечаток проходит как обычно
	other := auth.StampHash(sig, 1700000001)
	require.NoError(t, repo.ConsumeStamp(ctx, other, 1700000001))
}
