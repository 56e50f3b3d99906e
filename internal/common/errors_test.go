package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsGameError(t *testing.T) {
	t.Run("голая игровая ошибка", func(t *testing.T) {
		ge, ok := AsGameError(ErrPlotBusy)
		require.True(t, ok)
		assert.Equal(t, "plot_busy", ge.Code)
		assert.Equal(t, 400, ge.Status)
	})

	t.Run("обёрнутая игровая ошибка", func(t *testing.T) {
		wrapped := fmt.Errorf("действие harvest: %w", ErrNotReady)
		ge, ok := AsGameError(wrapped)
		require.True(t, ok)
		assert.Equal(t, "not_ready", ge.Code)
	})

	t.Run("посторонняя ошибка", func(t *testing.T) {
		_, ok := AsGameError(errors.New("connection refused"))
		assert.False(t, ok)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("игровая ошибка уходит кодом и статусом", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, ErrRateLimited)

		assert.Equal(t, 429, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "rate_limited", body["error"])
	})

	t.Run("неожиданная ошибка схлопывается в server_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: deadlock detected"))

		assert.Equal(t, 500, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "server_error", body["error"])
		// текст исходной ошибки не должен утечь клиенту
		assert.NotContains(t, rec.Body.String(), "deadlock")
	})

	t.Run("дополнительные поля отказа", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteErrorWith(rec, ErrUserBlocked, map[string]any{"blocked_reason": "спам"})

		assert.Equal(t, 403, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "user_blocked", body["error"])
		assert.Equal(t, "спам", body["blocked_reason"])
	})
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteOK(rec, map[string]any{"bought_index": 3})

	assert.Equal(t, 200, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(3), body["bought_index"])
}

func TestUserIDContext(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/state", nil)

	_, ok := UserIDFromContext(r.Context())
	assert.False(t, ok)

	ctx := WithUserID(r.Context(), 42)
	id, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}
