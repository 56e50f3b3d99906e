package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimiterAllow(t *testing.T) {
	l := NewIPLimiter(1, 3)
	defer l.Close()

	// burst запросов проходит сразу, следующий упирается в лимит
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "запрос %d должен пройти", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// у другого IP свой bucket
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPLimiterMiddleware(t *testing.T) {
	l := NewIPLimiter(1, 1)
	defer l.Close()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/state", nil)
	req.RemoteAddr = "10.0.0.3:51234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// второй запрос сразу за первым отсекается с кодом rate_limited
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["error"])
}
