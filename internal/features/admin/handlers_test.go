package admin

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Кривое тело запроса — это bad_request, а не wrong_password:
// до проверки пароля дело не дошло, и попытка входа не пишется.
func TestHandleLoginBadBody(t *testing.T) {
	h := NewHandler(NewService(nil, nil, nil))

	cases := []struct {
		name string
		body string
	}{
		{"мусор вместо JSON", `not json`},
		{"пустое тело", ``},
		{"пустой пароль", `{"password": ""}`},
		{"нет поля password", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/admin/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, r)

			assert.Equal(t, 400, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "bad_request", body["error"])
		})
	}
}

func TestRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("POST", "/admin/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", remoteAddr(r))

	r.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", remoteAddr(r))
}
