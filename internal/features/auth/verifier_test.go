package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotID = "7654321"

// signInitData собирает подписанный initData так, как это делает Telegram.
func signInitData(t *testing.T, priv ed25519.PrivateKey, botID string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	message := botID + ":WebAppData\n" + strings.Join(lines, "\n")
	sig := ed25519.Sign(priv, []byte(message))

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(fields[k]))
	}
	parts = append(parts, "signature="+base64.RawURLEncoding.EncodeToString(sig))
	return strings.Join(parts, "&")
}

func newTestVerifier(t *testing.T, ttl time.Duration) (*Verifier, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	v, err := NewVerifier(testBotID, hex.EncodeToString(pub), ttl)
	require.NoError(t, err)
	return v, priv
}

func validFields(now time.Time) map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", now.Unix()),
		"query_id":  "AAF9tZ0aAAAAAH21nRq0p3Xk",
		"chat_type": "private",
		"user":      `{"id":445566778,"first_name":"Вася","username":"vasya_farm"}`,
	}
}

func TestVerifyHappyPath(t *testing.T) {
	v, priv := newTestVerifier(t, 5*time.Minute)
	now := time.Now()

	raw := signInitData(t, priv, testBotID, validFields(now))
	data, err := v.Verify(raw, now)
	require.NoError(t, err)

	assert.Equal(t, int64(445566778), data.User.ID)
	assert.Equal(t, "Вася", data.User.FirstName)
	assert.Equal(t, "vasya_farm", data.User.Username)
	assert.Equal(t, now.Unix(), data.AuthDate)
	assert.NotEmpty(t, data.Signature)
	// user вынут из остаточных полей, служебные поля остались
	assert.NotContains(t, data.Fields, "user")
	assert.Contains(t, data.Fields, "query_id")
}

func TestVerifyTamperedFieldFails(t *testing.T) {
	v, priv := newTestVerifier(t, 5*time.Minute)
	now := time.Now()

	fields := validFields(now)
	raw := signInitData(t, priv, testBotID, fields)

	// подмена любого одного поля ломает подпись
	tampered := strings.Replace(raw, "chat_type=private", "chat_type=group", 1)
	require.NotEqual(t, raw, tampered)

	_, err := v.Verify(tampered, now)
	assert.ErrorContains(t, err, "auth_failed")
}

func TestVerifyRejections(t *testing.T) {
	ttl := 5 * time.Minute
	v, priv := newTestVerifier(t, ttl)
	now := time.Now()

	otherPriv := func() ed25519.PrivateKey {
		_, p, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		return p
	}()

	tests := []struct {
		name string
		raw  func() string
	}{
		{"пустой initData", func() string { return "" }},
		{"нет подписи", func() string {
			return "auth_date=" + fmt.Sprintf("%d", now.Unix()) + "&user=%7B%22id%22%3A1%7D"
		}},
		{"чужой ключ", func() string {
			return signInitData(t, otherPriv, testBotID, validFields(now))
		}},
		{"чужой bot_id в строке подписи", func() string {
			return signInitData(t, priv, "999999", validFields(now))
		}},
		{"протухший auth_date", func() string {
			return signInitData(t, priv, testBotID, validFields(now.Add(-ttl-time.Minute)))
		}},
		{"auth_date отсутствует", func() string {
			f := validFields(now)
			delete(f, "auth_date")
			return signInitData(t, priv, testBotID, f)
		}},
		{"нет поля user", func() string {
			f := validFields(now)
			delete(f, "user")
			return signInitData(t, priv, testBotID, f)
		}},
		{"битый user", func() string {
			f := validFields(now)
			f["user"] = "{не json"
			return signInitData(t, priv, testBotID, f)
		}},
		{"нулевой id", func() string {
			f := validFields(now)
			f["user"] = `{"id":0}`
			return signInitData(t, priv, testBotID, f)
		}},
		{"подпись не base64", func() string {
			f := validFields(now)
			return signInitData(t, priv, testBotID, f) + "видоизменим"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.raw(), now)
			require.Error(t, err)
			// все отказы неразличимы для клиента
			assert.ErrorContains(t, err, "auth_failed")
		})
	}
}

func TestVerifyFreshnessBoundary(t *testing.T) {
	ttl := 5 * time.Minute
	v, priv := newTestVerifier(t, ttl)
	now := time.Now()

	// ровно на границе TTL — ещё принимается
	raw := signInitData(t, priv, testBotID, validFields(now.Add(-ttl)))
	_, err := v.Verify(raw, now)
	assert.NoError(t, err)
}

func TestStampHashDeterministic(t *testing.T) {
	h1 := StampHash("c2lnbmF0dXJl", 1700000000)
	h2 := StampHash("c2lnbmF0dXJl", 1700000000)
	h3 := StampHash("c2lnbmF0dXJl", 1700000001)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestNewVerifierRejectsBadKey(t *testing.T) {
	_, err := NewVerifier(testBotID, "не hex", time.Minute)
	assert.Error(t, err)

	_, err = NewVerifier(testBotID, "abcd", time.Minute)
	assert.Error(t, err)
}
