// Package auth — verifier.go проверяет подпись Telegram Mini App initData.
//
// Telegram подписывает initData ключом Ed25519; строка подписи — это
// "<bot_id>:WebAppData\n" плюс пары key=value, отсортированные по ключу
// и склеенные переводами строк (поля signature и hash не участвуют).
// Проверка — чистая функция: никаких обращений к БД и часам процесса,
// текущее время передаётся параметром.
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/farm-webapp/internal/common"
)

// Verifier проверяет initData против публичного ключа Telegram.
type Verifier struct {
	botID     string
	publicKey ed25519.PublicKey
	ttl       time.Duration
}

// NewVerifier создаёт проверяльщик initData.
// publicKeyHex — 32-байтовый Ed25519-ключ в hex.
func NewVerifier(botID, publicKeyHex string, ttl time.Duration) (*Verifier, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("публичный ключ не hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("публичный ключ должен быть %d байт, получено %d", ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{
		botID:     botID,
		publicKey: ed25519.PublicKey(raw),
		ttl:       ttl,
	}, nil
}

// Verify разбирает и проверяет initData на момент now.
//
// Любая причина отказа (битый формат, протухший auth_date, неверная
// подпись, сломанный user) возвращается как один common.ErrAuthFailed:
// по ответу нельзя понять, что именно не сошлось. Детали уходят
// только в debug-лог.
func (v *Verifier) Verify(initDataRaw string, now time.Time) (*InitData, error) {
	fields, err := parseInitData(initDataRaw)
	if err != nil {
		log.WithError(err).Debug("initData: ошибка разбора")
		return nil, common.ErrAuthFailed
	}

	// Подпись — отдельное поле, в строку подписи не входит.
	// Поле hash (HMAC-вариант проверки) просто выбрасываем.
	sigB64, ok := fields["signature"]
	delete(fields, "signature")
	delete(fields, "hash")
	if !ok || sigB64 == "" {
		log.Debug("initData: нет поля signature")
		return nil, common.ErrAuthFailed
	}

	authDate, _ := strconv.ParseInt(fields["auth_date"], 10, 64)
	if authDate <= 0 || now.Unix()-authDate > int64(v.ttl.Seconds()) {
		log.WithField("auth_date", authDate).Debug("initData: auth_date отсутствует или протух")
		return nil, common.ErrAuthFailed
	}

	sig, err := decodeBase64URL(sigB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		log.Debug("initData: подпись не декодируется")
		return nil, common.ErrAuthFailed
	}

	message := v.signedMessage(fields)
	if !ed25519.Verify(v.publicKey, []byte(message), sig) {
		log.Debug("initData: подпись не сошлась")
		return nil, common.ErrAuthFailed
	}

	userRaw, ok := fields["user"]
	if !ok || userRaw == "" {
		log.Debug("initData: нет поля user")
		return nil, common.ErrAuthFailed
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil || user.ID <= 0 {
		log.Debug("initData: поле user не разбирается")
		return nil, common.ErrAuthFailed
	}

	delete(fields, "user")
	return &InitData{
		User:      user,
		AuthDate:  authDate,
		Signature: sigB64,
		Fields:    fields,
	}, nil
}

// signedMessage восстанавливает каноническую строку подписи:
// "<bot_id>:WebAppData\n" + отсортированные key=value через \n.
func (v *Verifier) signedMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(v.botID)
	sb.WriteString(":WebAppData")
	for _, k := range keys {
		sb.WriteByte('\n')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
	}
	return sb.String()
}

// parseInitData разбирает query-строку initData в map с процентным
// декодированием ключей и значений. Пустые значения сохраняются.
func parseInitData(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("initData пуст")
	}
	fields := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, val, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("битый ключ %q: %w", k, err)
		}
		value, err := url.QueryUnescape(val)
		if err != nil {
			return nil, fmt.Errorf("битое значение у %q: %w", key, err)
		}
		fields[key] = value
	}
	return fields, nil
}

// decodeBase64URL декодирует base64url и с набивкой, и без неё.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// StampHash возвращает анти-replay отпечаток принятого initData:
// sha256 от "подпись:auth_date" в hex.
func StampHash(signatureB64 string, authDate int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", signatureB64, authDate)))
	return hex.EncodeToString(sum[:])
}
