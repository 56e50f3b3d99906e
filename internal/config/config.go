// Package config загружает конфигурацию сервера из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram Mini App auth ---
	// Числовой ID бота (часть токена до двоеточия). Входит в строку подписи.
	BotID string `envconfig:"BOT_ID" required:"true"`
	// Публичный Ed25519-ключ Telegram в hex. Прод-ключ опубликован Telegram,
	// для тестовой среды — свой.
	TgSignaturePublicKeyHex string `envconfig:"TG_SIGNATURE_PUBLIC_KEY_HEX" required:"true"`
	// Максимальный возраст auth_date в initData
	AuthTTL time.Duration `envconfig:"AUTH_TTL" default:"5m"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"farmuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"farm_webapp"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	// Кука сессии живёт неделю, как и запись в таблице sessions
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	// Secure на куке выключаем только в development (там нет HTTPS)
	CookieSecure bool `envconfig:"COOKIE_SECURE" default:"true"`

	// --- Game ---
	FieldMax  int `envconfig:"FIELD_MAX" default:"16"`
	FieldCost int `envconfig:"FIELD_COST" default:"5"`
	// Стартовые значения нового игрока
	StartBalance int `envconfig:"START_BALANCE" default:"100"`
	StartFields  int `envconfig:"START_FIELDS" default:"2"`
	// Путь до yaml-каталога культур; пусто — встроенные значения
	CatalogPath string `envconfig:"CATALOG_PATH" default:""`

	// --- Action nonce ---
	NonceTTL time.Duration `envconfig:"NONCE_TTL" default:"60s"`

	// --- Rate limiting (долговременное, по журналу действий) ---
	RateWindow       time.Duration `envconfig:"RATE_WINDOW" default:"5s"`
	RateBuyFieldMax  int           `envconfig:"RATE_BUY_FIELD_MAX" default:"6"`
	RateShopBuyMax   int           `envconfig:"RATE_SHOP_BUY_MAX" default:"8"`
	RatePlantMax     int           `envconfig:"RATE_PLANT_MAX" default:"8"`
	RateHarvestMax   int           `envconfig:"RATE_HARVEST_MAX" default:"10"`
	RateSellMax      int           `envconfig:"RATE_SELL_MAX" default:"8"`
	// Троттлинг HTTP по IP (первая линия, в памяти процесса)
	HTTPRatePerSec float64 `envconfig:"HTTP_RATE_PER_SEC" default:"20"`
	HTTPRateBurst  int     `envconfig:"HTTP_RATE_BURST" default:"40"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Janitor ---
	// Сколько хранить журнал действий (нужен только rate limiter'у и аудиту)
	ActionLogRetention time.Duration `envconfig:"ACTION_LOG_RETENTION" default:"2160h"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RateLimit возвращает потолок скользящего окна для вида действия.
// Неизвестный вид — ноль: такое действие не пройдёт никогда,
// лучше закрыться, чем пропустить без лимита.
func (c *Config) RateLimit(action string) int {
	switch action {
	case "buy_field":
		return c.RateBuyFieldMax
	case "shop_buy":
		return c.RateShopBuyMax
	case "plant":
		return c.RatePlantMax
	case "harvest":
		return c.RateHarvestMax
	case "sell":
		return c.RateSellMax
	}
	return 0
}

func (c *Config) Validate() error {
	if c.BotID == "" {
		return fmt.Errorf("BOT_ID не задан")
	}
	if len(c.TgSignaturePublicKeyHex) != 64 {
		return fmt.Errorf("TG_SIGNATURE_PUBLIC_KEY_HEX должен быть 32 байта в hex (64 символа)")
	}
	if c.AuthTTL <= 0 || c.NonceTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("AUTH_TTL, NONCE_TTL и SESSION_TTL должны быть > 0")
	}
	if c.FieldMax <= 0 || c.FieldCost <= 0 {
		return fmt.Errorf("некорректные FIELD_MAX/FIELD_COST")
	}
	if c.StartBalance < 0 || c.StartFields < 0 || c.StartFields > c.FieldMax {
		return fmt.Errorf("некорректные START_BALANCE/START_FIELDS")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
