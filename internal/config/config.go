// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// validator проверяет диапазоны, godotenv подхватывает локальный .env.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Допустимые хранилища леджера.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true" validate:"required"`

	// --- Database ---
	// В Docker дефолт "postgres" (имя сервиса в docker-compose), для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"pressf"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable require verify-ca verify-full prefer allow"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25" validate:"gt=0"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5" validate:"gte=0"`
	// Сколько транзакция ждёт чужую блокировку строки, прежде чем сдаться с конфликтом
	DBLockTimeout time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"3s" validate:"gt=0"`

	// Хранилище леджера: postgres (прод) или memory (локальная отладка без БД)
	LedgerBackend string `envconfig:"LEDGER_BACKEND" default:"postgres" validate:"oneof=postgres memory"`

	// --- Application ---
	AppEnv       string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel  string `envconfig:"APP_LOG_LEVEL" default:"debug" validate:"oneof=trace debug info warn warning error fatal panic"`
	AppLogFormat string `envconfig:"APP_LOG_FORMAT" default:"text" validate:"oneof=text json"`
	// Часовой пояс календарного дня для стриков
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64" validate:"gt=0"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60" validate:"gt=0"`
	// Группы, где бот отвечает (через запятую). Пусто = любые. Личка разрешена всегда.
	BotAllowedChatIDs []int64 `envconfig:"BOT_ALLOWED_CHAT_IDS"`

	// --- Economy ---
	// Путь к YAML-каталогу. Пусто = встроенный каталог.
	CatalogPath         string `envconfig:"CATALOG_PATH"`
	EconomyStartingRep  int64  `envconfig:"ECONOMY_STARTING_REP" default:"0" validate:"gte=0"`
	EconomyStartingXP   int64  `envconfig:"ECONOMY_STARTING_XP" default:"0" validate:"gte=0"`
	MysteryBoxCostXP    int64  `envconfig:"MYSTERY_BOX_COST_XP" default:"150" validate:"gt=0"`
	GiftRewardPercent   int64  `envconfig:"GIFT_REWARD_PERCENT" default:"10" validate:"gte=0,lte=100"`
	HistoryDefaultLimit int    `envconfig:"HISTORY_DEFAULT_LIMIT" default:"10" validate:"gt=0,lte=100"`

	// --- Streak ---
	StreakDailyXP int64 `envconfig:"STREAK_DAILY_XP" default:"10" validate:"gte=0"`

	// --- Благодарности ---
	// Сколько «спасибо» в день может раздать один участник
	ThanksDailyLimit int   `envconfig:"THANKS_DAILY_LIMIT" default:"5" validate:"gt=0"`
	ThanksRepReward  int64 `envconfig:"THANKS_REP_REWARD" default:"1" validate:"gt=0"`
	// Ёмкость счётчиков за двое суток; при переполнении новые благодарности отклоняются
	ThanksCacheSize  int   `envconfig:"THANKS_CACHE_SIZE" default:"10000" validate:"gte=100"`

	// --- Jobs ---
	SweepBoostsCron string `envconfig:"SWEEP_BOOSTS_CRON" default:"*/15 * * * *" validate:"required"`
	FlashSaleCron   string `envconfig:"FLASH_SALE_CRON" default:"0 * * * *" validate:"required"`

	// --- Retry ---
	// Сколько раз повторяем операцию при конфликте блокировок
	RetryMaxAttempts int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3" validate:"gte=0,lte=10"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10" validate:"gt=0"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`

	// --- HTTP (метрики и healthz). Пусто = не поднимаем.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":9090"`

	// --- Feature Flags ---
	FeatureGiftsEnabled       bool `envconfig:"FEATURE_GIFTS_ENABLED" default:"true"`
	FeatureMysteryBoxEnabled  bool `envconfig:"FEATURE_MYSTERY_BOX_ENABLED" default:"true"`
	FeatureStreaksEnabled     bool `envconfig:"FEATURE_STREAKS_ENABLED" default:"true"`
	FeatureTournamentsEnabled bool `envconfig:"FEATURE_TOURNAMENTS_ENABLED" default:"true"`
	FeatureThanksEnabled      bool `envconfig:"FEATURE_THANKS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс календарного дня.
// Невалидный APP_TIMEZONE отсекается в Validate, так что здесь откат на UTC только на всякий случай.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.LedgerBackend == BackendPostgres && strings.TrimSpace(c.DBPassword) == "" {
		return fmt.Errorf("DB_PASSWORD обязателен для LEDGER_BACKEND=postgres")
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	// .env нужен только локально, в контейнере его нет
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
