// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Хранилища снапшота леджера.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Чаты, в которых бот считает рейтинг. Пусто — любой групповой чат.
	AllowedChatIDsRaw string  `envconfig:"ALLOWED_CHAT_IDS"`
	AllowedChatIDs    []int64 `envconfig:"-"` // заполним вручную
	// Дополнительные системные аккаунты, исключённые из рейтинга.
	// ID самого бота добавляется автоматически после авторизации.
	SystemUserIDsRaw string  `envconfig:"SYSTEM_USER_IDS"`
	SystemUserIDs    []int64 `envconfig:"-"`

	// --- Store ---
	// file — один JSON-файл (как ratings.json), postgres — строка JSONB.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	StoreFile    string `envconfig:"STORE_FILE" default:"ratings.json"`

	// --- Database (нужна только при STORE_BACKEND=postgres) ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose).
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"rating_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт"
	// = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rating ---
	RatingStart             int `envconfig:"RATING_START" default:"1000"`
	RatingVoteDelta         int `envconfig:"RATING_VOTE_DELTA" default:"25"`
	RatingInactivityPenalty int `envconfig:"RATING_INACTIVITY_PENALTY" default:"125"`

	// --- Report ---
	ReportTopDefault int `envconfig:"REPORT_TOP_DEFAULT" default:"10"`
	// Суббота 17:00 по Москве.
	ReportCron string `envconfig:"REPORT_CRON" default:"0 17 * * 6"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Health ---
	HealthPort int `envconfig:"HEALTH_PORT" default:"3009"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.StoreBackend != StoreBackendFile && c.StoreBackend != StoreBackendPostgres {
		return fmt.Errorf("неизвестный STORE_BACKEND: %q", c.StoreBackend)
	}
	if c.StoreBackend == StoreBackendFile && c.StoreFile == "" {
		return fmt.Errorf("STORE_FILE не задан")
	}
	if c.StoreBackend == StoreBackendPostgres && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD обязателен при STORE_BACKEND=postgres")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RatingStart < 0 || c.RatingVoteDelta <= 0 || c.RatingInactivityPenalty < 0 {
		return fmt.Errorf("некорректные параметры рейтинга")
	}
	if c.ReportTopDefault <= 0 {
		return fmt.Errorf("REPORT_TOP_DEFAULT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	chatIDs, err := parseInt64CSV(cfg.AllowedChatIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_CHAT_IDS parse: %w", err)
	}
	cfg.AllowedChatIDs = chatIDs

	systemIDs, err := parseInt64CSV(cfg.SystemUserIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("SYSTEM_USER_IDS parse: %w", err)
	}
	cfg.SystemUserIDs = systemIDs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
