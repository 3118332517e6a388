// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище снапшота, создаёт леджер,
// форматтер, обработчики, фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/timur1arkhipov/nonono-toxic/internal/bot"
	"github.com/timur1arkhipov/nonono-toxic/internal/bot/filters"
	"github.com/timur1arkhipov/nonono-toxic/internal/config"
	"github.com/timur1arkhipov/nonono-toxic/internal/db/postgres"
	"github.com/timur1arkhipov/nonono-toxic/internal/features/rating"
	"github.com/timur1arkhipov/nonono-toxic/internal/features/report"
	"github.com/timur1arkhipov/nonono-toxic/internal/health"
	"github.com/timur1arkhipov/nonono-toxic/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Health    *health.Server
	DB        *pgxpool.Pool // nil при STORE_BACKEND=file
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище снапшота ===
	store, pool, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Леджер рейтингов ===
	ratingService, err := rating.NewService(ctx, store, cfg)
	if err != nil {
		return nil, err
	}
	// Сам бот — системный аккаунт: не регистрируется и не участвует в голосах.
	ratingService.AddSystemID(botAPI.Self.ID)

	// === 4. Отчёты ===
	formatter := report.NewFormatter(ratingService.IsSystem, cfg.ReportTopDefault)

	// === 5. Обработчики ===
	ratingHandler := rating.NewHandler(ratingService)
	reportHandler := report.NewHandler(formatter, ratingService, botAPI, cfg)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.AllowedChatIDs)

	// === 7. Собираем бота ===
	b := bot.New(botAPI, cfg, ratingHandler, reportHandler, chatFilter)

	// === 8. Планировщик еженедельного цикла ===
	scheduler := jobs.NewScheduler(cfg, ratingService, formatter.RenderWeekly, b.SendHTML)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Health:    health.NewServer(cfg.HealthPort),
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает внешние ресурсы приложения.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// newStore выбирает бэкенд хранилища по конфигу.
// Для postgres дополнительно поднимает пул и применяет миграции.
func newStore(ctx context.Context, cfg *config.Config) (rating.Store, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return rating.NewPostgresStore(pool), pool, nil

	default:
		log.WithField("file", cfg.StoreFile).Info("Используется файловое хранилище")
		return rating.NewFileStore(cfg.StoreFile), nil, nil
	}
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Snapshot},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

// Снапшот леджера хранится одной строкой JSONB — тот же блоб, что пишет
// файловый бэкенд. CHECK (id = 1) гарантирует единственность строки.
var migration001Snapshot = `
CREATE TABLE IF NOT EXISTS rating_snapshot (
    id SMALLINT PRIMARY KEY CHECK (id = 1),
    data JSONB NOT NULL,
    updated_at TIMESTAMP DEFAULT NOW()
);
`
