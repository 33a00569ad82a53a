// Package app инициализирует все компоненты приложения.
// app.go собирает приложение: выбирает хранилище леджера, загружает каталог,
// создаёт сервисы и обработчики, собирает бота, HTTP и планировщик.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/bot"
	"github.com/taslogit/pressfbot/internal/bot/middleware"
	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/config"
	"github.com/taslogit/pressfbot/internal/db/postgres"
	"github.com/taslogit/pressfbot/internal/features/accounts"
	"github.com/taslogit/pressfbot/internal/features/boosts"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/gifts"
	"github.com/taslogit/pressfbot/internal/features/lottery"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/features/store"
	"github.com/taslogit/pressfbot/internal/features/streak"
	"github.com/taslogit/pressfbot/internal/features/thanks"
	"github.com/taslogit/pressfbot/internal/features/tournaments"
	"github.com/taslogit/pressfbot/internal/jobs"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/server"
)

// Services: доменные сервисы поверх одного хранилища.
type Services struct {
	Accounts    *accounts.Service
	Store       *store.Service
	Lottery     *lottery.Service
	Gifts       *gifts.Service
	Streak      *streak.Service
	Boosts      *boosts.Service
	Tournaments *tournaments.Service
	Thanks      *thanks.Service
}

// NewServices создаёт сервисы. now=nil: системные часы.
func NewServices(st ledger.Store, cat *catalog.Catalog, cfg *config.Config, now func() time.Time) *Services {
	return &Services{
		Accounts:    accounts.NewService(st, cfg.EconomyStartingRep, cfg.EconomyStartingXP, now),
		Store:       store.NewService(st, cat, pricing.NewEngine(cat), now),
		Lottery:     lottery.NewService(st, cat, cfg.MysteryBoxCostXP, nil, now),
		Gifts:       gifts.NewService(st, cat, cfg.GiftRewardPercent, now),
		Streak:      streak.NewService(st, cfg.StreakDailyXP, cfg.Location(), now),
		Boosts:      boosts.NewService(st, now),
		Tournaments: tournaments.NewService(st, cat, now),
		Thanks:      thanks.NewService(st, cfg.ThanksDailyLimit, cfg.ThanksRepReward, cfg.ThanksCacheSize, cfg.Location(), now),
	}
}

// NewRouter собирает обработчики и роутер команд.
func NewRouter(s *Services, cfg *config.Config, sender common.Sender) *bot.Router {
	loc := cfg.Location()
	handlers := bot.Handlers{
		Accounts:    accounts.NewHandler(s.Accounts, sender),
		Store:       store.NewHandler(s.Store, sender, cfg.HistoryDefaultLimit, loc),
		Lottery:     lottery.NewHandler(s.Lottery, sender, loc),
		Gifts:       gifts.NewHandler(s.Gifts, s.Accounts, sender, loc),
		Streak:      streak.NewHandler(s.Streak, sender),
		Boosts:      boosts.NewHandler(s.Boosts, sender, loc),
		Tournaments: tournaments.NewHandler(s.Tournaments, sender),
		Thanks:      thanks.NewHandler(s.Thanks, sender),
	}
	features := bot.Features{
		Gifts:       cfg.FeatureGiftsEnabled,
		MysteryBox:  cfg.FeatureMysteryBoxEnabled,
		Streaks:     cfg.FeatureStreaksEnabled,
		Tournaments: cfg.FeatureTournamentsEnabled,
		Thanks:      cfg.FeatureThanksEnabled,
	}
	return bot.NewRouter(s.Accounts, handlers, features, sender)
}

// NewScheduler создаёт планировщик фоновых задач.
func NewScheduler(s *Services, cfg *config.Config) *jobs.Scheduler {
	return jobs.NewScheduler(cfg.Location(), jobs.Schedule{
		SweepBoosts: cfg.SweepBoostsCron,
		FlashSale:   cfg.FlashSaleCron,
	}, s.Boosts, s.Store)
}

// OpenStore открывает хранилище леджера по LEDGER_BACKEND и оборачивает его повтором
// при конфликтах. pool == nil для memory.
func OpenStore(ctx context.Context, cfg *config.Config) (ledger.Store, *pgxpool.Pool, error) {
	var (
		st   ledger.Store
		pool *pgxpool.Pool
	)
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		log.Warn("LEDGER_BACKEND=memory: данные живут до перезапуска")
		st = ledger.NewMemoryStore()
	case config.BackendPostgres:
		var err error
		pool, err = postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		st = ledger.NewPostgresStore(pool, cfg.DBLockTimeout)
	default:
		return nil, nil, fmt.Errorf("неизвестное хранилище %q", cfg.LedgerBackend)
	}
	return ledger.NewRetryingStore(st, cfg.RetryMaxAttempts), pool, nil
}

// App содержит все компоненты приложения.
type App struct {
	Bot         *bot.Bot
	Scheduler   *jobs.Scheduler
	HTTP        *server.Server
	DB          *pgxpool.Pool
	RateLimiter *middleware.RateLimiter
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Каталог ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	log.WithFields(log.Fields{
		"items":       cat.Len(),
		"gifts":       len(cat.Gifts()),
		"tournaments": len(cat.Tournaments()),
	}).Info("Каталог загружен")

	// === 2. Хранилище ===
	st, pool, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 3. Telegram Bot API ===
	api, err := bot.NewAPI(ctx, cfg.TelegramBotToken, cfg.AppEnv == "development" && cfg.AppLogLevel == "trace")
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	// === 4. Сервисы и бот ===
	services := NewServices(st, cat, cfg, nil)
	router := NewRouter(services, cfg, bot.NewClient(api))
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	b := bot.New(api, router, bot.Options{
		MaxInflight:    cfg.BotMaxInflight,
		UpdateTimeout:  cfg.BotUpdateTimeoutSeconds,
		AllowedChatIDs: cfg.BotAllowedChatIDs,
		RateLimiter:    limiter,
	})

	// === 5. HTTP и планировщик ===
	var httpServer *server.Server
	if cfg.HTTPAddr != "" {
		httpServer = server.New(cfg.HTTPAddr, st)
	}

	return &App{
		Bot:         b,
		Scheduler:   NewScheduler(services, cfg),
		HTTP:        httpServer,
		DB:          pool,
		RateLimiter: limiter,
	}, nil
}

// Run запускает планировщик, HTTP и бота и блокирует до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	if a.HTTP != nil {
		go func() {
			if err := a.HTTP.Start(); err != nil {
				log.WithError(err).Error("HTTP-сервер упал")
			}
		}()
	}

	err := a.Bot.Start(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// Close освобождает ресурсы. Вызывается после Run.
func (a *App) Close(ctx context.Context) {
	if a.HTTP != nil {
		if err := a.HTTP.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("HTTP-сервер остановлен с ошибкой")
		}
	}
	a.RateLimiter.Close()
	if a.DB != nil {
		a.DB.Close()
	}
}
