// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: каталог, сессии, сервисы, обработчики, роутер,
// крон и HTTP-сервер. Транспорт (Telegram или консоль) передаётся снаружи.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/rewards-bot/internal/api"
	"serotonyl.ru/rewards-bot/internal/bot"
	"serotonyl.ru/rewards-bot/internal/bot/filters"
	"serotonyl.ru/rewards-bot/internal/bot/middleware"
	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/features/admin"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/leaderboard"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/missions"
	"serotonyl.ru/rewards-bot/internal/features/store"
	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/features/tips"
	"serotonyl.ru/rewards-bot/internal/features/wheel"
	"serotonyl.ru/rewards-bot/internal/jobs"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

// App содержит все компоненты приложения.
type App struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Members *members.Service
	Streak  *streak.Service
	Router  *bot.Router
	Auth    *api.Auth

	Scheduler *jobs.Scheduler
	HTTP      *metrics.Server // nil, если HTTP_ADDR пуст

	// Только для Telegram
	Bot    *bot.Bot
	BotAPI *tgbotapi.BotAPI

	wheel       *wheel.Handler
	rateLimiter *middleware.RateLimiter
}

// New собирает приложение без транспорта. sender — куда уходят ответы.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(cfg *config.Config, sender common.Sender) (*App, error) {
	loc := cfg.Location()

	// === 1. Каталог и правила ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	rules := RulesFrom(cfg)
	if err := rules.Validate(cat); err != nil {
		return nil, fmt.Errorf("ошибка правил экономики: %w", err)
	}
	profile := economy.Profile{
		XP:    cfg.ProfileStartXP,
		Coins: cfg.ProfileStartCoins,
		Rank:  cfg.ProfileStartRank,
		Tier:  economy.Tier(cfg.ProfileStartTier),
	}

	// === 2. Советы ===
	var provider tips.Provider = tips.NewStaticProvider(cat.LastStreakDay())
	if cfg.TipsEndpoint != "" {
		provider = tips.NewGenerativeProvider(cfg.TipsEndpoint, cfg.TipsAPIKey)
	}
	tipsService := tips.NewService(provider, cfg.TipsFallback, cfg.TipsEmptyFallback, cfg.TipsTimeout)

	// === 3. Сервисы ===
	memberService := members.NewService(members.NewRepository(), cat, rules, profile)
	streakService := streak.NewService(memberService, tipsService, sender)
	missionsService := missions.NewService(loc)
	boardService := leaderboard.NewService(cat, memberService, loc)

	memberService.OnSessionStart(func(m *members.Member) {
		m.Engine.Subscribe(metrics.Observe)
		metrics.ActiveSessions.Inc()
	})
	memberService.OnSessionEnd(func(m *members.Member) {
		metrics.ActiveSessions.Dec()
		streakService.Forget(m.UserID)
	})

	// === 4. Обработчики ===
	wheelHandler := wheel.NewHandler(sender)
	handlers := bot.Handlers{
		Members:     memberService,
		Economy:     economy.NewHandler(sender, loc),
		Streak:      streak.NewHandler(sender, tipsService),
		Wheel:       wheelHandler,
		Missions:    missions.NewHandler(missionsService, sender),
		Store:       store.NewHandler(sender, missionsService),
		Leaderboard: leaderboard.NewHandler(boardService, sender),
	}
	if len(cfg.AdminUserIDs) > 0 {
		handlers.Admin = admin.NewHandler(admin.NewService(cfg.AdminUserIDs, memberService, streakService), sender)
	}

	auth := api.NewAuth(cfg.APIJWTSecret, cfg.APITokenTTL)
	if cfg.FeatureAPIEnabled {
		handlers.Tokens = auth
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	a := &App{
		Config:      cfg,
		Catalog:     cat,
		Members:     memberService,
		Streak:      streakService,
		Router:      bot.NewRouter(cfg, handlers, sender, rateLimiter),
		Auth:        auth,
		wheel:       wheelHandler,
		rateLimiter: rateLimiter,
	}

	// === 5. Планировщик задач ===
	schedule := jobs.Schedule{}
	if cfg.FeatureRolloverEnabled {
		schedule.Rollover = cfg.StreakRolloverCron
	}
	if cfg.FeatureRemindersEnabled {
		schedule.Reminders = cfg.StreakReminderCron
	}
	a.Scheduler = jobs.NewScheduler(streakService, schedule, loc)

	// === 6. HTTP: метрики, healthz, API ===
	if cfg.HTTPAddr != "" {
		a.HTTP = metrics.NewServer(cfg.HTTPAddr, func() map[string]any {
			return map[string]any{"sessions": memberService.Count()}
		})
		if cfg.FeatureAPIEnabled {
			if !auth.Enabled() {
				log.Warn("API_JWT_SECRET не задан — API работает без авторизации")
			}
			a.HTTP.Mount(api.Prefix, api.NewHandler(cat, memberService, boardService, auth, cfg.HTTPCORSOrigins).Routes())
		}
	}

	log.WithFields(log.Fields{
		"missions": len(cat.Missions),
		"rewards":  len(cat.Rewards),
		"admins":   len(cfg.AdminUserIDs),
		"timezone": loc.String(),
	}).Info("Приложение собрано")

	return a, nil
}

// NewTelegram собирает приложение с транспортом Telegram.
func NewTelegram(cfg *config.Config) (*App, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	sender := bot.NewTelegram(botAPI)
	a, err := New(cfg, sender)
	if err != nil {
		return nil, err
	}

	chatFilter := filters.NewChatFilter(cfg.AllowedChatID, a.Members, botAPI, sender)
	a.Bot = bot.New(botAPI, cfg, a.Router, chatFilter, members.NewHandler(a.Members))
	a.BotAPI = botAPI
	return a, nil
}

// RulesFrom переводит настройки в правила экономики.
func RulesFrom(cfg *config.Config) economy.Rules {
	return economy.Rules{
		SpinCost:        cfg.WheelSpinCost,
		SpinPrize:       cfg.WheelPrizeCredit,
		AdvertisedPrize: cfg.WheelPrizeAdvertise,
		SpinDelay:       cfg.WheelSpinDelay,
		MegaXP:          cfg.StreakMegaXP,
		MegaCoins:       cfg.StreakMegaCoins,
		WeeklyThreshold: cfg.MissionsWeeklyThreshold,
		WeeklyBonus:     cfg.MissionsWeeklyBonus,
		StartDay:        cfg.StreakStartDay,
		ClaimedDays:     cfg.StreakClaimedDays,
	}
}

// Run запускает крон, HTTP-сервер и бота (если есть) и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	g, ctx := errgroup.WithContext(ctx)
	if a.HTTP != nil {
		g.Go(func() error { return a.HTTP.Start(ctx) })
	}
	if a.Bot != nil {
		g.Go(func() error {
			a.Bot.Start(ctx)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

// Close закрывает сессии и ждёт отправки результатов колеса.
func (a *App) Close() {
	a.Members.CloseAll()
	a.wheel.Wait()
	a.rateLimiter.Close()
	log.Info("Приложение остановлено")
}
