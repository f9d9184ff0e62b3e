// Package config загружает конфигурацию из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	// Токен нужен только боту; плейграунд работает без него.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	// Если задан — бот отвечает ещё и в этом групповом чате (кроме лички).
	AllowedChatID int64 `envconfig:"ALLOWED_CHAT_ID" default:"0"`

	// --- Admin ---
	// Операторы панели (Telegram user ID через запятую). Пусто — панель выключена.
	AdminUserIDsRaw string  `envconfig:"ADMIN_USER_IDS" default:""`
	AdminUserIDs    []int64 `envconfig:"-"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Tehran"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Catalog ---
	// Путь к каталогу (.yaml, .yml или .toml). Пусто — встроенный каталог.
	CatalogPath string `envconfig:"CATALOG_PATH" default:""`

	// --- Стартовый профиль сессии ---
	ProfileStartXP    int64  `envconfig:"PROFILE_START_XP" default:"1450"`
	ProfileStartCoins int64  `envconfig:"PROFILE_START_COINS" default:"2450"`
	ProfileStartRank  int    `envconfig:"PROFILE_START_RANK" default:"12"`
	ProfileStartTier  string `envconfig:"PROFILE_START_TIER" default:"gold"`

	// --- Streak ---
	StreakStartDay       int    `envconfig:"STREAK_START_DAY" default:"3"`
	StreakClaimedDaysRaw string `envconfig:"STREAK_CLAIMED_DAYS" default:"1,2"`
	StreakClaimedDays    []int  `envconfig:"-"` // заполним вручную
	StreakMegaXP         int64  `envconfig:"STREAK_MEGA_XP" default:"100"`
	StreakMegaCoins      int64  `envconfig:"STREAK_MEGA_COINS" default:"500"`
	StreakRolloverCron   string `envconfig:"STREAK_ROLLOVER_CRON" default:"0 0 * * *"`
	// Вечернее напоминание тем, кто ещё не забрал подарок дня.
	StreakReminderCron string `envconfig:"STREAK_REMINDER_CRON" default:"0 18 * * *"`

	// --- Wheel ---
	WheelSpinCost       int64         `envconfig:"WHEEL_SPIN_COST" default:"100"`
	WheelPrizeCredit    int64         `envconfig:"WHEEL_PRIZE_CREDIT" default:"150"`
	WheelPrizeAdvertise int64         `envconfig:"WHEEL_PRIZE_ADVERTISED" default:"250"`
	WheelSpinDelay      time.Duration `envconfig:"WHEEL_SPIN_DELAY" default:"4s"`

	// --- Missions ---
	MissionsWeeklyThreshold int   `envconfig:"MISSIONS_WEEKLY_THRESHOLD" default:"3"`
	MissionsWeeklyBonus     int64 `envconfig:"MISSIONS_WEEKLY_BONUS" default:"500"`

	// --- Tips ---
	// Эндпоинт генератора советов (generateContent). Пусто — только встроенные советы.
	TipsEndpoint string        `envconfig:"TIPS_ENDPOINT" default:""`
	TipsAPIKey   string        `envconfig:"TIPS_API_KEY" default:""`
	TipsTimeout  time.Duration `envconfig:"TIPS_TIMEOUT" default:"3s"`
	TipsFallback string        `envconfig:"TIPS_FALLBACK" default:"Продолжай! Большой приз уже ждёт тебя."`
	// Ответ на случай, когда генератор вернул пустой текст.
	TipsEmptyFallback string `envconfig:"TIPS_EMPTY_FALLBACK" default:"Ещё чуть-чуть, и большой приз твой!"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- HTTP ---
	// Адрес HTTP-сервера (метрики, healthz, API). Пусто — сервер не поднимается.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":9090"`
	// Разрешённые источники CORS для API, через запятую.
	HTTPCORSOriginsRaw string   `envconfig:"HTTP_CORS_ORIGINS" default:"*"`
	HTTPCORSOrigins    []string `envconfig:"-"`
	// Секрет подписи токенов API (HS256). Пусто — API без авторизации.
	APIJWTSecret string        `envconfig:"API_JWT_SECRET" default:""`
	APITokenTTL  time.Duration `envconfig:"API_TOKEN_TTL" default:"24h"`

	// --- Feature Flags ---
	FeatureWheelEnabled       bool `envconfig:"FEATURE_WHEEL_ENABLED" default:"true"`
	FeatureStoreEnabled       bool `envconfig:"FEATURE_STORE_ENABLED" default:"true"`
	FeatureLeaderboardEnabled bool `envconfig:"FEATURE_LEADERBOARD_ENABLED" default:"true"`
	FeatureRolloverEnabled    bool `envconfig:"FEATURE_ROLLOVER_ENABLED" default:"true"`
	FeatureRemindersEnabled   bool `envconfig:"FEATURE_REMINDERS_ENABLED" default:"true"`
	FeatureAPIEnabled         bool `envconfig:"FEATURE_API_ENABLED" default:"true"`
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.ProfileStartXP < 0 || c.ProfileStartCoins < 0 {
		return fmt.Errorf("стартовые XP и монеты не могут быть отрицательными")
	}
	switch c.ProfileStartTier {
	case "bronze", "silver", "gold", "diamond":
	default:
		return fmt.Errorf("PROFILE_START_TIER: неизвестный уровень %q", c.ProfileStartTier)
	}
	if c.StreakStartDay < 1 || c.StreakStartDay > 7 {
		return fmt.Errorf("STREAK_START_DAY должен быть в диапазоне 1..7")
	}
	for _, d := range c.StreakClaimedDays {
		if d < 1 || d >= c.StreakStartDay {
			return fmt.Errorf("STREAK_CLAIMED_DAYS: день %d должен быть раньше стартового (%d)", d, c.StreakStartDay)
		}
	}
	if c.WheelSpinCost <= 0 || c.WheelPrizeCredit < 0 {
		return fmt.Errorf("некорректные WHEEL_SPIN_COST/WHEEL_PRIZE_CREDIT")
	}
	if c.WheelSpinDelay < 0 {
		return fmt.Errorf("WHEEL_SPIN_DELAY не может быть отрицательным")
	}
	if c.MissionsWeeklyThreshold <= 0 {
		return fmt.Errorf("MISSIONS_WEEKLY_THRESHOLD должен быть > 0")
	}
	if c.TipsTimeout <= 0 {
		return fmt.Errorf("TIPS_TIMEOUT должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.APITokenTTL <= 0 {
		return fmt.Errorf("API_TOKEN_TTL должен быть > 0")
	}
	return nil
}

// ValidateBot — дополнительные проверки для запуска Telegram-бота.
func (c *Config) ValidateBot() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не задан")
	}
	return nil
}

// Location возвращает часовой пояс приложения.
// Если зона не загрузилась — используем UTC+3:30 (Тегеран) вручную.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.FixedZone("IRST", 3*60*60+30*60)
	}
	return loc
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	days, err := parseIntCSV(cfg.StreakClaimedDaysRaw)
	if err != nil {
		return nil, fmt.Errorf("STREAK_CLAIMED_DAYS parse: %w", err)
	}
	cfg.StreakClaimedDays = days

	admins, err := parseInt64CSV(cfg.AdminUserIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_USER_IDS parse: %w", err)
	}
	cfg.AdminUserIDs = admins
	cfg.HTTPCORSOrigins = splitCSV(cfg.HTTPCORSOriginsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseIntCSV(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	var out []int64
	for _, p := range splitCSV(s) {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
