// Package bot — router.go разбирает входящие сообщения и вызывает обработчики фич.
// Роутер не знает про Telegram: им пользуются и бот, и консольный плейграунд.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/bot/middleware"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/features/admin"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/leaderboard"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/missions"
	"serotonyl.ru/rewards-bot/internal/features/store"
	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/features/wheel"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

// User — автор сообщения.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// Incoming — одно входящее текстовое сообщение.
type Incoming struct {
	ChatID  int64
	Private bool  // Личный чат с ботом
	From    User  // Автор
	ReplyTo *User // Автор сообщения, на которое ответили (может быть nil)
	Text    string
}

// TokenIssuer выпускает токены API для участников.
type TokenIssuer interface {
	Enabled() bool
	IssueUser(userID int64) (string, time.Time, error)
}

// Handlers — обработчики фич, которые вызывает роутер.
// Admin и Tokens могут быть nil: тогда панель оператора и токены API выключены.
type Handlers struct {
	Members     *members.Service
	Economy     *economy.Handler
	Streak      *streak.Handler
	Wheel       *wheel.Handler
	Missions    *missions.Handler
	Store       *store.Handler
	Leaderboard *leaderboard.Handler
	Admin       *admin.Handler
	Tokens      TokenIssuer
}

// Router маршрутизирует сообщения к обработчикам.
type Router struct {
	cfg         *config.Config
	h           Handlers
	sender      common.Sender
	rateLimiter *middleware.RateLimiter
	parser      *CommandParser
}

// NewRouter создаёт роутер. rateLimiter может быть nil — без ограничения частоты.
func NewRouter(cfg *config.Config, h Handlers, sender common.Sender, rateLimiter *middleware.RateLimiter) *Router {
	return &Router{
		cfg:         cfg,
		h:           h,
		sender:      sender,
		rateLimiter: rateLimiter,
		parser:      NewCommandParser(),
	}
}

// Dispatch обрабатывает одно сообщение.
// Порядок: лимит → сессия → панель оператора (личка) → «спасибо» → команда.
func (r *Router) Dispatch(ctx context.Context, msg Incoming) {
	defer middleware.RecoverFromPanic()

	if msg.From.IsBot || strings.TrimSpace(msg.Text) == "" {
		return
	}

	middleware.LogMessage(msg.From.ID, msg.ChatID, msg.From.Username, msg.Text)

	// Шаг 1: rate limiting
	if r.rateLimiter != nil && !r.rateLimiter.Allow(msg.From.ID) {
		log.WithField("user_id", msg.From.ID).Debug("rate limited")
		return
	}

	// Шаг 2: сессия участника (создаётся при первом обращении)
	member, err := r.h.Members.EnsureMember(ctx, msg.From.ID, infoOf(msg.From, msg.ChatID))
	if err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Warn("EnsureMember failed")
		r.sender.Send(msg.ChatID, common.UserMessage(err))
		return
	}

	// Шаг 3: в личке сначала панель оператора
	if msg.Private && r.h.Admin != nil {
		if r.h.Admin.HandleAdminMessage(ctx, msg.ChatID, msg.From.ID, msg.Text) {
			return
		}
	}

	// Шаг 4: «спасибо» в ответ на сообщение — прогресс социальных миссий
	if msg.ReplyTo != nil && !msg.ReplyTo.IsBot && missions.IsThankYou(msg.Text) {
		// Чат получателя неизвестен — ChatID не трогаем
		to, err := r.h.Members.EnsureMember(ctx, msg.ReplyTo.ID, infoOf(*msg.ReplyTo, 0))
		if err != nil {
			log.WithError(err).WithField("user_id", msg.ReplyTo.ID).Warn("EnsureMember (reply) failed")
			return
		}
		r.h.Missions.HandleThankYou(ctx, msg.ChatID, member, to)
		return
	}

	// Шаг 5: команда
	cmd, args, isCommand := r.parser.ParseCommand(msg.Text)
	if !isCommand {
		return
	}
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("parsed command")

	r.routeCommand(ctx, msg.ChatID, member, cmd, strings.Join(args, " "))
}

// routeCommand маршрутизирует команду к нужному обработчику.
// Команды выключенных фич отвечают коротким отказом.
func (r *Router) routeCommand(ctx context.Context, chatID int64, member *members.Member, cmd, args string) {
	eng := member.Engine
	known := true

	switch cmd {
	case "start", "help", "помощь", "команды":
		r.sender.Send(chatID, helpText(r.cfg))

	case "профиль", "profile", "me":
		r.h.Economy.HandleProfile(ctx, chatID, eng)

	case "история", "history":
		r.h.Economy.HandleHistory(ctx, chatID, eng, args)

	case "стрик", "подарки", "streak":
		r.h.Streak.HandleStreak(ctx, chatID, eng)

	case "забрать", "claim":
		r.h.Streak.HandleClaim(ctx, chatID, eng, args)

	case "колесо", "spin":
		if !r.cfg.FeatureWheelEnabled {
			r.sender.Send(chatID, "🎡 Колесо временно отключено")
			break
		}
		r.h.Wheel.HandleSpin(ctx, chatID, eng)

	case "статколесо", "wheelstats":
		if r.cfg.FeatureWheelEnabled {
			r.h.Wheel.HandleStats(ctx, chatID, eng)
		}

	case "миссии", "missions":
		r.h.Missions.HandleMissions(ctx, chatID, eng)

	case "миссия", "mission":
		r.h.Missions.HandleClaim(ctx, chatID, eng, args)

	case "бонус", "bonus":
		r.h.Missions.HandleWeeklyBonus(ctx, chatID, eng)

	case "магазин", "store":
		if !r.cfg.FeatureStoreEnabled {
			r.sender.Send(chatID, "🛍 Магазин временно закрыт")
			break
		}
		r.h.Store.HandleStore(ctx, chatID, eng)

	case "купить", "redeem":
		if !r.cfg.FeatureStoreEnabled {
			r.sender.Send(chatID, "🛍 Магазин временно закрыт")
			break
		}
		r.h.Store.HandleRedeem(ctx, chatID, eng, args)

	case "топ", "top":
		if r.cfg.FeatureLeaderboardEnabled {
			r.h.Leaderboard.HandleTop(ctx, chatID, eng, args)
		}

	case "токен", "token":
		r.handleToken(chatID, member)

	case "стоп", "stop":
		if r.h.Members.End(member.UserID) {
			r.sender.Send(chatID, "👋 Сессия закрыта. Напиши любую команду, чтобы начать заново")
		}

	default:
		known = false
	}

	if known {
		metrics.Commands.WithLabelValues(cmd).Inc()
	}
}

// handleToken выдаёт токен API. Только в личке: токен — секрет.
//
// Формат ответа:
//
//	🔑 Токен для API (действует до 11.03.2026 12:00):
//
//	eyJhbGciOi...
func (r *Router) handleToken(chatID int64, member *members.Member) {
	if r.h.Tokens == nil || !r.h.Tokens.Enabled() {
		r.sender.Send(chatID, "🔑 API недоступно")
		return
	}
	if chatID != member.UserID {
		r.sender.Send(chatID, "🔑 Токен выдаётся только в личных сообщениях")
		return
	}
	token, expires, err := r.h.Tokens.IssueUser(member.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", member.UserID).Error("Ошибка выпуска токена")
		r.sender.Send(chatID, common.UserMessage(err))
		return
	}
	r.sender.Send(chatID, fmt.Sprintf("🔑 Токен для API (действует до %s):\n\n%s",
		expires.Format("02.01.2006 15:04"), token))
}

func infoOf(u User, chatID int64) members.UpdateInfo {
	return members.UpdateInfo{
		ChatID:    chatID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// helpText — список команд с учётом включённых фич.
func helpText(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString("👋 Я бот наград. Команды:\n\n")
	sb.WriteString("!профиль — уровень, опыт и монеты\n")
	sb.WriteString("!стрик — подарки 7 дней\n")
	sb.WriteString("!забрать — забрать подарок дня\n")
	sb.WriteString("!миссии — задания недели\n")
	sb.WriteString("!миссия <id> — получить награду за миссию\n")
	sb.WriteString("!бонус — недельный бонус\n")
	if cfg.FeatureWheelEnabled {
		sb.WriteString("!колесо — крутить колесо удачи\n")
		sb.WriteString("!статколесо — статистика колеса\n")
	}
	if cfg.FeatureStoreEnabled {
		sb.WriteString("!магазин — призы за монеты\n")
		sb.WriteString("!купить <id> — обменять монеты на приз\n")
	}
	if cfg.FeatureLeaderboardEnabled {
		sb.WriteString("!топ [неделя|всё] — таблица лидеров\n")
	}
	sb.WriteString("!история [N] — последние операции\n")
	if cfg.FeatureAPIEnabled && cfg.APIJWTSecret != "" {
		sb.WriteString("!токен — ключ для API (только в личке)\n")
	}
	sb.WriteString("!стоп — закрыть сессию\n\n")
	sb.WriteString("💡 Ответь «спасибо» на сообщение участника — это тоже миссия")
	return sb.String()
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// "/start@rewards_bot" → "start": суффикс с именем бота отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
