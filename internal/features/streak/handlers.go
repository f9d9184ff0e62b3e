// Package streak — handlers.go обрабатывает команды !стрик и !забрать.
package streak

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/tips"
)

// Handler обрабатывает команды стрика.
type Handler struct {
	sender common.Sender
	tips   *tips.Service // Может быть nil
}

// NewHandler создаёт обработчик стрика.
func NewHandler(sender common.Sender, tipsService *tips.Service) *Handler {
	return &Handler{sender: sender, tips: tipsService}
}

// HandleStreak обрабатывает команду !стрик — доска 7 дней.
// Совет дня приходит отдельным сообщением, когда будет готов,
// и не задерживает ответ.
//
// Формат ответа:
//
//	🔥 Подарки 7 дней
//
//	✅ День 1 — 20 XP
//	✅ День 2 — 50 монет
//	🎁 День 3 — 40 XP ← сегодня
//	...
//	Напиши !забрать, чтобы получить подарок
func (h *Handler) HandleStreak(_ context.Context, chatID int64, eng *economy.Engine) {
	slots := eng.StreakBoard()
	day := eng.CurrentDay()

	var sb strings.Builder
	sb.WriteString("🔥 Подарки 7 дней\n\n")
	sb.WriteString(FormatBoard(slots, eng.Rules()))
	if eng.CurrentDayClaimed() {
		sb.WriteString("\n\n✅ Подарок сегодня уже получен, возвращайся завтра")
	} else {
		sb.WriteString("\n\nНапиши !забрать, чтобы получить подарок")
	}
	h.sendMessage(chatID, sb.String())

	if h.tips != nil {
		h.tips.FetchAsync(day, func(tip string) {
			h.sendMessage(chatID, "💡 "+tip)
		})
	}
}

// HandleClaim обрабатывает команду !забрать [день].
// Без аргумента забирается подарок текущего дня.
func (h *Handler) HandleClaim(_ context.Context, chatID int64, eng *economy.Engine, args string) {
	day := eng.CurrentDay()
	if arg := strings.TrimSpace(args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			h.sendMessage(chatID, "❌ Использование: !забрать [номер дня]")
			return
		}
		day = n
	}

	claim, err := eng.ClaimStreakDay(day)
	if err != nil {
		if !common.IsRejection(err) {
			log.WithError(err).WithField("day", day).Error("Ошибка получения подарка стрика")
		}
		h.sendMessage(chatID, common.UserMessage(err))
		return
	}

	bal := eng.Balance()
	h.sendMessage(chatID, FormatClaim(claim)+"\n\n💰 "+common.FormatCoins(bal.Coins)+" • ⭐ "+common.FormatXP(bal.XP))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
