// Package economy — handlers.go обрабатывает команды !профиль и !история.
package economy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
)

// DefaultHistoryLimit — сколько записей журнала показывает !история без аргумента.
const DefaultHistoryLimit = 10

// maxHistoryLimit — верхняя граница для !история N.
const maxHistoryLimit = 50

// Handler обрабатывает команды профиля и журнала.
type Handler struct {
	sender common.Sender
	loc    *time.Location
}

// NewHandler создаёт обработчик. loc — часовой пояс для дат журнала.
func NewHandler(sender common.Sender, loc *time.Location) *Handler {
	return &Handler{sender: sender, loc: loc}
}

// HandleProfile обрабатывает команду !профиль.
//
// Формат ответа:
//
//	👤 Привет, @sara!
//	🏅 Уровень: золото • Ранг 12 • Лвл 2
//	⭐ Опыт: 1 450 XP
//	💰 Монеты: 2 450 монет
//	🔥 День стрика: 3 из 7
func (h *Handler) HandleProfile(_ context.Context, chatID int64, eng *Engine) {
	st := eng.Snapshot()
	p := st.Profile

	text := fmt.Sprintf(
		"👤 Привет, %s!\n\n"+
			"🏅 Уровень: %s • Ранг %d • Лвл %d\n"+
			"⭐ Опыт: %s\n"+
			"💰 Монеты: %s\n"+
			"🔥 День стрика: %d из %d",
		p.Name,
		p.Tier.Title(), p.Rank, p.Level(),
		common.FormatXP(p.XP),
		common.FormatCoins(p.Coins),
		st.CurrentDay, eng.Catalog().LastStreakDay(),
	)
	if st.SpinInProgress {
		text += "\n🎡 Колесо крутится..."
	}
	h.sendMessage(chatID, text)
}

// HandleHistory обрабатывает команду !история [N] — последние записи журнала,
// новые сначала.
//
// Формат ответа:
//
//	📜 История операций
//	💰 2 450 монет • ⭐ 1 490 XP
//
//	🟢 +40 XP — Подарок за 3-й день стрика
//	   Ежедневный вход • 12.05.2026 10:15
func (h *Handler) HandleHistory(_ context.Context, chatID int64, eng *Engine, args string) {
	limit := DefaultHistoryLimit
	if arg := strings.TrimSpace(args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			h.sendMessage(chatID, "❌ Использование: !история [количество]")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	bal := eng.Balance()
	events := eng.History(limit)

	var sb strings.Builder
	sb.WriteString("📜 История операций\n")
	fmt.Fprintf(&sb, "💰 %s • ⭐ %s\n", common.FormatCoins(bal.Coins), common.FormatXP(bal.XP))

	if len(events) == 0 {
		sb.WriteString("\nПока ни одной операции")
		h.sendMessage(chatID, sb.String())
		return
	}

	for _, ev := range events {
		sb.WriteString("\n")
		sb.WriteString(FormatEvent(ev, h.loc))
	}
	h.sendMessage(chatID, sb.String())
}

// FormatEvent форматирует запись журнала в две строки.
func FormatEvent(ev HistoryEvent, loc *time.Location) string {
	line := fmt.Sprintf("%s %s — %s", kindMark(ev.Kind), ev.Label(), ev.Title)
	meta := common.FormatDateTime(ev.OccurredAt, loc)
	if ev.Subtitle != "" {
		meta = ev.Subtitle + " • " + meta
	}
	return line + "\n   " + meta
}

func kindMark(k EventKind) string {
	switch k {
	case KindEarn:
		return "🟢"
	case KindSpend:
		return "🔴"
	default:
		return "🎁"
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
