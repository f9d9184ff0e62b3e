// Package leaderboard — handlers.go обрабатывает команду !топ [неделя|всё].
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// DefaultTopSize — сколько строк показывается в таблице.
const DefaultTopSize = 10

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// Handler обрабатывает команды таблицы лидеров.
type Handler struct {
	service *Service
	sender  common.Sender
	size    int
}

// NewHandler создаёт обработчик таблицы лидеров.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender, size: DefaultTopSize}
}

// HandleTop обрабатывает команду !топ.
//
// Формат ответа:
//
//	🏆 Лидеры недели
//
//	🥇 Сара — 2 300 XP
//	🥈 Мохаммад — 2 100 XP
//	🥉 Реза Тегерани — 1 900 XP
//	4. Марьям Хоссейни — 1 850 XP
//	...
//	👉 6. Ты (Амир) — 40 XP
//
//	До первого места: 2 260 XP
func (h *Handler) HandleTop(_ context.Context, chatID int64, eng *economy.Engine, args string) {
	period, ok := ParsePeriod(args)
	if !ok {
		h.sendMessage(chatID, "❌ Использование: !топ [неделя|всё]")
		return
	}

	board := h.service.Board(period, eng)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Лидеры %s\n", period.Title())

	top := board.Top(h.size)
	youShown := false
	for _, e := range top {
		sb.WriteString("\n")
		sb.WriteString(FormatEntry(e))
		youShown = youShown || e.You
	}
	if !youShown && board.You.Rank > 0 {
		sb.WriteString("\n...\n")
		sb.WriteString(FormatEntry(board.You))
	}

	if gap := board.GapToTop(); gap > 0 {
		fmt.Fprintf(&sb, "\n\nДо первого места: %s", common.FormatXP(gap))
	} else if board.You.Rank == 1 {
		sb.WriteString("\n\n🏆 Ты на первом месте!")
	}
	h.sendMessage(chatID, sb.String())
}

// FormatEntry форматирует строку таблицы.
func FormatEntry(e Entry) string {
	place := fmt.Sprintf("%d.", e.Rank)
	if m, ok := medals[e.Rank]; ok {
		place = m
	}
	name := e.Name
	if e.You {
		return fmt.Sprintf("👉 %s Ты (%s) — %s", place, name, common.FormatXP(e.XP))
	}
	return fmt.Sprintf("%s %s — %s", place, name, common.FormatXP(e.XP))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
