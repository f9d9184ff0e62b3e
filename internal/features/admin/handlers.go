// Package admin — handlers.go обрабатывает сообщения оператора.
// Панель работает через клавиатуру в личных сообщениях.
// Поток: клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// Handler обрабатывает сообщения оператора.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик панели.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleAdminMessage обрабатывает сообщение от оператора в личке.
// Возвращает false, если сообщение не для панели и его нужно обработать как обычное.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}
	text = strings.TrimSpace(text)

	if text == ButtonCancel {
		h.service.ClearState(userID)
		h.showKeyboard(chatID, "Действие отменено")
		return true
	}

	// Продолжаем начатый диалог
	if state := h.service.GetState(userID); state != nil {
		switch state.State {
		case StateProgressSelect:
			h.handleProgressSelect(chatID, userID, text, state)
			return true
		case StateProgressMission:
			h.handleProgressMission(chatID, userID, text, state)
			return true
		case StateEndSelect:
			h.handleEndSelect(chatID, userID, text, state)
			return true
		}
	}

	// Кнопки клавиатуры
	switch text {
	case ButtonSessions:
		h.showSessions(chatID)
		return true
	case ButtonRollover:
		h.rollover(ctx, chatID, userID)
		return true
	case ButtonProgress:
		h.startSelect(chatID, userID, StateProgressSelect)
		return true
	case ButtonEnd:
		h.startSelect(chatID, userID, StateEndSelect)
		return true
	case "Админ", "Панель", "админ", "панель", "/admin":
		h.showKeyboard(chatID, "✅ Панель оператора открыта")
		return true
	}

	return false
}

// showKeyboard отображает клавиатуру панели.
// Без поддержки клавиатуры кнопки выводятся списком.
func (h *Handler) showKeyboard(chatID int64, text string) {
	if ks, ok := h.sender.(common.KeyboardSender); ok {
		ks.SendKeyboard(chatID, text, keyboard)
		return
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nДействия:")
	for _, row := range keyboard {
		for _, b := range row {
			sb.WriteString("\n• " + b)
		}
	}
	h.sendMessage(chatID, sb.String())
}

// showSessions выводит открытые сессии с балансом и днём стрика.
func (h *Handler) showSessions(chatID int64) {
	sessions := h.service.Sessions()
	if len(sessions) == 0 {
		h.sendMessage(chatID, "Открытых сессий нет")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Открытые сессии: %d\n", len(sessions))
	for i, m := range sessions {
		st := m.Engine.Snapshot()
		fmt.Fprintf(&sb, "\n%d. %s — день %d, %s, %s, миссий %d",
			i+1, m.DisplayName(), st.CurrentDay,
			common.FormatCoins(st.Profile.Coins), common.FormatXP(st.Profile.XP),
			len(st.ClaimedMissions))
		if st.SpinInProgress {
			sb.WriteString(" 🎡")
		}
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) rollover(ctx context.Context, chatID int64, userID int64) {
	report, err := h.service.Rollover(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка смены дня по команде оператора")
		h.sendMessage(chatID, "❌ Смена дня прервана: "+err.Error())
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🌅 День сменён: %d из %d сессий, на последнем дне — %d",
		report.Advanced, report.Total, report.Completed))
}

// --- Выбор участника (общий шаг) ---

// startSelect — Шаг 1: показать сессии и ждать номер.
func (h *Handler) startSelect(chatID int64, userID int64, next string) {
	sessions := h.service.Sessions()
	if len(sessions) == 0 {
		h.sendMessage(chatID, "Открытых сессий нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("Выберите участника (отправьте номер):\n")
	for i, m := range sessions {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, m.DisplayName())
	}
	h.sendMessage(chatID, sb.String())
	h.service.SetState(userID, next, sessions)
}

// pick разбирает номер участника из списка состояния.
func pick(text string, state *State) (*members.Member, bool) {
	sessions, ok := state.Data.([]*members.Member)
	if !ok {
		return nil, false
	}
	num, err := strconv.Atoi(text)
	if err != nil || num < 1 || num > len(sessions) {
		return nil, false
	}
	return sessions[num-1], true
}

// --- Прогресс миссии (3 шага) ---

// handleProgressSelect — Шаг 2: участник выбран, ждём миссию.
func (h *Handler) handleProgressSelect(chatID int64, userID int64, text string, state *State) {
	m, ok := pick(text, state)
	if !ok {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Миссии %s (отправьте \"<id> [количество]\"):\n", m.DisplayName())
	for _, s := range m.Engine.MissionBoard() {
		fmt.Fprintf(&sb, "\n%s — %s %d/%d (%s)", s.ID, s.Title, s.Progress, s.Total, s.State)
	}
	h.sendMessage(chatID, sb.String())
	h.service.SetState(userID, StateProgressMission, m)
}

// handleProgressMission — Шаг 3: начисляем прогресс.
func (h *Handler) handleProgressMission(chatID int64, userID int64, text string, state *State) {
	m := state.Data.(*members.Member)

	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		h.sendMessage(chatID, "❌ Формат: <id> [количество]")
		return
	}
	n := 1
	if len(fields) == 2 {
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			h.sendMessage(chatID, "❌ Количество должно быть числом")
			return
		}
		n = v
	}

	progress, err := h.service.AddProgress(userID, m, fields[0], n)
	h.service.ClearState(userID)
	if err != nil {
		h.sendMessage(chatID, common.UserMessage(err))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ %s: миссия %s — прогресс %d", m.DisplayName(), fields[0], progress))
}

// --- Закрыть сессию (2 шага) ---

func (h *Handler) handleEndSelect(chatID int64, userID int64, text string, state *State) {
	m, ok := pick(text, state)
	if !ok {
		h.sendMessage(chatID, "❌ Неверный номер")
		return
	}
	h.service.ClearState(userID)

	if !h.service.EndSession(userID, m.UserID) {
		h.sendMessage(chatID, "Сессия уже закрыта")
		return
	}
	h.sendMessage(chatID, "✅ Сессия закрыта: "+m.DisplayName())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
