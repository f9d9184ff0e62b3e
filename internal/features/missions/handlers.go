// Package missions — handlers.go обрабатывает команды !миссии, !миссия, !бонус
// и благодарности в ответ на сообщение.
package missions

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// Handler обрабатывает команды миссий.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик миссий.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleMissions обрабатывает команду !миссии — список миссий.
//
// Формат ответа:
//
//	✨ Миссии
//
//	✅ Ежедневный вход — +20 XP
//	🎁 Пригласи друга — +30 XP → !миссия m3
//	⏳ Первая покупка — 0/1 • +50 XP
//
//	🏆 Недельный бонус: 1/3 миссий
func (h *Handler) HandleMissions(_ context.Context, chatID int64, eng *economy.Engine) {
	slots := eng.MissionBoard()
	st := eng.Snapshot()
	rules := eng.Rules()

	var sb strings.Builder
	sb.WriteString("✨ Миссии\n")
	for _, s := range slots {
		reward := formatMissionReward(s.RewardXP, s.RewardCoins)
		switch s.State {
		case economy.MissionClaimed:
			fmt.Fprintf(&sb, "\n✅ %s — %s", s.Title, reward)
		case economy.MissionClaimable:
			fmt.Fprintf(&sb, "\n🎁 %s — %s → !миссия %s", s.Title, reward, s.ID)
		default:
			fmt.Fprintf(&sb, "\n⏳ %s — %d/%d • %s", s.Title, s.Progress, s.Total, reward)
		}
	}

	sb.WriteString("\n\n🏆 Недельный бонус ")
	switch {
	case st.WeeklyBonusClaimed:
		sb.WriteString("получен")
	case st.WeeklyBonusAvailable(rules.WeeklyThreshold):
		fmt.Fprintf(&sb, "доступен: %s → !бонус", common.FormatCoins(rules.WeeklyBonus))
	default:
		fmt.Fprintf(&sb, "(%s): %d/%d %s", common.FormatCoins(rules.WeeklyBonus),
			len(st.ClaimedMissions), rules.WeeklyThreshold, common.PluralizeMissions(rules.WeeklyThreshold))
	}
	h.sendMessage(chatID, sb.String())
}

// HandleClaim обрабатывает команду !миссия <id> — получение награды.
func (h *Handler) HandleClaim(_ context.Context, chatID int64, eng *economy.Engine, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		h.sendMessage(chatID, "❌ Использование: !миссия <id>\nСписок миссий: !миссии")
		return
	}

	claim, err := eng.ClaimMission(id)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения миссии")
		return
	}

	text := fmt.Sprintf("✨ Миссия «%s» выполнена: %s", claim.Mission.Title, claim.Event.Label())
	if claim.WeeklyBonusReady {
		text += "\n\n🏆 Доступен недельный бонус! Напиши !бонус"
	}
	h.sendMessage(chatID, text)
}

// HandleWeeklyBonus обрабатывает команду !бонус.
func (h *Handler) HandleWeeklyBonus(_ context.Context, chatID int64, eng *economy.Engine) {
	ev, err := eng.ClaimWeeklyBonus()
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения недельного бонуса")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🏆 %s: %s\n💰 Баланс: %s",
		ev.Title, ev.Label(), common.FormatCoins(eng.Balance().Coins)))
}

// HandleThankYou обрабатывает «спасибо» в ответ на сообщение участника.
// Отказы (себе, повторно) молчаливые, как и отсутствие социальных миссий.
func (h *Handler) HandleThankYou(_ context.Context, chatID int64, from, to *members.Member) {
	updates, err := h.service.GiveThanks(from, to)
	if err != nil {
		log.WithError(err).Debug("Благодарность не засчитана")
		return
	}
	if len(updates) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🤝 %s получает +1 к социальным миссиям", to.DisplayName())
	for _, u := range updates {
		if u.Completed {
			fmt.Fprintf(&sb, "\n✨ «%s» выполнена! Забери награду: !миссия %s", u.Mission.Title, u.Mission.ID)
		} else {
			fmt.Fprintf(&sb, "\n⏳ «%s»: %d/%d", u.Mission.Title, u.Mission.Progress, u.Mission.Total)
		}
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) replyError(chatID int64, err error, msg string) {
	if !common.IsRejection(err) {
		log.WithError(err).Error(msg)
	}
	h.sendMessage(chatID, common.UserMessage(err))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}

// formatMissionReward — "+20 XP", "+50 монет" или "+20 XP и +50 монет".
func formatMissionReward(xp, coins int64) string {
	switch {
	case xp > 0 && coins > 0:
		return common.FormatSignedXP(xp) + " и " + common.FormatSignedCoins(coins)
	case coins > 0:
		return common.FormatSignedCoins(coins)
	default:
		return common.FormatSignedXP(xp)
	}
}
