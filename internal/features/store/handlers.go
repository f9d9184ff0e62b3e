// Package store — экран магазина призов: витрина и покупка за монеты.
// handlers.go обрабатывает команды !магазин и !купить.
package store

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/missions"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	sender   common.Sender
	missions *missions.Service // Покупка засчитывается в миссии покупок; может быть nil
}

// NewHandler создаёт обработчик магазина.
func NewHandler(sender common.Sender, missionsService *missions.Service) *Handler {
	return &Handler{sender: sender, missions: missionsService}
}

// HandleStore обрабатывает команду !магазин — витрина призов.
//
// Формат ответа:
//
//	🛍 Магазин призов
//	💰 У тебя: 2 450 монет
//
//	⭐ Промокод −20% — 500 монет → !купить r1
//	   На покупку от 200 тысяч туманов
//	🔒 Фруктовый сюрприз — 1 500 монет (не хватает 50)
func (h *Handler) HandleStore(_ context.Context, chatID int64, eng *economy.Engine) {
	coins := eng.Balance().Coins

	var sb strings.Builder
	sb.WriteString("🛍 Магазин призов\n")
	fmt.Fprintf(&sb, "💰 У тебя: %s\n", common.FormatCoins(coins))

	for _, item := range eng.Catalog().Rewards {
		sb.WriteString("\n")
		sb.WriteString(FormatItem(item, coins))
	}
	h.sendMessage(chatID, sb.String())
}

// FormatItem форматирует приз витрины с учётом баланса.
func FormatItem(item catalog.RewardItem, coins int64) string {
	mark := "🎁"
	if item.Featured {
		mark = "⭐"
	}
	line := fmt.Sprintf("%s %s — %s", mark, item.Title, common.FormatCoins(item.Cost))
	if coins >= item.Cost {
		line += " → !купить " + item.ID
	} else {
		line = fmt.Sprintf("🔒 %s — %s (не хватает %s)",
			item.Title, common.FormatCoins(item.Cost), common.FormatNumber(item.Cost-coins))
	}
	if item.Description != "" {
		line += "\n   " + item.Description
	}
	return line
}

// HandleRedeem обрабатывает команду !купить <id>.
func (h *Handler) HandleRedeem(_ context.Context, chatID int64, eng *economy.Engine, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		h.sendMessage(chatID, "❌ Использование: !купить <id>\nВитрина: !магазин")
		return
	}

	r, err := eng.RedeemRewardByID(id)
	if err != nil {
		if !common.IsRejection(err) {
			log.WithError(err).WithField("reward", id).Error("Ошибка покупки приза")
		}
		h.sendMessage(chatID, common.UserMessage(err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 Приз «%s» твой!\nСписано: %s\n💰 Осталось: %s",
		r.Item.Title, common.FormatCoins(r.Item.Cost), common.FormatCoins(r.Balance.Coins))

	if h.missions != nil {
		for _, u := range h.missions.Progress(eng, catalog.MissionShopping, 1) {
			if u.Completed {
				fmt.Fprintf(&sb, "\n✨ Миссия «%s» выполнена! Забери награду: !миссия %s", u.Mission.Title, u.Mission.ID)
			}
		}
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
