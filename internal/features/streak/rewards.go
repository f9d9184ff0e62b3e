// Package streak — rewards.go форматирует награды дней стрика.
package streak

import (
	"fmt"
	"strings"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// FormatReward возвращает подпись награды дня.
// Большой приз показывает то, что реально начисляется по правилам.
//
// Примеры:
//
//	{xp 40}   → "40 XP"
//	{coins 50} → "50 монет"
//	{mega}    → "500 монет + 100 XP"
func FormatReward(d catalog.StreakDay, rules economy.Rules) string {
	switch d.Kind {
	case catalog.StreakXP:
		return common.FormatXP(d.Value)
	case catalog.StreakCoins:
		return common.FormatCoins(d.Value)
	default:
		return common.FormatCoins(rules.MegaCoins) + " + " + common.FormatXP(rules.MegaXP)
	}
}

// FormatBoard рисует доску стрика: по строке на день.
//
//	✅ День 1 — 20 XP
//	🎁 День 3 — 40 XP ← сегодня
//	🔒 День 7 — 🏆 500 монет + 100 XP
func FormatBoard(slots []economy.StreakSlot, rules economy.Rules) string {
	var sb strings.Builder
	for _, s := range slots {
		reward := FormatReward(s.StreakDay, rules)
		if s.Kind == catalog.StreakMega {
			reward = "🏆 " + reward
		}
		fmt.Fprintf(&sb, "%s День %d — %s", slotMarks[s.State], s.Day, reward)
		if s.State == economy.SlotCurrent {
			sb.WriteString(" ← сегодня")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// FormatClaim — текст об успешном получении подарка.
func FormatClaim(c economy.StreakClaim) string {
	if c.Mega() {
		return fmt.Sprintf("🏆 БОЛЬШОЙ ПРИЗ %d-го дня!\n\n%s\n%s",
			c.Day, common.FormatSignedCoins(c.Reward.Coins), common.FormatSignedXP(c.Reward.XP))
	}
	return fmt.Sprintf("🎉 Подарок %d-го дня получен: %s", c.Day, c.Event.Label())
}
