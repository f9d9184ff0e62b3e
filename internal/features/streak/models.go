// Package streak — экран 7-дневного стрика: доска дней, получение подарка,
// ежедневная смена дня и напоминания.
// models.go описывает отчёты фоновых задач и отметки дней.
package streak

import "serotonyl.ru/rewards-bot/internal/features/economy"

// RolloverReport — итог ежедневной смены дня по всем сессиям.
type RolloverReport struct {
	Total     int   // Сколько сессий обработано
	Advanced  int   // Сколько перешло на следующий день
	Completed int   // Сколько уже на последнем дне
	Days      []int // Новые текущие дни (без повторов)
}

// slotMarks — отметки состояний дня на доске.
var slotMarks = map[economy.SlotState]string{
	economy.SlotClaimed:   "✅",
	economy.SlotCurrent:   "🎁",
	economy.SlotFuture:    "🔒",
	economy.SlotUnclaimed: "❌",
}
