// Package wheel — stats.go считает статистику вращений по журналу.
// Return ratio = выиграно / потрачено × 100%.
package wheel

import "serotonyl.ru/rewards-bot/internal/features/economy"

// Stats — статистика колеса за сессию.
type Stats struct {
	Spins      int   // Завершённые вращения
	Wagered    int64 // Потрачено на вращения
	Won        int64 // Фактически начислено
	BiggestWin int64
}

// CollectStats собирает статистику из журнала.
// Каждое завершённое вращение — одна запись OpSpinSettle; стоимость берётся из правил.
func CollectStats(history []economy.HistoryEvent, spinCost int64) Stats {
	var s Stats
	for _, ev := range history {
		if ev.Source != economy.OpSpinSettle {
			continue
		}
		s.Spins++
		s.Wagered += spinCost
		s.Won += ev.Delta.Coins
		s.BiggestWin = max(s.BiggestWin, ev.Delta.Coins)
	}
	return s
}

// Net — чистый результат: выиграно минус потрачено.
func (s Stats) Net() int64 {
	return s.Won - s.Wagered
}

// ReturnRatio возвращает процент возврата. Без вращений — 0.
func (s Stats) ReturnRatio() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Wagered) * 100
}
