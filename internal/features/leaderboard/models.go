// Package leaderboard — таблицы лидеров: недельная и за всё время.
// Строки каталога смешиваются с живыми сессиями; место считается только для показа
// и не меняет Rank в профиле.
// models.go описывает строки и таблицы.
package leaderboard

import (
	"strings"

	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// Period — период таблицы.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "all_time"
)

// ParsePeriod разбирает аргумент команды. Пусто — неделя.
func ParsePeriod(s string) (Period, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "неделя", "week", "weekly":
		return PeriodWeekly, true
	case "всё", "все", "all", "all_time", "alltime":
		return PeriodAllTime, true
	default:
		return "", false
	}
}

// Title — заголовок таблицы.
func (p Period) Title() string {
	if p == PeriodAllTime {
		return "за всё время"
	}
	return "недели"
}

// Entry — строка таблицы.
type Entry struct {
	Rank int
	Name string
	Tier economy.Tier
	XP   int64
	You  bool // Строка смотрящего
	Live bool // Живая сессия, а не строка каталога
}

// Board — посчитанная таблица.
type Board struct {
	Period  Period
	Entries []Entry // Все строки по местам
	You     Entry
}

// Top возвращает первые limit строк.
func (b Board) Top(limit int) []Entry {
	if limit <= 0 || limit >= len(b.Entries) {
		return b.Entries
	}
	return b.Entries[:limit]
}

// GapToTop — сколько XP не хватает до первого места. 0 — уже первый.
func (b Board) GapToTop() int64 {
	if len(b.Entries) == 0 || b.You.Rank <= 1 {
		return 0
	}
	return b.Entries[0].XP - b.You.XP
}
