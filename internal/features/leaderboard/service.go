// Package leaderboard — service.go собирает таблицы из каталога и сессий.
package leaderboard

import (
	"sort"
	"time"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// WeekStart — первый день недели для недельной таблицы.
const WeekStart = time.Saturday

// Sessions — источник открытых сессий.
type Sessions interface {
	ForEach(fn func(*members.Member))
}

// Service считает таблицы лидеров.
type Service struct {
	cat      *catalog.Catalog
	sessions Sessions
	loc      *time.Location
	now      func() time.Time
}

// NewService создаёт сервис таблиц лидеров.
func NewService(cat *catalog.Catalog, sessions Sessions, loc *time.Location) *Service {
	return &Service{cat: cat, sessions: sessions, loc: loc, now: time.Now}
}

// Board возвращает таблицу за период. viewer — движок того, кто смотрит;
// он попадает в таблицу, даже если его сессия ещё не в списке.
//
// Алгоритм:
//  1. Берём строки каталога за период
//  2. Добавляем живые сессии: неделя — XP, заработанный с начала недели,
//     всё время — текущий XP профиля
//  3. Сортируем по XP (при равенстве живые выше, затем по имени) и нумеруем
func (s *Service) Board(period Period, viewer *economy.Engine) Board {
	// Шаг 1: каталог
	seed := s.cat.Leaderboards.Weekly
	if period == PeriodAllTime {
		seed = s.cat.Leaderboards.AllTime
	}
	entries := make([]Entry, 0, len(seed)+1)
	for _, l := range seed {
		entries = append(entries, Entry{Name: l.Name, Tier: economy.Tier(l.Tier), XP: l.XP})
	}

	// Шаг 2: живые сессии
	since := common.StartOfWeek(s.now(), s.loc, WeekStart)
	seen := false
	add := func(eng *economy.Engine) {
		st := eng.Snapshot()
		e := Entry{Name: st.Profile.Name, Tier: st.Profile.Tier, XP: st.Profile.XP, Live: true}
		if period == PeriodWeekly {
			e.XP = WeeklyXP(st.History, since)
		}
		if eng == viewer {
			e.You = true
			seen = true
		}
		entries = append(entries, e)
	}
	if s.sessions != nil {
		s.sessions.ForEach(func(m *members.Member) { add(m.Engine) })
	}
	if viewer != nil && !seen {
		add(viewer)
	}

	// Шаг 3: места
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		if a.Live != b.Live {
			return a.Live
		}
		return a.Name < b.Name
	})

	board := Board{Period: period, Entries: entries}
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].You {
			board.You = entries[i]
		}
	}
	return board
}

// WeeklyXP — сумма начисленного XP с момента since.
// Журнал идёт от новых к старым, поэтому обход останавливается на первой старой записи.
func WeeklyXP(history []economy.HistoryEvent, since time.Time) int64 {
	var xp int64
	for _, ev := range history {
		if ev.OccurredAt.Before(since) {
			break
		}
		if ev.Delta.XP > 0 {
			xp += ev.Delta.XP
		}
	}
	return xp
}
