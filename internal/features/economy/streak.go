// Package economy — streak.go содержит логику 7-дневного стрика.
package economy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
)

// ClaimStreakDay выдаёт награду дня day.
//
// Алгоритм:
//  1. Проверяем, что day — текущий день и он ещё не получен
//  2. Берём награду из каталога (mega платит фиксированные MegaXP/MegaCoins)
//  3. Отмечаем день полученным, начисляем награду, пишем запись в журнал
//
// Иначе — ErrAlreadyClaimedOrNotCurrent без изменений.
func (e *Engine) ClaimStreakDay(day int) (StreakClaim, error) {
	e.mu.Lock()
	claim, err := e.claimStreakDayLocked(day)
	e.mu.Unlock()
	e.flush()
	return claim, err
}

func (e *Engine) claimStreakDayLocked(day int) (StreakClaim, error) {
	if e.closed {
		return StreakClaim{}, common.ErrEngineClosed
	}

	// Шаг 1: только текущий и ещё не полученный день
	if day != e.currentDay || e.claimedDays[day] {
		return StreakClaim{}, e.reject(OpStreakClaim, common.ErrAlreadyClaimedOrNotCurrent)
	}

	// Шаг 2: награда из каталога
	reward, ok := e.cat.StreakDay(day)
	if !ok {
		return StreakClaim{}, e.reject(OpStreakClaim, common.ErrAlreadyClaimedOrNotCurrent)
	}

	var xp, coins int64
	amount, unit := reward.Value, UnitXP
	subtitle := "Ежедневный вход"
	switch reward.Kind {
	case catalog.StreakXP:
		xp = reward.Value
	case catalog.StreakCoins:
		coins = reward.Value
		unit = UnitCoins
	case catalog.StreakMega:
		xp, coins = e.rules.MegaXP, e.rules.MegaCoins
		amount, unit = e.rules.MegaCoins, UnitCoins
		subtitle = "Большой приз недели"
	}

	// Шаг 3: фиксируем
	e.claimedDays[day] = true
	delta := e.applyDelta(xp, coins)
	ev := e.appendHistory(HistoryEvent{
		Kind:     KindEarn,
		Title:    fmt.Sprintf("Подарок за %d-й день стрика", day),
		Subtitle: subtitle,
		Amount:   amount,
		Unit:     unit,
		Delta:    delta,
		Source:   OpStreakClaim,
	})
	e.record(OpStreakClaim, nil, &ev)

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"day":     day,
		"xp":      delta.XP,
		"coins":   delta.Coins,
	}).Debug("Награда стрика выдана")

	return StreakClaim{Day: day, Kind: reward.Kind, Reward: delta, Event: ev}, nil
}

// AdvanceDay переводит стрик на следующий день (вызывается при смене суток).
// На последнем дне возвращает ErrStreakComplete. Полученные дни не сбрасываются.
func (e *Engine) AdvanceDay() (int, error) {
	e.mu.Lock()
	day, err := e.advanceDayLocked()
	e.mu.Unlock()
	e.flush()
	return day, err
}

func (e *Engine) advanceDayLocked() (int, error) {
	if e.closed {
		return e.currentDay, common.ErrEngineClosed
	}
	if e.currentDay >= e.cat.LastStreakDay() {
		return e.currentDay, e.reject(OpStreakAdvance, common.ErrStreakComplete)
	}

	e.currentDay++
	e.record(OpStreakAdvance, nil, nil)

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"day":     e.currentDay,
	}).Debug("Стрик: новый день")

	return e.currentDay, nil
}

// CurrentDay возвращает текущий день стрика.
func (e *Engine) CurrentDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentDay
}

// CurrentDayClaimed — получена ли награда текущего дня.
func (e *Engine) CurrentDayClaimed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claimedDays[e.currentDay]
}

// StreakBoard возвращает все дни стрика с их состоянием.
func (e *Engine) StreakBoard() []StreakSlot {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots := make([]StreakSlot, 0, len(e.cat.Streak))
	for _, d := range e.cat.Streak {
		state := SlotFuture
		switch {
		case e.claimedDays[d.Day]:
			state = SlotClaimed
		case d.Day == e.currentDay:
			state = SlotCurrent
		case d.Day < e.currentDay:
			state = SlotUnclaimed
		}
		slots = append(slots, StreakSlot{StreakDay: d, State: state})
	}
	return slots
}
