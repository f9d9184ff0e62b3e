// Package economy — missions.go содержит миссии и недельный бонус.
package economy

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// ClaimMission выдаёт награду за выполненную миссию.
// Миссию можно получить один раз и только при progress >= total.
func (e *Engine) ClaimMission(id string) (MissionClaim, error) {
	e.mu.Lock()
	claim, err := e.claimMissionLocked(id)
	e.mu.Unlock()
	e.flush()
	return claim, err
}

func (e *Engine) claimMissionLocked(id string) (MissionClaim, error) {
	if e.closed {
		return MissionClaim{}, common.ErrEngineClosed
	}

	m, ok := e.cat.Mission(id)
	if !ok {
		return MissionClaim{}, e.reject(OpMissionClaim, common.ErrMissionNotFound)
	}
	m.Progress = e.progress[id]
	if e.missionClaimed(id) || !m.IsComplete() {
		return MissionClaim{}, e.reject(OpMissionClaim, common.ErrMissionNotEligible)
	}

	e.claimedMissions = append(e.claimedMissions, id)
	delta := e.applyDelta(m.RewardXP, m.RewardCoins)

	amount, unit := m.RewardXP, UnitXP
	subtitle := "Награда опытом"
	if m.RewardXP == 0 && m.RewardCoins > 0 {
		amount, unit = m.RewardCoins, UnitCoins
		subtitle = "Награда монетами"
	}
	ev := e.appendHistory(HistoryEvent{
		Kind:     KindEarn,
		Title:    "Миссия: " + m.Title,
		Subtitle: subtitle,
		Amount:   amount,
		Unit:     unit,
		Delta:    delta,
		Source:   OpMissionClaim,
	})
	e.record(OpMissionClaim, nil, &ev)

	ready := !e.weeklyClaimed && len(e.claimedMissions) == e.rules.WeeklyThreshold

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"mission": id,
		"xp":      delta.XP,
		"coins":   delta.Coins,
	}).Debug("Миссия получена")

	return MissionClaim{Mission: m, Reward: delta, Event: ev, WeeklyBonusReady: ready}, nil
}

func (e *Engine) missionClaimed(id string) bool {
	for _, c := range e.claimedMissions {
		if c == id {
			return true
		}
	}
	return false
}

// AddMissionProgress увеличивает прогресс миссии на n (не выше total).
// Прогресс приходит из внешних событий, например из покупок.
func (e *Engine) AddMissionProgress(id string, n int) (int, error) {
	e.mu.Lock()
	progress, err := e.addMissionProgressLocked(id, n)
	e.mu.Unlock()
	e.flush()
	return progress, err
}

func (e *Engine) addMissionProgressLocked(id string, n int) (int, error) {
	if e.closed {
		return 0, common.ErrEngineClosed
	}
	m, ok := e.cat.Mission(id)
	if !ok {
		return 0, e.reject(OpMissionProgress, common.ErrMissionNotFound)
	}
	if n <= 0 {
		return e.progress[id], e.reject(OpMissionProgress, common.ErrInvalidAmount)
	}

	// Сложение без переполнения: прогресс только растёт и упирается в total
	if cur := e.progress[id]; n >= m.Total-cur {
		e.progress[id] = m.Total
	} else {
		e.progress[id] = cur + n
	}
	e.record(OpMissionProgress, nil, nil)
	return e.progress[id], nil
}

// ClaimWeeklyBonus выдаёт недельный бонус за WeeklyThreshold полученных миссий.
// Бонус выдаётся один раз за сессию.
func (e *Engine) ClaimWeeklyBonus() (HistoryEvent, error) {
	e.mu.Lock()
	ev, err := e.claimWeeklyBonusLocked()
	e.mu.Unlock()
	e.flush()
	return ev, err
}

func (e *Engine) claimWeeklyBonusLocked() (HistoryEvent, error) {
	if e.closed {
		return HistoryEvent{}, common.ErrEngineClosed
	}
	if e.weeklyClaimed || len(e.claimedMissions) < e.rules.WeeklyThreshold {
		return HistoryEvent{}, e.reject(OpWeeklyBonus, common.ErrWeeklyBonusNotEligible)
	}

	e.weeklyClaimed = true
	delta := e.applyDelta(0, e.rules.WeeklyBonus)
	ev := e.appendHistory(HistoryEvent{
		Kind:     KindEarn,
		Title:    "Бонус за " + common.FormatNumber(int64(e.rules.WeeklyThreshold)) + " " + common.PluralizeMissions(e.rules.WeeklyThreshold),
		Subtitle: "Недельная награда",
		Amount:   e.rules.WeeklyBonus,
		Unit:     UnitCoins,
		Delta:    delta,
		Source:   OpWeeklyBonus,
	})
	e.record(OpWeeklyBonus, nil, &ev)

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"coins":   delta.Coins,
	}).Debug("Недельный бонус выдан")

	return ev, nil
}

// MissionBoard возвращает миссии с текущим прогрессом и состоянием.
func (e *Engine) MissionBoard() []MissionSlot {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots := make([]MissionSlot, 0, len(e.cat.Missions))
	for _, m := range e.cat.Missions {
		m.Progress = e.progress[m.ID]
		state := MissionLocked
		switch {
		case e.missionClaimed(m.ID):
			state = MissionClaimed
		case m.IsComplete():
			state = MissionClaimable
		}
		slots = append(slots, MissionSlot{Mission: m, State: state})
	}
	return slots
}
