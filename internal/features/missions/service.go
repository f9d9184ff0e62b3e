// Package missions — service.go начисляет прогресс миссий по внешним событиям.
// Сам движок прогресс не придумывает: он приходит из благодарностей в чате
// (социальные миссии) и покупок в магазине (миссии покупок).
package missions

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// Service начисляет прогресс миссий.
type Service struct {
	loc *time.Location
	now func() time.Time

	mu      sync.Mutex
	thanked map[thanksKey]time.Time // Начало дня последней благодарности
}

// NewService создаёт сервис миссий. loc — зона для границы суток.
func NewService(loc *time.Location) *Service {
	return &Service{
		loc:     loc,
		now:     time.Now,
		thanked: make(map[thanksKey]time.Time),
	}
}

// Progress добавляет n к прогрессу всех незавершённых миссий категории.
// Полученные и уже выполненные миссии не трогаются.
func (s *Service) Progress(eng *economy.Engine, category catalog.MissionCategory, n int) []ProgressUpdate {
	var updates []ProgressUpdate
	for _, slot := range eng.MissionBoard() {
		if slot.Category != category || slot.State != economy.MissionLocked {
			continue
		}
		progress, err := eng.AddMissionProgress(slot.ID, n)
		if err != nil {
			log.WithError(err).WithField("mission", slot.ID).Debug("Прогресс миссии не начислен")
			continue
		}
		m := slot.Mission
		m.Progress = progress
		updates = append(updates, ProgressUpdate{Mission: m, Completed: m.IsComplete()})
	}
	return updates
}

// GiveThanks засчитывает благодарность from → to в социальные миссии to.
//
// Правила:
//   - себя благодарить нельзя
//   - одна и та же пара — не чаще раза в сутки
func (s *Service) GiveThanks(from, to *members.Member) ([]ProgressUpdate, error) {
	if from.UserID == to.UserID {
		return nil, common.ErrThanksSelf
	}

	today := common.StartOfDay(s.now(), s.loc)
	key := thanksKey{from: from.UserID, to: to.UserID}

	s.mu.Lock()
	if last, ok := s.thanked[key]; ok && !last.Before(today) {
		s.mu.Unlock()
		return nil, common.ErrThanksAlreadyGiven
	}
	s.thanked[key] = today
	s.mu.Unlock()

	updates := s.Progress(to.Engine, catalog.MissionSocial, 1)

	log.WithFields(log.Fields{
		"from":    from.UserID,
		"to":      to.UserID,
		"updated": len(updates),
	}).Debug("Благодарность засчитана")

	return updates, nil
}
