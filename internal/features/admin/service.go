// Package admin — service.go содержит проверку доступа, состояния диалогов
// и действия оператора над сессиями.
package admin

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/streak"
)

// Service — действия оператора.
type Service struct {
	admins  map[int64]bool
	members *members.Service
	streak  *streak.Service
	now     func() time.Time

	mu     sync.Mutex
	states map[int64]*State // Состояния диалогов (in-memory)
}

// NewService создаёт сервис панели. adminIDs — список операторов.
func NewService(adminIDs []int64, memberService *members.Service, streakService *streak.Service) *Service {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Service{
		admins:  admins,
		members: memberService,
		streak:  streakService,
		now:     time.Now,
		states:  make(map[int64]*State),
	}
}

// IsAdmin — есть ли пользователь в списке операторов.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins[userID]
}

// GetState возвращает текущее состояние диалога или nil, если оно истекло.
func (s *Service) GetState(userID int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	if s.now().After(state.ExpiresAt) {
		delete(s.states, userID)
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = &State{
		State:     stateName,
		Data:      data,
		ExpiresAt: s.now().Add(stateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// Sessions возвращает открытые сессии в порядке открытия.
func (s *Service) Sessions() []*members.Member {
	var out []*members.Member
	s.members.ForEach(func(m *members.Member) {
		out = append(out, m)
	})
	return out
}

// AddProgress вручную добавляет прогресс миссии участнику.
func (s *Service) AddProgress(operatorID int64, m *members.Member, missionID string, n int) (int, error) {
	progress, err := m.Engine.AddMissionProgress(missionID, n)
	if err != nil {
		return progress, err
	}
	log.WithFields(log.Fields{
		"operator": operatorID,
		"user_id":  m.UserID,
		"mission":  missionID,
		"progress": progress,
	}).Info("Оператор добавил прогресс миссии")
	return progress, nil
}

// Rollover запускает смену дня стрика вне расписания.
func (s *Service) Rollover(ctx context.Context, operatorID int64) (streak.RolloverReport, error) {
	log.WithField("operator", operatorID).Info("Оператор запустил смену дня")
	return s.streak.DailyRollover(ctx)
}

// EndSession закрывает сессию участника.
func (s *Service) EndSession(operatorID int64, userID int64) bool {
	log.WithFields(log.Fields{
		"operator": operatorID,
		"user_id":  userID,
	}).Info("Оператор закрывает сессию")
	return s.members.End(userID)
}
