// Package streak — service.go содержит фоновую логику стрика:
// ежедневную смену дня и напоминания о незабранном подарке.
package streak

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/tips"
)

// Sessions — источник открытых сессий.
type Sessions interface {
	ForEach(fn func(*members.Member))
}

// Service управляет сменой дня и напоминаниями.
type Service struct {
	sessions Sessions
	tips     *tips.Service // Может быть nil
	sender   common.Sender

	mu       sync.Mutex
	reminded map[int64]int // user_id → день, за который уже напомнили
}

// NewService создаёт сервис стрика.
func NewService(sessions Sessions, tipsService *tips.Service, sender common.Sender) *Service {
	return &Service{
		sessions: sessions,
		tips:     tipsService,
		sender:   sender,
		reminded: make(map[int64]int),
	}
}

// DailyRollover переводит все сессии на следующий день стрика.
// Запускается кроном в полночь.
//
// Алгоритм:
//  1. Для каждой сессии вызываем AdvanceDay
//  2. Сессии на последнем дне остаются на месте (ErrStreakComplete)
//  3. Сбрасываем вчерашние советы и подгружаем новые заранее
//
// Смена дня молчаливая: о подарке пользователь узнает из напоминания.
func (s *Service) DailyRollover(ctx context.Context) (RolloverReport, error) {
	var report RolloverReport
	seen := make(map[int]bool)

	s.sessions.ForEach(func(m *members.Member) {
		if ctx.Err() != nil {
			return
		}
		report.Total++

		// Шаг 1-2: двигаем день
		day, err := m.Engine.AdvanceDay()
		switch {
		case err == nil:
			report.Advanced++
		case errors.Is(err, common.ErrStreakComplete):
			report.Completed++
		case errors.Is(err, common.ErrEngineClosed):
			// Сессию закрыли во время обхода
			return
		default:
			log.WithError(err).WithField("user_id", m.UserID).Error("Ошибка смены дня стрика")
			return
		}
		if !seen[day] {
			seen[day] = true
			report.Days = append(report.Days, day)
		}
	})
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("смена дня прервана: %w", err)
	}
	sort.Ints(report.Days)

	// Шаг 3: советы для новых дней
	if s.tips != nil {
		s.tips.Forget()
		for _, day := range report.Days {
			s.tips.Prefetch(day)
		}
	}

	log.WithFields(log.Fields{
		"total":     report.Total,
		"advanced":  report.Advanced,
		"completed": report.Completed,
	}).Info("Смена дня стрика завершена")

	return report, nil
}

// SendReminders напоминает о незабранном подарке текущего дня.
// За один день пользователь получает не больше одного напоминания.
// Возвращает количество отправленных напоминаний.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	sent := 0
	s.sessions.ForEach(func(m *members.Member) {
		if ctx.Err() != nil || m.ChatID == 0 {
			return
		}
		day := m.Engine.CurrentDay()
		if m.Engine.CurrentDayClaimed() || !s.markReminded(m.UserID, day) {
			return
		}

		reward, _ := m.Engine.Catalog().StreakDay(day)
		text := fmt.Sprintf("⚠️ Подарок %d-го дня ещё не забран!\nНапиши !забрать и получи %s",
			day, FormatReward(reward, m.Engine.Rules()))
		if s.tips != nil {
			text += "\n\n💡 " + s.tips.Tip(ctx, day)
		}
		s.sender.Send(m.ChatID, text)
		sent++
	})
	if err := ctx.Err(); err != nil {
		return sent, fmt.Errorf("напоминания прерваны: %w", err)
	}

	log.WithField("sent", sent).Info("Напоминания о стрике отправлены")
	return sent, nil
}

// markReminded отмечает напоминание за день. false — уже напоминали.
func (s *Service) markReminded(userID int64, day int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reminded[userID] == day {
		return false
	}
	s.reminded[userID] = day
	return true
}

// Forget забывает отметки напоминаний пользователя (при закрытии сессии).
func (s *Service) Forget(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reminded, userID)
}
