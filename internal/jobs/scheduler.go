// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневная смена дня стрика
// и вечерние напоминания о незабранном подарке.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

// Имена задач (метка job в метриках).
const (
	JobRollover  = "streak_rollover"
	JobReminders = "streak_reminders"
)

// StreakJobs — операции стрика, которые запускает крон.
// Реализуется *streak.Service.
type StreakJobs interface {
	DailyRollover(ctx context.Context) (streak.RolloverReport, error)
	SendReminders(ctx context.Context) (int, error)
}

// Schedule — расписание задач. Пустая строка выключает задачу.
type Schedule struct {
	Rollover  string
	Reminders string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	streak   StreakJobs
	schedule Schedule
}

// NewScheduler создаёт планировщик в часовом поясе приложения.
func NewScheduler(streakJobs StreakJobs, schedule Schedule, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		streak:   streakJobs,
		schedule: schedule,
	}
}

// Start регистрирует задачи и запускает планировщик.
// Ошибка — только если расписание не разобралось.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule.Rollover != "" {
		if _, err := s.cron.AddFunc(s.schedule.Rollover, func() { s.RunRollover(ctx) }); err != nil {
			return fmt.Errorf("расписание %s %q: %w", JobRollover, s.schedule.Rollover, err)
		}
	}
	if s.schedule.Reminders != "" {
		if _, err := s.cron.AddFunc(s.schedule.Reminders, func() { s.RunReminders(ctx) }); err != nil {
			return fmt.Errorf("расписание %s %q: %w", JobReminders, s.schedule.Reminders, err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"rollover":  s.schedule.Rollover,
		"reminders": s.schedule.Reminders,
		"jobs":      len(s.cron.Entries()),
	}).Info("Планировщик задач запущен")
	return nil
}

// RunRollover переводит все сессии на следующий день стрика.
func (s *Scheduler) RunRollover(ctx context.Context) {
	log.Info("[CRON] Смена дня стрика")
	report, err := s.streak.DailyRollover(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(JobRollover, "error").Inc()
		log.WithError(err).Error("[CRON] Ошибка смены дня")
		return
	}
	metrics.JobRuns.WithLabelValues(JobRollover, "ok").Inc()
	log.WithFields(log.Fields{
		"total":     report.Total,
		"advanced":  report.Advanced,
		"completed": report.Completed,
	}).Info("[CRON] День стрика сменён")
}

// RunReminders напоминает о незабранных подарках.
func (s *Scheduler) RunReminders(ctx context.Context) {
	log.Debug("[CRON] Проверка напоминаний")
	sent, err := s.streak.SendReminders(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(JobReminders, "error").Inc()
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
		return
	}
	metrics.JobRuns.WithLabelValues(JobReminders, "ok").Inc()
	log.WithField("sent", sent).Debug("[CRON] Напоминания отправлены")
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
