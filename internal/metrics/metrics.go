// Package metrics — счётчики Prometheus для экономики, бота и фоновых задач.
// Значения обновляются из уведомлений движка (economy.Change), обработчиков и крона.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

const namespace = "rewards"

// ─── Экономика ──────────────────────────────────────────────────────────────

// Operations — исходы операций движка по типу операции.
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "economy",
	Name:      "operations_total",
	Help:      "Total economy operations by operation and outcome.",
}, []string{"op", "outcome"})

// CoinsFlow — монеты, начисленные и списанные движком.
var CoinsFlow = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "economy",
	Name:      "coins_total",
	Help:      "Total coins moved by the engine, by direction.",
}, []string{"direction"})

// XPEarned — начисленный опыт.
var XPEarned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "economy",
	Name:      "xp_earned_total",
	Help:      "Total XP granted by the engine.",
})

// SpinsInFlight — колёса, которые сейчас крутятся.
var SpinsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "wheel",
	Name:      "spins_in_flight",
	Help:      "Number of accepted wheel spins not yet settled.",
})

// ActiveSessions — открытые сессии пользователей.
var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "sessions",
	Name:      "active",
	Help:      "Number of open user sessions.",
})

// ─── Советы, бот, крон ──────────────────────────────────────────────────────

// TipRequests — запросы советов по источнику ответа (provider, cache, fallback).
var TipRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "tips",
	Name:      "requests_total",
	Help:      "Tip lookups by the source that answered.",
}, []string{"source"})

// Commands — обработанные команды бота.
var Commands = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bot",
	Name:      "commands_total",
	Help:      "Bot commands handled, by command name.",
}, []string{"command"})

// RateLimited — сообщения, отброшенные ограничителем частоты.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bot",
	Name:      "rate_limited_total",
	Help:      "Updates dropped by the per-user rate limiter.",
})

// JobRuns — запуски фоновых задач.
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "jobs",
	Name:      "runs_total",
	Help:      "Cron job runs by job and status.",
}, []string{"job", "status"})

// Observe — подписчик движка. Подключается к каждой сессии.
func Observe(c economy.Change) {
	Operations.WithLabelValues(string(c.Op), Outcome(c.Err)).Inc()
	if c.Err != nil {
		return
	}

	switch c.Op {
	case economy.OpSpinStart:
		SpinsInFlight.Inc()
	case economy.OpSpinSettle:
		SpinsInFlight.Dec()
	}

	if c.Event == nil {
		return
	}
	d := c.Event.Delta
	if d.Coins > 0 {
		CoinsFlow.WithLabelValues("earned").Add(float64(d.Coins))
	}
	if d.Coins < 0 {
		CoinsFlow.WithLabelValues("spent").Add(float64(-d.Coins))
	}
	if d.XP > 0 {
		XPEarned.Add(float64(d.XP))
	}
}

// Outcome переводит ошибку операции в короткую метку.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, common.ErrSpinInProgress):
		return "spin_in_progress"
	case errors.Is(err, common.ErrAlreadyClaimedOrNotCurrent),
		errors.Is(err, common.ErrMissionNotEligible),
		errors.Is(err, common.ErrWeeklyBonusNotEligible):
		return "not_eligible"
	case errors.Is(err, common.ErrMissionNotFound), errors.Is(err, common.ErrRewardNotFound):
		return "not_found"
	case errors.Is(err, common.ErrStreakComplete):
		return "streak_complete"
	case errors.Is(err, common.ErrEngineClosed):
		return "closed"
	case common.IsRejection(err):
		return "rejected"
	default:
		return "error"
	}
}
