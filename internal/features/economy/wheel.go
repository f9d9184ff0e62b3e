// Package economy — wheel.go содержит колесо удачи.
//
// Стоимость списывается сразу, флаг вращения ставится до задержки.
// Через SpinDelay начисляется выигрыш и пишется одна запись журнала.
// Пока колесо крутится, новые вращения отклоняются.
package economy

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// Spin — принятое вращение колеса.
type Spin struct {
	ID         uuid.UUID
	Cost       int64 // Списано при старте
	Prize      int64 // Будет начислено при завершении
	Advertised int64 // Показываемый выигрыш
	StartedAt  time.Time
	SettlesAt  time.Time

	done  chan struct{}
	event HistoryEvent
}

// Done закрывается после завершения вращения.
func (s *Spin) Done() <-chan struct{} {
	return s.done
}

// Result возвращает запись журнала о выигрыше, если вращение завершено.
func (s *Spin) Result() (HistoryEvent, bool) {
	select {
	case <-s.done:
		return s.event, true
	default:
		return HistoryEvent{}, false
	}
}

// SpinWheel запускает вращение колеса.
//
// Ошибки: ErrSpinInProgress, пока предыдущее вращение не завершено;
// *InsufficientFundsError, если монет меньше стоимости.
func (e *Engine) SpinWheel() (*Spin, error) {
	e.mu.Lock()
	spin, err := e.spinWheelLocked()
	e.mu.Unlock()
	e.flush()
	return spin, err
}

func (e *Engine) spinWheelLocked() (*Spin, error) {
	if e.closed {
		return nil, common.ErrEngineClosed
	}
	if e.spin != nil {
		return nil, e.reject(OpSpinStart, common.ErrSpinInProgress)
	}
	if e.profile.Coins < e.rules.SpinCost {
		return nil, e.reject(OpSpinStart, &common.InsufficientFundsError{
			Need: e.rules.SpinCost,
			Have: e.profile.Coins,
		})
	}

	now := e.now()
	spin := &Spin{
		ID:         newEventID(),
		Cost:       e.rules.SpinCost,
		Prize:      e.rules.SpinPrize,
		Advertised: e.rules.AdvertisedPrize,
		StartedAt:  now,
		SettlesAt:  now.Add(e.rules.SpinDelay),
		done:       make(chan struct{}),
	}

	// Списание без записи в журнал: запись появится при завершении.
	e.applyDelta(0, -spin.Cost)
	e.spin = spin
	e.record(OpSpinStart, nil, nil)
	e.stopSpin = e.schedule(e.rules.SpinDelay, func() { e.settleSpin(spin) })

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"spin":    spin.ID,
		"cost":    spin.Cost,
	}).Debug("Колесо запущено")

	return spin, nil
}

// SpinInProgress — крутится ли колесо.
func (e *Engine) SpinInProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spin != nil
}

// settleSpin завершает вращение по таймеру.
func (e *Engine) settleSpin(s *Spin) {
	e.mu.Lock()
	if e.spin != s {
		// Уже завершено при закрытии
		e.mu.Unlock()
		return
	}
	e.settleLocked(s)
	e.mu.Unlock()
	e.flush()
}

// settleLocked начисляет выигрыш ровно один раз. Вызывается под mu.
func (e *Engine) settleLocked(s *Spin) {
	delta := e.applyDelta(0, s.Prize)
	ev := e.appendHistory(HistoryEvent{
		Kind:     KindEarn,
		Title:    "Выигрыш в колесе удачи",
		Subtitle: "Особый приз",
		Amount:   s.Prize,
		Unit:     UnitCoins,
		Delta:    delta,
		Source:   OpSpinSettle,
	})
	e.spin = nil
	e.stopSpin = nil
	s.event = ev
	close(s.done)
	e.record(OpSpinSettle, nil, &ev)

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"spin":    s.ID,
		"prize":   delta.Coins,
	}).Debug("Колесо остановилось")
}
