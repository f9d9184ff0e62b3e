// Package economy — engine.go содержит ядро движка: состояние, единую точку
// изменения баланса, журнал и подписки.
package economy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
)

// Rules — числовые правила экономики.
type Rules struct {
	SpinCost        int64         // Стоимость вращения колеса
	SpinPrize       int64         // Фактически начисляемый выигрыш
	AdvertisedPrize int64         // Выигрыш, который показывается пользователю
	SpinDelay       time.Duration // Время вращения
	MegaXP          int64         // Большой приз 7-го дня: XP
	MegaCoins       int64         // Большой приз 7-го дня: монеты
	WeeklyThreshold int           // Сколько миссий нужно для недельного бонуса
	WeeklyBonus     int64         // Недельный бонус в монетах
	StartDay        int           // Текущий день стрика в начале сессии
	ClaimedDays     []int         // Дни, полученные до начала сессии
}

// DefaultRules возвращает стандартные правила.
func DefaultRules() Rules {
	return Rules{
		SpinCost:        100,
		SpinPrize:       150,
		AdvertisedPrize: 250,
		SpinDelay:       4 * time.Second,
		MegaXP:          100,
		MegaCoins:       500,
		WeeklyThreshold: 3,
		WeeklyBonus:     500,
		StartDay:        3,
		ClaimedDays:     []int{1, 2},
	}
}

// Validate проверяет правила на согласованность с каталогом.
func (r Rules) Validate(cat *catalog.Catalog) error {
	if r.SpinCost <= 0 || r.SpinPrize < 0 || r.AdvertisedPrize < 0 {
		return errors.New("rules: некорректные параметры колеса")
	}
	if r.SpinDelay < 0 {
		return errors.New("rules: отрицательная задержка колеса")
	}
	if r.MegaXP < 0 || r.MegaCoins < 0 || r.WeeklyBonus < 0 {
		return errors.New("rules: отрицательная награда")
	}
	if r.WeeklyThreshold <= 0 {
		return errors.New("rules: порог недельного бонуса должен быть > 0")
	}
	if r.WeeklyThreshold > len(cat.Missions) {
		return fmt.Errorf("rules: порог недельного бонуса (%d) больше числа миссий (%d)", r.WeeklyThreshold, len(cat.Missions))
	}
	last := cat.LastStreakDay()
	if r.StartDay < 1 || r.StartDay > last {
		return errors.New("rules: стартовый день вне стрика")
	}
	for _, d := range r.ClaimedDays {
		if d < 1 || d > last {
			return errors.New("rules: полученный день вне стрика")
		}
	}
	return nil
}

// DefaultProfile — стартовый профиль сессии.
func DefaultProfile(id, name string) Profile {
	return Profile{ID: id, Name: name, XP: 1450, Coins: 2450, Rank: 12, Tier: TierGold}
}

// Scheduler откладывает вызов f на d и возвращает функцию отмены.
// stop возвращает false, если f уже запущена.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timeScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option настраивает движок.
type Option func(*Engine)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithScheduler подменяет планировщик отложенного завершения вращения.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.schedule = s }
}

// WithHistory задаёт начальные записи журнала (новые сначала).
func WithHistory(events ...HistoryEvent) Option {
	return func(e *Engine) { e.seed = append(e.seed, events...) }
}

// Engine — движок экономики одной сессии.
// Все операции сериализуются мьютексом и либо применяются целиком,
// либо возвращают ошибку без изменений.
type Engine struct {
	mu sync.Mutex

	cat      *catalog.Catalog
	rules    Rules
	now      func() time.Time
	schedule Scheduler
	seed     []HistoryEvent

	profile         Profile
	history         []HistoryEvent // Новые сначала
	seq             uint64
	currentDay      int
	claimedDays     map[int]bool
	progress        map[string]int
	claimedMissions []string
	weeklyClaimed   bool
	spin            *Spin
	stopSpin        func() bool
	closed          bool

	// Подписчики и очередь уведомлений.
	notifyMu     sync.Mutex
	outbox       []Change
	listeners    map[int]func(Change)
	nextListener int
}

// NewEngine создаёт движок с каталогом, стартовым профилем и правилами.
func NewEngine(cat *catalog.Catalog, profile Profile, rules Rules, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("economy: каталог не задан")
	}
	if err := rules.Validate(cat); err != nil {
		return nil, err
	}
	if profile.XP < 0 || profile.Coins < 0 {
		return nil, common.ErrInvalidAmount
	}

	e := &Engine{
		cat:         cat,
		rules:       rules,
		now:         time.Now,
		schedule:    timeScheduler,
		profile:     profile,
		currentDay:  rules.StartDay,
		claimedDays: make(map[int]bool, len(rules.ClaimedDays)),
		progress:    make(map[string]int, len(cat.Missions)),
		listeners:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, d := range rules.ClaimedDays {
		e.claimedDays[d] = true
	}
	for _, m := range cat.Missions {
		e.progress[m.ID] = m.Progress
	}
	// Стартовые записи журнала переносятся как есть, номера продолжаются после них.
	for i := len(e.seed) - 1; i >= 0; i-- {
		ev := e.seed[i]
		e.seq++
		ev.Seq = e.seq
		if ev.ID == uuid.Nil {
			ev.ID = newEventID()
		}
		if ev.Source == "" {
			ev.Source = OpSeed
		}
		e.history = append([]HistoryEvent{ev}, e.history...)
	}
	e.seed = nil

	log.WithFields(log.Fields{
		"profile": profile.ID,
		"xp":      profile.XP,
		"coins":   profile.Coins,
		"day":     e.currentDay,
	}).Debug("Движок экономики создан")

	return e, nil
}

// Rules возвращает правила движка.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Catalog возвращает каталог движка.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// applyDelta — единственная точка изменения баланса.
// Значения ниже нуля обрезаются до нуля. Возвращает фактически применённую дельту.
func (e *Engine) applyDelta(xp, coins int64) Balance {
	before := Balance{XP: e.profile.XP, Coins: e.profile.Coins}
	e.profile.XP = max(0, e.profile.XP+xp)
	e.profile.Coins = max(0, e.profile.Coins+coins)
	return Balance{XP: e.profile.XP - before.XP, Coins: e.profile.Coins - before.Coins}
}

// appendHistory добавляет запись в начало журнала.
func (e *Engine) appendHistory(ev HistoryEvent) HistoryEvent {
	e.seq++
	ev.ID = newEventID()
	ev.Seq = e.seq
	ev.OccurredAt = e.now()
	e.history = append([]HistoryEvent{ev}, e.history...)
	return ev
}

func newEventID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func (e *Engine) balance() Balance {
	return Balance{XP: e.profile.XP, Coins: e.profile.Coins}
}

// record ставит исход операции в очередь уведомлений. Вызывается под mu.
func (e *Engine) record(op Operation, err error, ev *HistoryEvent) {
	if len(e.listeners) == 0 {
		return
	}
	e.outbox = append(e.outbox, Change{
		Op:      op,
		Err:     err,
		Event:   ev,
		Balance: e.balance(),
		Day:     e.currentDay,
	})
}

// reject фиксирует отказ и возвращает err. Вызывается под mu.
func (e *Engine) reject(op Operation, err error) error {
	e.record(op, err, nil)
	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"op":      op,
	}).WithError(err).Debug("Операция отклонена")
	return err
}

// flush доставляет накопленные уведомления вне mu, в порядке фиксации.
func (e *Engine) flush() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	batch := e.outbox
	e.outbox = nil
	listeners := make([]func(Change), 0, len(e.listeners))
	keys := make([]int, 0, len(e.listeners))
	for k := range e.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		listeners = append(listeners, e.listeners[k])
	}
	e.mu.Unlock()

	for _, ch := range batch {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

// Subscribe регистрирует подписчика на исходы операций.
// Подписчик вызывается вне блокировки движка и может читать Snapshot.
func (e *Engine) Subscribe(fn func(Change)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Snapshot возвращает копию текущего состояния.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	days := make([]int, 0, len(e.claimedDays))
	for d := range e.claimedDays {
		days = append(days, d)
	}
	sort.Ints(days)

	return State{
		Profile:            e.profile,
		History:            append([]HistoryEvent(nil), e.history...),
		CurrentDay:         e.currentDay,
		ClaimedDays:        days,
		ClaimedMissions:    append([]string(nil), e.claimedMissions...),
		WeeklyBonusClaimed: e.weeklyClaimed,
		SpinInProgress:     e.spin != nil,
	}
}

// Balance возвращает текущий баланс.
func (e *Engine) Balance() Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance()
}

// History возвращает до limit последних записей журнала (limit <= 0 — все).
func (e *Engine) History(limit int) []HistoryEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.history)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]HistoryEvent(nil), e.history[:n]...)
}

// Close завершает сессию. Незавершённое вращение засчитывается сразу,
// после этого подписчики больше не вызываются и все операции
// возвращают ErrEngineClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.spin != nil {
		if e.stopSpin != nil {
			e.stopSpin()
		}
		e.settleLocked(e.spin)
	}
	e.mu.Unlock()

	e.flush()

	e.mu.Lock()
	e.listeners = make(map[int]func(Change))
	e.mu.Unlock()

	log.WithField("profile", e.profile.ID).Debug("Движок экономики закрыт")
}
