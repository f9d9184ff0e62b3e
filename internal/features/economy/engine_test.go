package economy

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
)

// manualScheduler копит отложенные задачи до явного fire.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (m *manualScheduler) schedule(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{delay: d, f: f}
	m.tasks = append(m.tasks, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire запускает все ожидающие задачи.
func (m *manualScheduler) fire() int {
	m.mu.Lock()
	var run []*manualTask
	for _, t := range m.tasks {
		if !t.fired && !t.stopped {
			t.fired = true
			run = append(run, t)
		}
	}
	m.tasks = nil
	m.mu.Unlock()

	for _, t := range run {
		t.f()
	}
	return len(run)
}

func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, profile Profile, rules Rules) (*Engine, *manualScheduler) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	sched := &manualScheduler{}
	e, err := NewEngine(cat, profile, rules,
		WithClock(func() time.Time { return testNow }),
		WithScheduler(sched.schedule),
	)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, sched
}

func defaultEngine(t *testing.T) (*Engine, *manualScheduler) {
	return newTestEngine(t, DefaultProfile("me", "Амир"), DefaultRules())
}

func TestClaimStreakDay_CurrentDay(t *testing.T) {
	e, _ := defaultEngine(t)
	before := len(e.Snapshot().History)

	claim, err := e.ClaimStreakDay(3)
	require.NoError(t, err)

	s := e.Snapshot()
	assert.Equal(t, Balance{XP: 1490, Coins: 2450}, s.Balance())
	assert.Len(t, s.History, before+1)
	assert.Equal(t, KindEarn, s.History[0].Kind)
	assert.Equal(t, "+40 XP", s.History[0].Label())
	assert.Equal(t, claim.Event.ID, s.History[0].ID)
	assert.Equal(t, []int{1, 2, 3}, s.ClaimedDays)
	assert.False(t, claim.Mega())
	assert.Equal(t, Balance{XP: 40}, claim.Reward)
}

func TestClaimStreakDay_Twice(t *testing.T) {
	e, _ := defaultEngine(t)

	_, err := e.ClaimStreakDay(3)
	require.NoError(t, err)
	after := e.Snapshot()

	_, err = e.ClaimStreakDay(3)
	assert.ErrorIs(t, err, common.ErrAlreadyClaimedOrNotCurrent)
	assert.Equal(t, after, e.Snapshot())
}

func TestClaimStreakDay_NotCurrent(t *testing.T) {
	e, _ := defaultEngine(t)
	start := e.Snapshot()

	for _, day := range []int{1, 2, 4, 7, 0, 8} {
		_, err := e.ClaimStreakDay(day)
		assert.ErrorIs(t, err, common.ErrAlreadyClaimedOrNotCurrent, "day=%d", day)
	}
	assert.Equal(t, start, e.Snapshot())
}

func TestClaimStreakDay_Mega(t *testing.T) {
	rules := DefaultRules()
	rules.StartDay = 7
	e, _ := newTestEngine(t, DefaultProfile("me", "Амир"), rules)

	claim, err := e.ClaimStreakDay(7)
	require.NoError(t, err)
	assert.True(t, claim.Mega())
	assert.Equal(t, Balance{XP: 100, Coins: 500}, claim.Reward)
	assert.Equal(t, Balance{XP: 1550, Coins: 2950}, e.Balance())
	assert.Equal(t, "+500 монет", claim.Event.Label())
}

func TestAdvanceDay(t *testing.T) {
	e, _ := defaultEngine(t)

	day, err := e.AdvanceDay()
	require.NoError(t, err)
	assert.Equal(t, 4, day)

	board := e.StreakBoard()
	require.Len(t, board, 7)
	want := []SlotState{SlotClaimed, SlotClaimed, SlotUnclaimed, SlotCurrent, SlotFuture, SlotFuture, SlotFuture}
	for i, slot := range board {
		assert.Equal(t, want[i], slot.State, "day=%d", slot.Day)
	}

	// Пропущенный день больше не забрать
	_, err = e.ClaimStreakDay(3)
	assert.ErrorIs(t, err, common.ErrAlreadyClaimedOrNotCurrent)

	for d := 5; d <= 7; d++ {
		day, err = e.AdvanceDay()
		require.NoError(t, err)
		assert.Equal(t, d, day)
	}
	day, err = e.AdvanceDay()
	assert.ErrorIs(t, err, common.ErrStreakComplete)
	assert.Equal(t, 7, day)
	assert.Equal(t, []int{1, 2}, e.Snapshot().ClaimedDays)
}

func TestSpinWheel_Lifecycle(t *testing.T) {
	e, sched := defaultEngine(t)
	historyBefore := len(e.Snapshot().History)

	spin, err := e.SpinWheel()
	require.NoError(t, err)
	assert.Equal(t, int64(100), spin.Cost)
	assert.Equal(t, int64(250), spin.Advertised)
	assert.Equal(t, testNow.Add(4*time.Second), spin.SettlesAt)

	s := e.Snapshot()
	assert.Equal(t, int64(2350), s.Profile.Coins)
	assert.True(t, s.SpinInProgress)
	assert.Len(t, s.History, historyBefore)
	_, done := spin.Result()
	assert.False(t, done)

	_, err = e.SpinWheel()
	assert.ErrorIs(t, err, common.ErrSpinInProgress)
	assert.Equal(t, int64(2350), e.Balance().Coins)

	require.Equal(t, 1, sched.fire())

	select {
	case <-spin.Done():
	default:
		t.Fatal("spin not settled")
	}
	s = e.Snapshot()
	assert.Equal(t, int64(2500), s.Profile.Coins)
	assert.False(t, s.SpinInProgress)
	require.Len(t, s.History, historyBefore+1)
	assert.Equal(t, KindEarn, s.History[0].Kind)
	assert.Equal(t, OpSpinSettle, s.History[0].Source)
	assert.Equal(t, int64(150), s.History[0].Delta.Coins)

	ev, ok := spin.Result()
	require.True(t, ok)
	assert.Equal(t, s.History[0].ID, ev.ID)

	// Колесо снова доступно
	_, err = e.SpinWheel()
	assert.NoError(t, err)
}

func TestSpinWheel_InsufficientFunds(t *testing.T) {
	p := DefaultProfile("me", "Амир")
	p.Coins = 50
	e, sched := newTestEngine(t, p, DefaultRules())

	_, err := e.SpinWheel()
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	var ife *common.InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, int64(50), ife.Shortfall())
	assert.Equal(t, int64(50), e.Balance().Coins)
	assert.False(t, e.SpinInProgress())
	assert.Equal(t, 0, sched.pending())
}

func TestSpinWheel_ConcurrentRequests(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	rules := DefaultRules()
	rules.SpinDelay = 20 * time.Millisecond
	e, err := NewEngine(cat, DefaultProfile("me", "Амир"), rules)
	require.NoError(t, err)
	defer e.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*Spin
		rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			spin, err := e.SpinWheel()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, common.ErrSpinInProgress)
				rejected++
				return
			}
			accepted = append(accepted, spin)
		}()
	}
	wg.Wait()

	require.Len(t, accepted, 1)
	assert.Equal(t, 19, rejected)

	select {
	case <-accepted[0].Done():
	case <-time.After(2 * time.Second):
		t.Fatal("spin did not settle")
	}
	assert.Equal(t, int64(2500), e.Balance().Coins)
}

func TestClose_SettlesPendingSpin(t *testing.T) {
	e, sched := defaultEngine(t)

	var changes []Change
	e.Subscribe(func(c Change) { changes = append(changes, c) })

	spin, err := e.SpinWheel()
	require.NoError(t, err)

	e.Close()

	_, ok := spin.Result()
	assert.True(t, ok)
	assert.Equal(t, int64(2500), e.Snapshot().Profile.Coins)
	assert.Equal(t, 0, sched.fire(), "timer must be stopped")

	require.Len(t, changes, 2)
	assert.Equal(t, OpSpinStart, changes[0].Op)
	assert.Equal(t, OpSpinSettle, changes[1].Op)

	_, err = e.SpinWheel()
	assert.ErrorIs(t, err, common.ErrEngineClosed)
	_, err = e.ClaimStreakDay(3)
	assert.ErrorIs(t, err, common.ErrEngineClosed)
	_, err = e.RedeemRewardByID("r1")
	assert.ErrorIs(t, err, common.ErrEngineClosed)
	assert.Len(t, changes, 2, "no notifications after close")
}

func TestRedeemReward_InsufficientFunds(t *testing.T) {
	p := DefaultProfile("me", "Амир")
	p.Coins = 300
	e, _ := newTestEngine(t, p, DefaultRules())
	start := e.Snapshot()

	_, err := e.RedeemReward(catalog.RewardItem{ID: "x", Title: "Промокод", Cost: 500})
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	var ife *common.InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, int64(200), ife.Shortfall())
	assert.Equal(t, start, e.Snapshot())
}

func TestRedeemReward_Success(t *testing.T) {
	e, _ := defaultEngine(t)
	before := len(e.Snapshot().History)

	r, err := e.RedeemRewardByID("r1")
	require.NoError(t, err)

	s := e.Snapshot()
	assert.Equal(t, int64(1950), s.Profile.Coins)
	assert.Equal(t, int64(1950), r.Balance.Coins)
	require.Len(t, s.History, before+1)
	assert.Equal(t, KindSpend, s.History[0].Kind)
	assert.Equal(t, "-500 монет", s.History[0].Label())
	assert.Equal(t, int64(-500), s.History[0].Delta.Coins)

	// Повторная покупка тоже разрешена
	_, err = e.RedeemRewardByID("r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1450), e.Balance().Coins)
}

func TestRedeemReward_Invalid(t *testing.T) {
	e, _ := defaultEngine(t)

	_, err := e.RedeemRewardByID("nope")
	assert.ErrorIs(t, err, common.ErrRewardNotFound)
	_, err = e.RedeemReward(catalog.RewardItem{ID: "free", Cost: 0})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
	assert.Equal(t, int64(2450), e.Balance().Coins)
}

func TestMissions_WeeklyBonus(t *testing.T) {
	e, _ := defaultEngine(t)

	_, err := e.ClaimWeeklyBonus()
	assert.ErrorIs(t, err, common.ErrWeeklyBonusNotEligible)

	// m2 ещё не выполнена
	_, err = e.ClaimMission("m2")
	assert.ErrorIs(t, err, common.ErrMissionNotEligible)
	_, err = e.ClaimMission("zzz")
	assert.ErrorIs(t, err, common.ErrMissionNotFound)

	claim, err := e.ClaimMission("m1")
	require.NoError(t, err)
	assert.Equal(t, Balance{XP: 20}, claim.Reward)
	assert.False(t, claim.WeeklyBonusReady)

	_, err = e.ClaimMission("m1")
	assert.ErrorIs(t, err, common.ErrMissionNotEligible)

	_, err = e.ClaimMission("m3")
	require.NoError(t, err)
	_, err = e.ClaimWeeklyBonus()
	assert.ErrorIs(t, err, common.ErrWeeklyBonusNotEligible)

	progress, err := e.AddMissionProgress("m2", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, progress)

	claim, err = e.ClaimMission("m2")
	require.NoError(t, err)
	assert.True(t, claim.WeeklyBonusReady)

	coins := e.Balance().Coins
	ev, err := e.ClaimWeeklyBonus()
	require.NoError(t, err)
	assert.Equal(t, "+500 монет", ev.Label())
	assert.Equal(t, coins+500, e.Balance().Coins)
	assert.True(t, e.Snapshot().WeeklyBonusClaimed)

	_, err = e.ClaimWeeklyBonus()
	assert.ErrorIs(t, err, common.ErrWeeklyBonusNotEligible)
	assert.Equal(t, []string{"m1", "m3", "m2"}, e.Snapshot().ClaimedMissions)
}

func TestMissionBoard(t *testing.T) {
	e, _ := defaultEngine(t)
	_, err := e.ClaimMission("m1")
	require.NoError(t, err)

	states := map[string]MissionState{}
	for _, slot := range e.MissionBoard() {
		states[slot.ID] = slot.State
	}
	assert.Equal(t, map[string]MissionState{
		"m1": MissionClaimed,
		"m2": MissionLocked,
		"m3": MissionClaimable,
		"m4": MissionLocked,
	}, states)

	_, err = e.AddMissionProgress("m4", 0)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestAddMissionProgress_Saturates(t *testing.T) {
	e, _ := defaultEngine(t)

	// m1 уже выполнена (1/1): огромная прибавка не должна переполнить счётчик
	progress, err := e.AddMissionProgress("m1", math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 1, progress)

	progress, err = e.AddMissionProgress("m4", math.MaxInt)
	require.NoError(t, err)
	m4, ok := e.Catalog().Mission("m4")
	require.True(t, ok)
	assert.Equal(t, m4.Total, progress)

	for _, slot := range e.MissionBoard() {
		if slot.ID == "m1" || slot.ID == "m4" {
			assert.Equal(t, MissionClaimable, slot.State, slot.ID)
			assert.Equal(t, slot.Total, slot.Progress, slot.ID)
		}
	}

	_, err = e.ClaimMission("m1")
	require.NoError(t, err)
	_, err = e.ClaimMission("m4")
	require.NoError(t, err)
}

func TestApplyDelta_Clamps(t *testing.T) {
	e, _ := defaultEngine(t)

	delta := e.applyDelta(-10_000, -10_000)
	assert.Equal(t, Balance{XP: -1450, Coins: -2450}, delta)
	assert.Equal(t, Balance{}, e.balance())

	delta = e.applyDelta(5, 7)
	assert.Equal(t, Balance{XP: 5, Coins: 7}, delta)
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	e, sched := defaultEngine(t)

	var ops []Operation
	var errs []error
	unsubscribe := e.Subscribe(func(c Change) {
		ops = append(ops, c.Op)
		errs = append(errs, c.Err)
	})

	_, _ = e.ClaimStreakDay(3)
	_, _ = e.ClaimStreakDay(3)
	_, _ = e.SpinWheel()
	sched.fire()

	assert.Equal(t, []Operation{OpStreakClaim, OpStreakClaim, OpSpinStart, OpSpinSettle}, ops)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], common.ErrAlreadyClaimedOrNotCurrent)

	unsubscribe()
	_, _ = e.RedeemRewardByID("r2")
	assert.Len(t, ops, 4)
}

func TestWithHistory_Seed(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	seed := HistoryEvent{Kind: KindEarn, Title: "Покупка в супермаркете", Amount: 150, Unit: UnitCoins}
	e, err := NewEngine(cat, DefaultProfile("me", "Амир"), DefaultRules(), WithHistory(seed))
	require.NoError(t, err)
	defer e.Close()

	h := e.History(0)
	require.Len(t, h, 1)
	assert.Equal(t, uint64(1), h[0].Seq)
	assert.Equal(t, OpSeed, h[0].Source)

	_, err = e.ClaimStreakDay(3)
	require.NoError(t, err)
	h = e.History(1)
	require.Len(t, h, 1)
	assert.Equal(t, uint64(2), h[0].Seq)
	assert.Equal(t, OpStreakClaim, h[0].Source)
}

func TestNewEngine_Invalid(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	_, err = NewEngine(nil, DefaultProfile("me", ""), DefaultRules())
	assert.Error(t, err)

	rules := DefaultRules()
	rules.StartDay = 9
	_, err = NewEngine(cat, DefaultProfile("me", ""), rules)
	assert.Error(t, err)

	rules = DefaultRules()
	rules.WeeklyThreshold = len(cat.Missions) + 1
	_, err = NewEngine(cat, DefaultProfile("me", ""), rules)
	assert.ErrorContains(t, err, "порог недельного бонуса")

	rules.WeeklyThreshold = len(cat.Missions)
	_, err = NewEngine(cat, DefaultProfile("me", ""), rules)
	assert.NoError(t, err)

	p := DefaultProfile("me", "")
	p.Coins = -1
	_, err = NewEngine(cat, p, DefaultRules())
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

// Случайные последовательности операций: баланс не уходит в минус,
// журнал растёт ровно на одну запись за каждый успех и упорядочен.
func TestRandomSequences_BalanceNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		p := DefaultProfile("me", "Амир")
		p.Coins = rng.Int63n(800)
		p.XP = rng.Int63n(100)
		e, sched := newTestEngine(t, p, DefaultRules())

		for step := 0; step < 60; step++ {
			before := len(e.Snapshot().History)
			var (
				err     error
				entries = 1
			)

			switch rng.Intn(8) {
			case 0:
				_, err = e.ClaimStreakDay(1 + rng.Intn(7))
			case 1:
				_, err = e.SpinWheel()
				entries = 0
			case 2:
				entries = sched.fire()
			case 3:
				_, err = e.ClaimMission([]string{"m1", "m2", "m3", "m4"}[rng.Intn(4)])
			case 4:
				_, err = e.AddMissionProgress([]string{"m2", "m4"}[rng.Intn(2)], 1)
				entries = 0
			case 5:
				_, err = e.ClaimWeeklyBonus()
			case 6:
				_, err = e.RedeemRewardByID([]string{"r1", "r2", "r3", "r4"}[rng.Intn(4)])
			case 7:
				_, err = e.AdvanceDay()
				entries = 0
			}

			s := e.Snapshot()
			require.GreaterOrEqual(t, s.Profile.XP, int64(0))
			require.GreaterOrEqual(t, s.Profile.Coins, int64(0))
			if err != nil {
				require.True(t, common.IsRejection(err), "unexpected error: %v", err)
				require.Len(t, s.History, before)
			} else {
				require.Len(t, s.History, before+entries)
			}
			for i := 1; i < len(s.History); i++ {
				require.Greater(t, s.History[i-1].Seq, s.History[i].Seq)
			}
		}
		e.Close()
	}
}
