package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "insufficient_funds", Outcome(&common.InsufficientFundsError{Need: 100, Have: 1}))
	assert.Equal(t, "spin_in_progress", Outcome(common.ErrSpinInProgress))
	assert.Equal(t, "not_eligible", Outcome(common.ErrWeeklyBonusNotEligible))
	assert.Equal(t, "not_found", Outcome(common.ErrRewardNotFound))
	assert.Equal(t, "streak_complete", Outcome(common.ErrStreakComplete))
	assert.Equal(t, "closed", Outcome(common.ErrEngineClosed))
	assert.Equal(t, "rejected", Outcome(common.ErrInvalidAmount))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestObserve(t *testing.T) {
	ok := Operations.WithLabelValues(string(economy.OpRedeem), "ok")
	spent := CoinsFlow.WithLabelValues("spent")
	okBefore := testutil.ToFloat64(ok)
	spentBefore := testutil.ToFloat64(spent)
	xpBefore := testutil.ToFloat64(XPEarned)

	Observe(economy.Change{
		Op:    economy.OpRedeem,
		Event: &economy.HistoryEvent{Delta: economy.Balance{Coins: -500}},
	})
	Observe(economy.Change{
		Op:    economy.OpStreakClaim,
		Event: &economy.HistoryEvent{Delta: economy.Balance{XP: 40}},
	})
	Observe(economy.Change{Op: economy.OpRedeem, Err: common.ErrRewardNotFound})

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, spentBefore+500, testutil.ToFloat64(spent))
	assert.Equal(t, xpBefore+40, testutil.ToFloat64(XPEarned))
}

func TestObserve_SpinGauge(t *testing.T) {
	before := testutil.ToFloat64(SpinsInFlight)
	Observe(economy.Change{Op: economy.OpSpinStart})
	assert.Equal(t, before+1, testutil.ToFloat64(SpinsInFlight))
	Observe(economy.Change{Op: economy.OpSpinSettle, Event: &economy.HistoryEvent{Delta: economy.Balance{Coins: 150}}})
	assert.Equal(t, before, testutil.ToFloat64(SpinsInFlight))
}

func TestServer_Routes(t *testing.T) {
	s := NewServer(":0", func() map[string]any { return map[string]any{"sessions": 2} })
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["sessions"])

	Commands.WithLabelValues("профиль").Inc()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "rewards_bot_commands_total"))
}
