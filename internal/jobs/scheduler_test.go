package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

type fakeStreak struct {
	rollovers int
	reminders int
	err       error
}

func (f *fakeStreak) DailyRollover(context.Context) (streak.RolloverReport, error) {
	f.rollovers++
	return streak.RolloverReport{Total: 2, Advanced: 1, Completed: 1}, f.err
}

func (f *fakeStreak) SendReminders(context.Context) (int, error) {
	f.reminders++
	return 3, f.err
}

func TestRunJobs_CountsRuns(t *testing.T) {
	fs := &fakeStreak{}
	s := NewScheduler(fs, Schedule{}, time.UTC)
	ctx := context.Background()

	okBefore := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobRollover, "ok"))
	s.RunRollover(ctx)
	assert.Equal(t, 1, fs.rollovers)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobRollover, "ok")))

	fs.err = errors.New("boom")
	errBefore := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobReminders, "error"))
	s.RunReminders(ctx)
	assert.Equal(t, 1, fs.reminders)
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobReminders, "error")))
}

func TestStart_Schedules(t *testing.T) {
	s := NewScheduler(&fakeStreak{}, Schedule{Rollover: "0 0 * * *", Reminders: "0 18 * * *"}, time.UTC)
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()

	disabled := NewScheduler(&fakeStreak{}, Schedule{Rollover: "0 0 * * *"}, time.UTC)
	require.NoError(t, disabled.Start(context.Background()))
	assert.Len(t, disabled.cron.Entries(), 1)
	disabled.Stop()
}

func TestStart_BadSpec(t *testing.T) {
	s := NewScheduler(&fakeStreak{}, Schedule{Rollover: "каждый день"}, time.UTC)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobRollover)
}
