package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLocker struct {
	ok       bool
	err      error
	released int
}

func (l *stubLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() { l.released++ }, true, nil
}

type stubDeps struct {
	cutoff time.Time
	window time.Duration
	fail   error
}

func (d *stubDeps) SendDueReminders(_ context.Context, window time.Duration) (int, int, error) {
	d.window = window
	return 2, 5, d.fail
}

func (d *stubDeps) CleanupRead(_ context.Context, olderThan time.Time) (int64, error) {
	d.cutoff = olderThan
	return 7, nil
}

func (d *stubDeps) CleanupExpiredTokens(context.Context) (int64, error) {
	return 1, nil
}

func newManager(t *testing.T, locker Locker, deps *stubDeps) *CronManager {
	t.Helper()
	m := NewCronManager(testutil.OpenDB(t), locker)
	m.now = func() time.Time { return time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC) }
	require.NoError(t, m.RegisterDefaultJobs(Dependencies{Reminders: deps, Notifications: deps, Tokens: deps}))
	return m
}

func TestRegisterDefaultJobs(t *testing.T) {
	m := newManager(t, nil, &stubDeps{})
	assert.Equal(t, []string{JobDueReminders, JobCleanupNotifs, JobCleanupRevokedJWTs}, m.Jobs())

	err := m.Register(Job{Name: JobDueReminders, Schedule: "0 0 * * * *"})
	assert.Error(t, err)
	err = m.Register(Job{Name: "broken", Schedule: "every tuesday"})
	assert.Error(t, err)
}

func TestRunJobRecordsCompletion(t *testing.T) {
	ctx := context.Background()
	deps := &stubDeps{}
	m := newManager(t, nil, deps)

	require.NoError(t, m.RunJob(ctx, JobCleanupNotifs))
	assert.Equal(t, time.Date(2026, 4, 10, 3, 0, 0, 0, time.UTC), deps.cutoff, "default retention is 30 days")

	require.NoError(t, m.RunJob(ctx, JobDueReminders))
	assert.Equal(t, 24*time.Hour, deps.window)

	logs, err := ListLogs(ctx, m.db, JobDueReminders, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.CronStatusCompleted, logs[0].Status)
	assert.Equal(t, "Reminded 5 students about 2 assignments", logs[0].Message)
	assert.NotNil(t, logs[0].CompletedAt)
	assert.JSONEq(t, `{"assignments":2,"notifications":5}`, string(logs[0].Metadata))

	all, err := ListLogs(ctx, m.db, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunJobRecordsFailure(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, nil, &stubDeps{fail: errors.New("smtp down")})

	err := m.RunJob(ctx, JobDueReminders)
	require.Error(t, err)

	logs, err := ListLogs(ctx, m.db, JobDueReminders, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.CronStatusFailed, logs[0].Status)
	assert.Equal(t, "smtp down", logs[0].ErrorMsg)

	assert.Error(t, m.RunJob(ctx, "nope"))
}

func TestRunJobHonoursLocker(t *testing.T) {
	ctx := context.Background()

	held := &stubLocker{ok: false}
	m := newManager(t, held, &stubDeps{})
	require.NoError(t, m.RunJob(ctx, JobCleanupRevokedJWTs))
	logs, err := ListLogs(ctx, m.db, JobCleanupRevokedJWTs, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.CronStatusSkipped, logs[0].Status)

	free := &stubLocker{ok: true}
	m = newManager(t, free, &stubDeps{})
	require.NoError(t, m.RunJob(ctx, JobCleanupRevokedJWTs))
	assert.Equal(t, 1, free.released)

	broken := &stubLocker{err: errors.New("redis down")}
	m = newManager(t, broken, &stubDeps{})
	require.NoError(t, m.RunJob(ctx, JobCleanupRevokedJWTs), "runs unlocked when the lock backend fails")
	logs, err = ListLogs(ctx, m.db, JobCleanupRevokedJWTs, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.CronStatusCompleted, logs[0].Status)
}
