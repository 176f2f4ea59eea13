package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runRecord struct {
	job string
	err error
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []runRecord
}

func (r *fakeRecorder) JobRun(job string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, runRecord{job, err})
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

type every time.Duration

func (d every) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }

func TestDailyScheduleMatchesNextRun(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	sched, err := dailySchedule(Job{ID: "anomaly-check", Hour: 6, Minute: 30})
	require.NoError(t, err)

	for _, now := range []time.Time{
		time.Date(2025, 12, 15, 5, 0, 0, 0, loc),
		time.Date(2025, 12, 15, 6, 30, 0, 0, loc),
		time.Date(2025, 12, 31, 23, 59, 0, 0, loc),
	} {
		want := NextRun(now, 6, 30, loc)
		assert.True(t, want.Equal(sched.Next(now)), "after %s: want %s, got %s", now, want, sched.Next(now))
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("06:30")
	require.NoError(t, err)
	assert.Equal(t, 6, h)
	assert.Equal(t, 30, m)

	h, m, err = ParseClock(" 0:0 ")
	require.NoError(t, err)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, m)

	for _, bad := range []string{"", "6", "24:00", "12:60", "aa:10", "10:-1", "1:2:3"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)

	// 05:00 local
	now := time.Date(2025, 12, 15, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 15, 6, 0, 0, 0, loc), NextRun(now, 6, 0, loc))

	// exactly 06:00 local rolls to the next day
	now = time.Date(2025, 12, 15, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 16, 6, 0, 0, 0, loc), NextRun(now, 6, 0, loc))

	// month end
	now = time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), NextRun(now, 0, 0, time.UTC))
}

func TestAddValidatesAndReplaces(t *testing.T) {
	s := New(nil, nil)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Job{ID: "", Run: noop}))
	assert.Error(t, s.Add(Job{ID: "x"}))
	assert.Error(t, s.Add(Job{ID: "x", Hour: 24, Run: noop}))

	require.NoError(t, s.Add(Job{ID: "scheduled-sales-excel", Hour: 8, Run: noop}))
	require.NoError(t, s.Add(Job{ID: "scheduled-sales-excel", Hour: 9, Minute: 15, Run: noop}))
	require.NoError(t, s.Add(Job{ID: "anomaly-check", Hour: 6, Run: noop}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "anomaly-check", jobs[0].ID)
	assert.Equal(t, "09:15", jobs[1].At)

	assert.True(t, s.Remove("anomaly-check"))
	assert.False(t, s.Remove("anomaly-check"))
	assert.Len(t, s.Jobs(), 1)
}

func TestRunNowRecordsOutcome(t *testing.T) {
	rec := &fakeRecorder{}
	s := New(time.UTC, rec)
	boom := errors.New("ledger down")
	require.NoError(t, s.Add(Job{ID: "ok", Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Add(Job{ID: "fails", Run: func(context.Context) error { return boom }}))
	require.NoError(t, s.Add(Job{ID: "panics", Run: func(context.Context) error { panic("bad") }}))

	assert.NoError(t, s.RunNow(context.Background(), "ok"))
	assert.ErrorIs(t, s.RunNow(context.Background(), "fails"), boom)
	assert.ErrorContains(t, s.RunNow(context.Background(), "panics"), "panicked")
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrUnknownJob)

	require.Len(t, rec.runs, 3)
	assert.NoError(t, rec.runs[0].err)
	assert.Error(t, rec.runs[1].err)
}

func TestJobNeverOverlapsItself(t *testing.T) {
	s := New(time.UTC, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Add(Job{ID: "slow", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	errc := make(chan error, 1)
	go func() { errc <- s.RunNow(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), ErrJobRunning)
	close(release)
	assert.NoError(t, <-errc)
}

func TestStartFiresAndStopWaits(t *testing.T) {
	rec := &fakeRecorder{}
	s := New(time.UTC, rec)
	s.schedule = func(Job) (cron.Schedule, error) { return every(10 * time.Millisecond), nil }

	var runs atomic.Int32
	require.NoError(t, s.Add(Job{ID: "tick", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
	assert.NoError(t, s.Stop(ctx), "stop is idempotent")
}

func TestAddAfterStartLaunches(t *testing.T) {
	s := New(time.UTC, nil)
	fired := make(chan struct{}, 1)
	s.schedule = func(Job) (cron.Schedule, error) { return every(10 * time.Millisecond), nil }
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.Add(Job{ID: "late", Run: func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job registered after start never ran")
	}
}
