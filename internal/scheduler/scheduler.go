// Package scheduler runs daily jobs at a wall-clock time in a fixed
// location. The process entry point owns its lifecycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var (
	ErrJobRunning = errors.New("job is already running")
	ErrUnknownJob = errors.New("unknown job")
)

// Recorder observes job executions.
type Recorder interface {
	JobRun(job string, dur time.Duration, err error)
}

// Job runs once a day at Hour:Minute.
type Job struct {
	ID     string
	Hour   int
	Minute int
	Run    func(ctx context.Context) error
}

// JobInfo describes a registered job.
type JobInfo struct {
	ID      string    `json:"id"`
	At      string    `json:"at"`
	NextRun time.Time `json:"next_run"`
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// NextRun is the first hour:minute in loc strictly after t.
func NextRun(t time.Time, hour, minute int, loc *time.Location) time.Time {
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

type entry struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool
}

type Scheduler struct {
	loc      *time.Location
	recorder Recorder
	now      func() time.Time
	schedule func(Job) (cron.Schedule, error)

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(loc *time.Location, recorder Recorder) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		loc:      loc,
		recorder: recorder,
		now:      time.Now,
		schedule: dailySchedule,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
		),
		entries: make(map[string]*entry),
	}
}

func dailySchedule(job Job) (cron.Schedule, error) {
	return cron.ParseStandard(fmt.Sprintf("%d %d * * *", job.Minute, job.Hour))
}

// Add registers job, replacing any job with the same ID.
func (s *Scheduler) Add(job Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id must not be empty")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.ID)
	}
	if job.Hour < 0 || job.Hour > 23 || job.Minute < 0 || job.Minute > 59 {
		return fmt.Errorf("job %s: invalid time %02d:%02d", job.ID, job.Hour, job.Minute)
	}
	sched, err := s.schedule(job)
	if err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[job.ID]; ok {
		s.cron.Remove(old.id)
		log.Info().Str("job", job.ID).Msg("scheduler: replacing job")
	}
	e := &entry{job: job}
	e.id = s.cron.Schedule(sched, cron.FuncJob(func() { s.fire(e) }))
	s.entries[job.ID] = e
	log.Info().Str("job", job.ID).Str("at", fmt.Sprintf("%02d:%02d", job.Hour, job.Minute)).Msg("scheduler: job registered")
	return nil
}

func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if ok {
		s.cron.Remove(e.id)
		delete(s.entries, id)
	}
	return ok
}

func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	infos := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, JobInfo{
			ID:      e.job.ID,
			At:      fmt.Sprintf("%02d:%02d", e.job.Hour, e.job.Minute),
			NextRun: NextRun(now, e.job.Hour, e.job.Minute, s.loc),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	log.Info().Int("jobs", len(s.entries)).Str("timezone", s.loc.String()).Msg("scheduler: started")
	return nil
}

// Stop halts the timer loop, cancels running jobs and waits for them to
// return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.ctx = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	done := s.cron.Stop()
	cancel()

	select {
	case <-done.Done():
		log.Info().Msg("scheduler: stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a registered job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return s.execute(ctx, e)
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		return
	}
	if err := s.execute(ctx, e); errors.Is(err, ErrJobRunning) {
		log.Warn().Str("job", e.job.ID).Msg("scheduler: previous run still in progress, skipping")
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	defer e.running.Store(false)

	start := time.Now()
	err := s.safeRun(ctx, e.job)
	dur := time.Since(start)
	if s.recorder != nil {
		s.recorder.JobRun(e.job.ID, dur, err)
	}
	if err != nil {
		log.Error().Err(err).Str("job", e.job.ID).Dur("duration", dur).Msg("scheduler: job failed")
		return err
	}
	log.Info().Str("job", e.job.ID).Dur("duration", dur).Msg("scheduler: job completed")
	return nil
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return job.Run(ctx)
}

// cronLogger routes the cron runtime's own messages through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("scheduler: cron " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("scheduler: cron " + msg)
}
