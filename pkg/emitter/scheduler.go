package emitter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// FlushScheduler runs a single job at a fixed rate after an initial delay.
// Exactly one invocation is in flight at a time: an invocation that overruns
// the period delays the next one instead of running concurrently with it.
type FlushScheduler struct {
	delay  time.Duration
	period time.Duration
	job    func()
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
	stopped bool
}

// NewFlushScheduler creates a scheduler that invokes job every period,
// starting delay after Start is called.
func NewFlushScheduler(delay, period time.Duration, job func(), logger *slog.Logger) *FlushScheduler {
	if logger == nil {
		logger = slog.Default().With("component", "emitter.scheduler")
	}
	return &FlushScheduler{
		delay:  delay,
		period: period,
		job:    job,
		logger: logger,
	}
}

// Start begins the periodic job. Calling Start again is a no-op.
func (s *FlushScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(cron.DelayIfStillRunning(cl)))
	s.cron.Schedule(fixedRateSchedule{
		first:  time.Now().Add(s.delay),
		period: s.period,
	}, cron.FuncJob(s.job))
	s.cron.Start()

	s.logger.Info("flush scheduler started",
		"delay", s.delay.String(),
		"period", s.period.String(),
	)
}

// Stop cancels all future invocations immediately. It does not wait for an
// in-flight invocation to complete. Safe to call more than once.
func (s *FlushScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	if s.cron != nil {
		s.cron.Stop()
		s.logger.Info("flush scheduler stopped")
	}
}

// fixedRateSchedule fires first at a fixed point in time, then once per
// period. Implements cron.Schedule.
type fixedRateSchedule struct {
	first  time.Time
	period time.Duration
}

func (s fixedRateSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.period)
}

// cronLogger adapts slog to the cron.Logger interface. Cron chatter goes to
// debug; only real errors surface at error level.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]any{"error", err}, keysAndValues...)
	l.logger.Error(msg, args...)
}
