package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DelaySchedule is a cron.Schedule that fires once after Delay and then, when
// Period is positive, at a fixed rate anchored on the first fire. Missed
// ticks are skipped rather than replayed. A one-shot schedule reports the
// zero time after it fired, which cron treats as "never again".
type DelaySchedule struct {
	Delay  time.Duration
	Period time.Duration

	mu    sync.Mutex
	first time.Time
}

var _ cron.Schedule = (*DelaySchedule)(nil)

// NewDelaySchedule returns a schedule for the given delay and period.
func NewDelaySchedule(delay, period time.Duration) *DelaySchedule {
	return &DelaySchedule{Delay: delay, Period: period}
}

// Next implements cron.Schedule.
func (s *DelaySchedule) Next(t time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.first.IsZero() {
		s.first = t.Add(s.Delay)
		return s.first
	}

	if t.Before(s.first) {
		return s.first
	}
	if s.Period <= 0 {
		return time.Time{}
	}

	ticks := t.Sub(s.first)/s.Period + 1
	return s.first.Add(ticks * s.Period)
}
