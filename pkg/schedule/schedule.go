// Package schedule wakes a job at wall-clock minute boundaries aligned to a
// fixed cadence, on an injectable clock.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const minutesPerDay = 24 * 60

// Cadence is a fetch interval in whole minutes that divides a day, so every
// boundary sits at the same wall-clock minutes each day (30 -> :00 and :30).
type Cadence struct {
	minutes int
}

func NewCadence(minutes int) (Cadence, error) {
	if minutes <= 0 || minutesPerDay%minutes != 0 {
		return Cadence{}, fmt.Errorf("cadence must be a positive divisor of %d minutes, got %d", minutesPerDay, minutes)
	}
	return Cadence{minutes: minutes}, nil
}

func (c Cadence) Minutes() int { return c.minutes }
func (c Cadence) Duration() time.Duration { return time.Duration(c.minutes) * time.Minute }

// IsBoundary reports whether the minute containing t is a cadence boundary,
// counted in minutes since midnight of t's location.
func (c Cadence) IsBoundary(t time.Time) bool {
	return (t.Hour()*60+t.Minute())%c.minutes == 0
}

// Next returns the first boundary strictly after the minute containing t.
func (c Cadence) Next(t time.Time) time.Time {
	minute := truncateMinute(t)
	sinceMidnight := minute.Hour()*60 + minute.Minute()
	step := c.minutes - sinceMidnight%c.minutes
	return minute.Add(time.Duration(step) * time.Minute)
}

func truncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// Job runs once per boundary with the boundary minute as tick.
type Job func(ctx context.Context, tick time.Time)

// Scheduler is a single-goroutine cooperative loop: it sleeps until the next
// boundary (never longer than maxSleep at a time) and runs the job in-line.
type Scheduler struct {
	cadence  Cadence
	clock    clockwork.Clock
	maxSleep time.Duration
	loc      *time.Location
	log      *zap.Logger
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option { return func(s *Scheduler) { s.clock = c } }
func WithMaxSleep(d time.Duration) Option { return func(s *Scheduler) { s.maxSleep = d } }
func WithLocation(loc *time.Location) Option { return func(s *Scheduler) { s.loc = loc } }
func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.log = l } }

func New(cadence Cadence, opts ...Option) *Scheduler {
	s := &Scheduler{
		cadence:  cadence,
		clock:    clockwork.NewRealClock(),
		maxSleep: time.Minute,
		loc:      time.Local,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run blocks until ctx is done. The job is never started twice for the same
// boundary minute, even when a pass finishes inside that minute.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	var last time.Time
	for {
		now := s.clock.Now().In(s.loc)
		tick := truncateMinute(now)
		if s.cadence.IsBoundary(tick) && !tick.Equal(last) {
			last = tick
			s.log.Debug("cadence boundary reached", zap.Time("tick", tick))
			job(ctx, tick)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		wait := s.cadence.Next(now).Sub(now)
		if wait > s.maxSleep {
			wait = s.maxSleep
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}
