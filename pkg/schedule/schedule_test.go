package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCadenceRejectsNonDivisors(t *testing.T) {
	for _, m := range []int{0, -30, 7, 45, 1000} {
		_, err := NewCadence(m)
		assert.Error(t, err, "cadence %d", m)
	}
	for _, m := range []int{1, 5, 15, 30, 60, 90, 120, 1440} {
		_, err := NewCadence(m)
		assert.NoError(t, err, "cadence %d", m)
	}
}

func TestCadenceBoundaries(t *testing.T) {
	c, err := NewCadence(30)
	require.NoError(t, err)

	at := func(h, m, s int) time.Time { return time.Date(2021, 8, 29, h, m, s, 0, time.UTC) }

	assert.True(t, c.IsBoundary(at(14, 0, 0)))
	assert.True(t, c.IsBoundary(at(14, 30, 59)))
	assert.False(t, c.IsBoundary(at(14, 15, 0)))

	assert.Equal(t, at(14, 30, 0), c.Next(at(14, 0, 0)))
	assert.Equal(t, at(14, 30, 0), c.Next(at(14, 29, 59)))
	assert.Equal(t, at(15, 0, 0), c.Next(at(14, 30, 10)))
	assert.Equal(t, time.Date(2021, 8, 30, 0, 0, 0, 0, time.UTC), c.Next(at(23, 45, 0)))
}

func TestCadenceBoundariesBeyondAnHour(t *testing.T) {
	c, err := NewCadence(90)
	require.NoError(t, err)
	at := func(h, m int) time.Time { return time.Date(2021, 8, 29, h, m, 0, 0, time.UTC) }

	assert.True(t, c.IsBoundary(at(0, 0)))
	assert.True(t, c.IsBoundary(at(1, 30)))
	assert.False(t, c.IsBoundary(at(1, 0)))
	assert.Equal(t, at(3, 0), c.Next(at(1, 31)))
}

// advanceUntil steps the fake clock a minute at a time until n ticks arrive.
func advanceUntil(t *testing.T, clock *clockwork.FakeClock, ticks <-chan time.Time, n int) []time.Time {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []time.Time
	for len(got) < n {
		select {
		case tick := <-ticks:
			got = append(got, tick)
			continue
		default:
		}
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Minute)
	}
	return got
}

func TestSchedulerFiresOncePerBoundary(t *testing.T) {
	start := time.Date(2021, 8, 29, 23, 50, 30, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	c, err := NewCadence(30)
	require.NoError(t, err)

	ticks := make(chan time.Time, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	s := New(c, WithClock(clock), WithLocation(time.UTC), WithMaxSleep(time.Minute))
	go func() {
		done <- s.Run(ctx, func(_ context.Context, tick time.Time) {
			ticks <- tick
		})
	}()

	got := advanceUntil(t, clock, ticks, 2)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []time.Time{
		time.Date(2021, 8, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 8, 30, 0, 30, 0, 0, time.UTC),
	}, got)
	assert.Empty(t, ticks)
}

func TestSchedulerDoesNotRunAtStartupOffBoundary(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2021, 8, 29, 10, 5, 0, 0, time.UTC))
	c, err := NewCadence(30)
	require.NoError(t, err)

	fired := make(chan time.Time, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(c, WithClock(clock), WithLocation(time.UTC)).Run(ctx, func(_ context.Context, tick time.Time) {
			fired <- tick
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Empty(t, fired)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSchedulerRunsImmediatelyOnBoundaryMinute(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2021, 8, 29, 10, 30, 20, 0, time.UTC))
	c, err := NewCadence(30)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var ticks []time.Time
	err = New(c, WithClock(clock), WithLocation(time.UTC)).Run(ctx, func(_ context.Context, tick time.Time) {
		ticks = append(ticks, tick)
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Time{time.Date(2021, 8, 29, 10, 30, 0, 0, time.UTC)}, ticks)
}
