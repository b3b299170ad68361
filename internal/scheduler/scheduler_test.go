package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestTriggerNowRunsTask(t *testing.T) {
	s := newTestScheduler(t)

	ran := false
	require.NoError(t, s.RegisterTask("demo", "0 3 * * *", func(ctx context.Context) error {
		ran = true
		return nil
	}))

	require.NoError(t, s.TriggerNow(context.Background(), "demo"))
	require.True(t, ran)
}

func TestTriggerNowUnknownTask(t *testing.T) {
	s := newTestScheduler(t)

	err := s.TriggerNow(context.Background(), "nope")
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeUnknownTask))
}

func TestRegisterTaskRejectsBadCron(t *testing.T) {
	s := newTestScheduler(t)

	err := s.RegisterTask("bad", "not a cron", func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestRegisterTaskReplacesExisting(t *testing.T) {
	s := newTestScheduler(t)

	var got string
	register := func(tag string) {
		require.NoError(t, s.RegisterTask("demo", "0 3 * * *", func(ctx context.Context) error {
			got = tag
			return nil
		}))
	}

	register("first")
	register("second")
	require.Len(t, s.Names(), 1)

	require.NoError(t, s.TriggerNow(context.Background(), "demo"))
	require.Equal(t, "second", got)
}

func TestTaskPanicIsContained(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterTask("boom", "0 3 * * *", func(ctx context.Context) error {
		panic("kaboom")
	}))

	err := s.TriggerNow(context.Background(), "boom")
	require.Error(t, err)
	require.Equal(t, derrors.CategoryScheduler, derrors.GetCategory(err))

	// The scheduler keeps working after a panic.
	require.NoError(t, s.RegisterTask("ok", "0 4 * * *", func(ctx context.Context) error { return nil }))
	require.NoError(t, s.TriggerNow(context.Background(), "ok"))
}

func TestTriggerNowSerializedPerTask(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	active := 0
	maxActive := 0

	require.NoError(t, s.RegisterTask("slow", "0 3 * * *", func(ctx context.Context) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.TriggerNow(context.Background(), "slow")
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxActive, "executions of one task must not overlap")
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	s.Start()
	s.Start()
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}
