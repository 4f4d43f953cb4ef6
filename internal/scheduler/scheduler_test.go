package scheduler_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"easyref/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	s := scheduler.NewScheduler(16)
	s.RunScheduler()
	t.Cleanup(s.StopScheduler)
	return s
}

func TestDeferDebounces(t *testing.T) {
	s := newScheduler(t)

	var mu sync.Mutex
	var ran []string
	task := func(name string) scheduler.Task {
		return scheduler.Task{Name: name, Execute: func() error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		}}
	}

	s.Defer("table:a", 20*time.Millisecond, task("first"))
	s.Defer("table:a", 20*time.Millisecond, task("second"))
	s.Defer("table:a", 20*time.Millisecond, task("third"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"third"}, ran)
}

func TestStaleTaskIsDropped(t *testing.T) {
	s := newScheduler(t)

	var executed, validated atomic.Int32
	current := scheduler.Token{URI: "file:///a.md", Version: 3, Line: 1}

	s.Submit(scheduler.Task{
		Name:  "stale",
		Token: scheduler.Token{URI: "file:///a.md", Version: 2, Line: 1},
		Validate: func(tok scheduler.Token) bool {
			validated.Add(1)
			return tok == current
		},
		Execute: func() error {
			executed.Add(1)
			return nil
		},
	})

	require.Eventually(t, func() bool { return validated.Load() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, executed.Load())
}

func TestCancel(t *testing.T) {
	s := newScheduler(t)

	var executed atomic.Int32
	task := scheduler.Task{Name: "n", Execute: func() error {
		executed.Add(1)
		return nil
	}}

	s.Defer("table:file:///a.md", 10*time.Millisecond, task)
	s.Defer("image:file:///a.md", 10*time.Millisecond, task)
	s.Defer("image:file:///b.md", 10*time.Millisecond, task)
	assert.Equal(t, 3, s.Pending())

	s.Cancel("table:file:///a.md")
	s.CancelPrefix("image:file:///a")
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return executed.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1, executed.Load())
}

func TestTasksRunInOrder(t *testing.T) {
	s := newScheduler(t)

	var mu sync.Mutex
	var order []int
	for i := range 5 {
		s.Submit(scheduler.Task{Name: "ordered", Execute: func() error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
			return nil
		}})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, time.Second, time.Millisecond)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStopDropsPending(t *testing.T) {
	s := scheduler.NewScheduler(4)
	s.RunScheduler()

	var executed atomic.Int32
	s.Defer("k", time.Hour, scheduler.Task{Name: "late", Execute: func() error {
		executed.Add(1)
		return nil
	}})
	s.StopScheduler()
	s.StopScheduler()

	assert.Zero(t, s.Pending())
	s.Submit(scheduler.Task{Name: "after stop", Execute: func() error {
		executed.Add(1)
		return nil
	}})
	assert.Zero(t, executed.Load())
}
