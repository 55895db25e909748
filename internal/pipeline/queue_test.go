package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func noopWork(ctx context.Context) (any, error) {
	return nil, nil
}

func TestTaskQueue(t *testing.T) {
	t.Run("fifo dispatch order", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))

		q.Add("a", noopWork)
		q.Add("b", noopWork)
		q.Add("c", noopWork)

		for _, want := range []string{"a", "b", "c"} {
			task := q.Next()
			if task == nil {
				t.Fatalf("expected task %s, got nil", want)
			}
			if task.ID != want {
				t.Errorf("expected task %s, got %s", want, task.ID)
			}
			if task.State() != TaskRunning {
				t.Errorf("dispatched task should be running, got %s", task.State())
			}
		}

		if q.Next() != nil {
			t.Error("empty queue should return nil")
		}
	})

	t.Run("generated id when empty", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))
		task := q.Add("", noopWork)
		if task.ID == "" {
			t.Error("expected a generated task ID")
		}
	})

	t.Run("complete records result and closes breaker loop", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))
		task := q.Add("t", noopWork)
		q.Next()

		q.Complete(task, "done", nil)
		if task.State() != TaskCompleted {
			t.Errorf("expected completed, got %s", task.State())
		}
		if task.Result() != "done" {
			t.Errorf("expected result %q, got %v", "done", task.Result())
		}
	})

	t.Run("complete with error marks failed and feeds breaker", func(t *testing.T) {
		breaker := NewCircuitBreaker(2, time.Minute)
		q := NewTaskQueue(breaker)

		boom := errors.New("boom")
		for i := 0; i < 2; i++ {
			task := q.Add("", noopWork)
			q.Next()
			q.Complete(task, nil, boom)
			if task.State() != TaskFailed {
				t.Fatalf("expected failed, got %s", task.State())
			}
			if !errors.Is(task.Err(), boom) {
				t.Fatalf("expected recorded error, got %v", task.Err())
			}
		}

		if breaker.Allow() {
			t.Error("two failures should have opened the breaker")
		}
	})

	t.Run("terminal states are immutable", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))
		task := q.Add("t", noopWork)
		q.Next()
		q.Complete(task, "first", nil)

		q.Complete(task, "second", errors.New("late error"))
		if task.State() != TaskCompleted || task.Result() != "first" {
			t.Error("completing a terminal task should be a no-op")
		}
	})

	t.Run("open breaker pauses dispatch", func(t *testing.T) {
		breaker := NewCircuitBreaker(1, time.Minute)
		q := NewTaskQueue(breaker)
		q.Add("waiting", noopWork)

		breaker.RecordFailure()
		if q.Next() != nil {
			t.Error("open breaker should block dispatch even with pending tasks")
		}

		breaker.RecordSuccess()
		if task := q.Next(); task == nil || task.ID != "waiting" {
			t.Error("dispatch should resume once a success closes the breaker")
		}
	})

	t.Run("cancel pending only", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))
		q.Add("p", noopWork)

		if !q.Cancel("p") {
			t.Error("cancelling a pending task should succeed")
		}
		if q.Cancel("p") {
			t.Error("cancelling twice should fail")
		}
		if q.Cancel("missing") {
			t.Error("cancelling an unknown task should fail")
		}
		if q.Next() != nil {
			t.Error("cancelled task must not be dispatched")
		}

		running := q.Add("r", noopWork)
		q.Next()
		if q.Cancel("r") {
			t.Error("cancelling a running task should fail")
		}
		if running.State() != TaskRunning {
			t.Errorf("expected running, got %s", running.State())
		}
	})

	t.Run("counts by state", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(3, time.Minute))
		q.Add("a", noopWork)
		b := q.Add("b", noopWork)
		q.Add("c", noopWork)
		q.Cancel("c")

		q.Next() // a → running
		q.Next() // b → running
		q.Complete(b, nil, nil)

		counts := q.Counts()
		if counts[TaskRunning] != 1 || counts[TaskCompleted] != 1 || counts[TaskCancelled] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
		if q.Pending() != 0 {
			t.Errorf("expected no pending tasks, got %d", q.Pending())
		}
	})

	t.Run("concurrent workers drain the queue once", func(t *testing.T) {
		q := NewTaskQueue(NewCircuitBreaker(100, time.Minute))
		const n = 200
		for i := 0; i < n; i++ {
			q.Add("", noopWork)
		}

		var done int64
		var mu sync.Mutex
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					task := q.Next()
					if task == nil {
						return
					}
					q.Complete(task, nil, nil)
					mu.Lock()
					done++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if done != n {
			t.Errorf("expected %d completions, got %d", n, done)
		}
	})
}
