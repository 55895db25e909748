package pipeline

import (
	"context"
	"sync"

	"github.com/desertthunder/tagx/internal/shared"
)

// TaskState enumerates the task lifecycle. Transitions only move forward
// (PENDING → RUNNING → COMPLETED/FAILED) except PENDING → CANCELLED.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// Terminal reports whether the state is final and immutable.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// WorkFunc is a deferred unit of work executed by a queue worker. Bodies must
// catch their own panics-as-errors; whatever error they return is recorded on
// the task rather than propagated.
type WorkFunc func(ctx context.Context) (any, error)

// Task is one unit of queued work. The queue owns its state until a terminal
// state is reached; afterwards producers may read Result/Err but not mutate.
type Task struct {
	ID   string
	Work WorkFunc

	mu     sync.RWMutex
	state  TaskState
	result any
	err    error
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Result returns the recorded result; nil until the task completes.
func (t *Task) Result() any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// Err returns the recorded error; nil unless the task failed.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// TaskQueue is a thread-safe FIFO of tasks gated by a circuit breaker.
// While the breaker is open, Next returns nil system-wide: the open breaker
// is a global backpressure valve for the whole isolation domain, not a
// per-source filter.
type TaskQueue struct {
	mu      sync.Mutex
	tasks   map[string]*Task // all tasks ever added, by ID
	fifo    []*Task
	breaker *CircuitBreaker
}

// NewTaskQueue creates an empty queue gated by the given breaker.
func NewTaskQueue(breaker *CircuitBreaker) *TaskQueue {
	return &TaskQueue{
		tasks:   make(map[string]*Task),
		breaker: breaker,
	}
}

// Breaker exposes the breaker gating this queue.
func (q *TaskQueue) Breaker() *CircuitBreaker {
	return q.breaker
}

// Add creates a PENDING task and appends it to the FIFO. An empty id gets a
// generated UUID. Returns the created task.
func (q *TaskQueue) Add(id string, work WorkFunc) *Task {
	if id == "" {
		id = shared.GenerateID()
	}
	task := &Task{ID: id, Work: work, state: TaskPending}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[id] = task
	q.fifo = append(q.fifo, task)
	return task
}

// Next pops the next PENDING task and marks it RUNNING. Returns nil when the
// breaker is open or no pending task remains; cancelled tasks are skipped.
func (q *TaskQueue) Next() *Task {
	if !q.breaker.Allow() {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.fifo) > 0 {
		task := q.fifo[0]
		q.fifo = q.fifo[1:]

		task.mu.Lock()
		if task.state != TaskPending {
			task.mu.Unlock()
			continue
		}
		task.state = TaskRunning
		task.mu.Unlock()
		return task
	}
	return nil
}

// Complete records a terminal state for task: FAILED when err is non-nil,
// COMPLETED otherwise. The outcome is reported to the breaker. Completing an
// already-terminal task is a no-op.
func (q *TaskQueue) Complete(task *Task, result any, err error) {
	task.mu.Lock()
	if task.state.Terminal() {
		task.mu.Unlock()
		return
	}
	if err != nil {
		task.state = TaskFailed
		task.err = err
	} else {
		task.state = TaskCompleted
		task.result = result
	}
	task.mu.Unlock()

	if err != nil {
		q.breaker.RecordFailure()
	} else {
		q.breaker.RecordSuccess()
	}
}

// Cancel transitions a PENDING task to CANCELLED. Returns false when the task
// is unknown, already running, or terminal.
func (q *TaskQueue) Cancel(id string) bool {
	q.mu.Lock()
	task, ok := q.tasks[id]
	q.mu.Unlock()
	if !ok {
		return false
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	if task.state != TaskPending {
		return false
	}
	task.state = TaskCancelled
	return true
}

// Pending returns the number of tasks still waiting for dispatch.
func (q *TaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, task := range q.fifo {
		if task.State() == TaskPending {
			n++
		}
	}
	return n
}

// Counts tallies tasks by state across everything added to the queue.
func (q *TaskQueue) Counts() map[TaskState]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[TaskState]int)
	for _, task := range q.tasks {
		counts[task.State()]++
	}
	return counts
}
