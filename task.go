package contraptions

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Tick is a host scheduler step. The default scheduler runs 20 ticks per second.
type Tick = uint64

// scheduledTask represents a repeating task owned by a contraption.
type scheduledTask struct {
	// executeAt is the tick the task should next execute on
	executeAt Tick

	// lastRun is the tick the current interval started on
	lastRun Tick

	// period is the number of ticks between firings after the first
	period Tick

	// owner is the identity of the contraption the task belongs to
	owner uuid.UUID

	// fn receives the number of ticks elapsed since the previous firing
	fn func(elapsed Tick)

	// cancelled indicates if the task has been cancelled
	cancelled atomic.Bool
}

// taskQueue is a priority queue for scheduled tasks.
// It uses a binary heap for O(log n) insertion and removal.
type taskQueue struct {
	mu   sync.Mutex
	heap []*scheduledTask
}

// newTaskQueue creates a new task queue.
func newTaskQueue() *taskQueue {
	return &taskQueue{
		heap: make([]*scheduledTask, 0, 64),
	}
}

// compactHeap removes cancelled tasks from the heap and rebuilds the heap property.
func (q *taskQueue) compactHeap() {
	write := 0
	for read := 0; read < len(q.heap); read++ {
		if !q.heap[read].cancelled.Load() {
			q.heap[write] = q.heap[read]
			write++
		}
	}

	for i := write; i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = q.heap[:write]

	for i := len(q.heap)/2 - 1; i >= 0; i-- {
		q.down(i, len(q.heap))
	}
}

// Push adds a task to the queue with periodic cleanup to prevent memory leaks.
func (q *taskQueue) Push(task *scheduledTask) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) > 100 && len(q.heap)%100 == 0 {
		q.compactHeap()
	}
	q.push(task)
}

// push adds a task without locking. Caller must hold lock.
func (q *taskQueue) push(task *scheduledTask) {
	q.heap = append(q.heap, task)
	q.up(len(q.heap) - 1)
}

// PopDue removes and returns all live tasks due on or before tick now.
// Cancelled tasks are dropped.
func (q *taskQueue) PopDue(now Tick) (due, dropped []*scheduledTask) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) > 0 && q.heap[0].executeAt <= now {
		task := q.pop()
		if task.cancelled.Load() {
			dropped = append(dropped, task)
			continue
		}
		due = append(due, task)
	}

	if len(dropped) > 50 && len(q.heap) > 0 {
		q.compactHeap()
	}
	return due, dropped
}

// Peek returns the next due tick without removing.
func (q *taskQueue) Peek() (Tick, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return 0, false
	}
	return q.heap[0].executeAt, true
}

// Len returns the number of tasks in the queue.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// pop removes and returns the minimum task. Caller must hold lock.
func (q *taskQueue) pop() *scheduledTask {
	n := len(q.heap) - 1
	q.swap(0, n)
	q.down(0, n)
	task := q.heap[n]
	q.heap[n] = nil // Allow GC
	q.heap = q.heap[:n]
	return task
}

// up moves task at index up the heap.
func (q *taskQueue) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || q.heap[i].executeAt >= q.heap[parent].executeAt {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down moves task at index down the heap.
func (q *taskQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.heap[right].executeAt < q.heap[left].executeAt {
			j = right
		}
		if q.heap[j].executeAt >= q.heap[i].executeAt {
			break
		}
		q.swap(i, j)
		i = j
	}
}

// swap swaps two tasks in the heap.
func (q *taskQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
}

// TaskHandle allows cancelling a scheduled task.
// Cancelling is idempotent and safe from any goroutine, including from
// inside the task's own callback.
type TaskHandle struct {
	task *scheduledTask
}

// Cancel cancels the scheduled task, preventing future executions.
func (h *TaskHandle) Cancel() {
	if h != nil && h.task != nil {
		h.task.cancelled.Store(true)
	}
}

// Cancelled reports whether the task has been cancelled.
func (h *TaskHandle) Cancelled() bool {
	return h == nil || h.task == nil || h.task.cancelled.Load()
}

// Owner returns the identity of the contraption the task belongs to.
func (h *TaskHandle) Owner() uuid.UUID {
	if h == nil || h.task == nil {
		return uuid.Nil
	}
	return h.task.owner
}
