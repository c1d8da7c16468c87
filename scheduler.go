package contraptions

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TaskScheduler is the scheduling capability gadgets depend on.
// It is satisfied by *Scheduler and can be replaced in tests or by a host
// that drives its own tick loop.
type TaskScheduler interface {
	// Repeat runs fn after delay ticks and then every period ticks until the
	// returned handle or the owner is cancelled. fn receives the ticks elapsed
	// since the task was scheduled (first firing) or last fired.
	Repeat(owner uuid.UUID, delay, period Tick, fn func(elapsed Tick)) *TaskHandle

	// Cancel cancels every task held by owner.
	Cancel(owner uuid.UUID)
}

// Scheduler is a tick-driven registry of cancellable repeating tasks keyed
// by contraption identity. Due tasks of different owners run in parallel on
// a worker pool; tasks of one owner run in order.
type Scheduler struct {
	queue *taskQueue

	// owners indexes live tasks by the contraption that scheduled them
	owners   map[uuid.UUID]map[*scheduledTask]struct{}
	ownersMu sync.Mutex

	// Worker pool
	workers    int
	workerPool chan func()
	workerWG   sync.WaitGroup

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stepMu  sync.Mutex

	// Tick tracking
	tickRate time.Duration
	tick     atomic.Uint64

	log *slog.Logger
}

// NewScheduler creates a stopped scheduler. Call Start to drive it from a
// ticker, or Step to advance it by hand.
func NewScheduler(tickRate time.Duration, workers int, log *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if tickRate <= 0 {
		tickRate = 50 * time.Millisecond // 20 TPS
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		queue:      newTaskQueue(),
		owners:     make(map[uuid.UUID]map[*scheduledTask]struct{}),
		workers:    workers,
		workerPool: make(chan func(), workers*4),
		tickRate:   tickRate,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		log:        log,
	}
}

// Start begins the scheduler's tick loop.
func (s *Scheduler) Start() {
	if s.running.Swap(true) {
		return // Already running
	}

	for i := 0; i < s.workers; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}
	go s.tickLoop()
}

// Stop gracefully shuts down the scheduler. Pending tasks stay queued.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}

	close(s.stopCh)
	<-s.doneCh

	s.stepMu.Lock()
	close(s.workerPool)
	s.stepMu.Unlock()
	s.workerWG.Wait()
}

// worker is a pool worker that executes jobs.
func (s *Scheduler) worker() {
	defer s.workerWG.Done()
	for fn := range s.workerPool {
		fn()
	}
}

// tickLoop is the main scheduler loop.
func (s *Scheduler) tickLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Now returns the current tick number.
func (s *Scheduler) Now() Tick {
	return s.tick.Load()
}

// Step advances the scheduler by one tick and runs every task that became
// due, returning once they have all finished.
func (s *Scheduler) Step() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	now := s.tick.Add(1)
	due, dropped := s.queue.PopDue(now)
	for _, task := range dropped {
		s.forget(task)
	}
	if len(due) == 0 {
		return
	}

	// Group by owner so one contraption's tasks keep their order
	byOwner := make(map[uuid.UUID][]*scheduledTask)
	var order []uuid.UUID
	for _, task := range due {
		if _, ok := byOwner[task.owner]; !ok {
			order = append(order, task.owner)
		}
		byOwner[task.owner] = append(byOwner[task.owner], task)
	}

	var wg sync.WaitGroup
	for _, owner := range order {
		tasks := byOwner[owner]
		wg.Add(1)
		job := func() {
			defer wg.Done()
			for _, task := range tasks {
				s.execute(task)
			}
		}

		if !s.running.Load() {
			job()
			continue
		}
		select {
		case s.workerPool <- job:
		default:
			// Worker pool full, run inline
			job()
		}
	}
	wg.Wait()

	for _, task := range due {
		if task.cancelled.Load() {
			s.forget(task)
			continue
		}
		task.lastRun = task.executeAt
		task.executeAt += task.period
		s.queue.Push(task)
	}
}

// Next returns the tick the earliest queued task is due on.
func (s *Scheduler) Next() (Tick, bool) {
	return s.queue.Peek()
}

// Queued returns the number of tasks in the queue, including cancelled ones
// not yet dropped.
func (s *Scheduler) Queued() int {
	return s.queue.Len()
}

// Advance steps the scheduler n times.
func (s *Scheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// execute runs a single task firing.
func (s *Scheduler) execute(task *scheduledTask) {
	if task.cancelled.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			task.cancelled.Store(true)
			s.handleTaskPanic(task, r)
		}
	}()
	task.fn(task.executeAt - task.lastRun)
}

func (s *Scheduler) handleTaskPanic(task *scheduledTask, recovered any) {
	err := fmt.Errorf("contraptions: panic in task: %v", recovered)
	s.log.Error("contraptions: task cancelled after panic",
		"owner", task.owner,
		"error", err,
		"stack", string(debug.Stack()))
}

// Repeat schedules fn to run after delay ticks and then every period ticks.
func (s *Scheduler) Repeat(owner uuid.UUID, delay, period Tick, fn func(elapsed Tick)) *TaskHandle {
	if fn == nil {
		return nil
	}
	if period == 0 {
		period = 1
	}

	now := s.tick.Load()
	task := &scheduledTask{
		executeAt: now + delay,
		lastRun:   now,
		period:    period,
		owner:     owner,
		fn:        fn,
	}

	s.ownersMu.Lock()
	set := s.owners[owner]
	if set == nil {
		set = make(map[*scheduledTask]struct{})
		s.owners[owner] = set
	}
	set[task] = struct{}{}
	s.ownersMu.Unlock()

	s.queue.Push(task)
	return &TaskHandle{task: task}
}

// Cancel cancels every task held by owner.
func (s *Scheduler) Cancel(owner uuid.UUID) {
	s.ownersMu.Lock()
	set := s.owners[owner]
	delete(s.owners, owner)
	s.ownersMu.Unlock()

	for task := range set {
		task.cancelled.Store(true)
	}
}

// Pending returns the number of live tasks held by owner.
func (s *Scheduler) Pending(owner uuid.UUID) int {
	s.ownersMu.Lock()
	defer s.ownersMu.Unlock()

	n := 0
	for task := range s.owners[owner] {
		if !task.cancelled.Load() {
			n++
		}
	}
	return n
}

// forget drops a cancelled task from the owner index.
func (s *Scheduler) forget(task *scheduledTask) {
	s.ownersMu.Lock()
	defer s.ownersMu.Unlock()

	set := s.owners[task.owner]
	if set == nil {
		return
	}
	delete(set, task)
	if len(set) == 0 {
		delete(s.owners, task.owner)
	}
}
