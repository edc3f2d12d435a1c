// Package scheduler implements spec.md §6's Scheduler collaborator:
// submit_long_task(closure) -> task_handle, await(task_handles...). Long-
// task semantics: work runs to completion on a worker goroutine and is not
// required to be cooperative (spec §5, "Suspension points").
package scheduler

// Scheduler submits work to a Pool and hands back Task handles the caller
// can Await. This is the thin layer the teacher's async.Loader lacked:
// Loader's Schedule fired work with no way to wait for a specific piece of
// it to finish, because a UI frame loop only ever polled resource state.
// AssetLoadTask.isDone (package task) needs to know precisely when its own
// scheduled work is complete, so Submit returns a handle instead.
type Scheduler struct {
	pool Pool
}

// New constructs a Scheduler backed by pool. A nil pool defaults to a
// FixedWorkerPool sized to the host's CPU count.
func New(pool Pool) *Scheduler {
	if pool == nil {
		pool = &FixedWorkerPool{}
	}
	return &Scheduler{pool: pool}
}

// Task is a handle to one piece of scheduled work.
type Task struct {
	done chan struct{}
}

// Await blocks until the task's work has completed.
func (t *Task) Await() {
	<-t.done
}

// IsDone reports whether the task's work has completed, without blocking.
func (t *Task) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Submit schedules work on the underlying pool and returns a handle the
// caller can Await or poll with IsDone. Matches spec §6's
// submit_long_task.
func (s *Scheduler) Submit(work func()) *Task {
	t := &Task{done: make(chan struct{})}
	s.pool.Schedule(func() {
		defer close(t.done)
		work()
	})
	return t
}

// Await blocks until every given task has completed. nil tasks are
// skipped, matching spec §6's await(task_handles...) over a variadic set.
func Await(tasks ...*Task) {
	for _, t := range tasks {
		if t != nil {
			t.Await()
		}
	}
}
