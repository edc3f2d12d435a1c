package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsWorkAndCompletes(t *testing.T) {
	s := New(&FixedWorkerPool{Workers: 2})
	var ran atomic.Bool
	task := s.Submit(func() { ran.Store(true) })
	task.Await()
	if !ran.Load() {
		t.Fatal("work did not run before Await returned")
	}
	if !task.IsDone() {
		t.Fatal("IsDone() = false after Await returned")
	}
}

func TestIsDoneFalseWhileBlocked(t *testing.T) {
	s := New(&FixedWorkerPool{Workers: 1})
	release := make(chan struct{})
	task := s.Submit(func() { <-release })

	if task.IsDone() {
		t.Fatal("IsDone() = true before work finished")
	}
	close(release)
	task.Await()
	if !task.IsDone() {
		t.Fatal("IsDone() = false after work finished")
	}
}

func TestAwaitWaitsForAllTasks(t *testing.T) {
	s := New(&DynamicWorkerPool{Workers: 4})
	var count atomic.Int32
	tasks := make([]*Task, 5)
	for i := range tasks {
		tasks[i] = s.Submit(func() {
			time.Sleep(time.Millisecond)
			count.Add(1)
		})
	}
	Await(tasks...)
	if count.Load() != int32(len(tasks)) {
		t.Fatalf("count = %d, want %d", count.Load(), len(tasks))
	}
}

func TestAwaitSkipsNilTasks(t *testing.T) {
	s := New(&FixedWorkerPool{Workers: 1})
	task := s.Submit(func() {})
	Await(nil, task, nil)
	if !task.IsDone() {
		t.Fatal("task should be done after Await")
	}
}

func TestNewDefaultsToFixedWorkerPool(t *testing.T) {
	s := New(nil)
	if _, ok := s.pool.(*FixedWorkerPool); !ok {
		t.Fatalf("pool = %T, want *FixedWorkerPool", s.pool)
	}
}
