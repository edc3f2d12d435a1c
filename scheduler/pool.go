package scheduler

import (
	"runtime"
	"sync"
)

// Pool schedules work according to some strategy. Implementations choose
// the best tradeoff of goroutine latency versus idle memory for a given
// workload; Scheduler is agnostic to which one backs it.
//
// Carried over from the teacher's async.Scheduler interface
// (async/loader.go), stripped of the frame/tag/resource bookkeeping that
// was specific to driving a UI's per-frame resource cache — loom's own
// task chain (package task) tracks completion instead.
type Pool interface {
	// Schedule queues work for execution. May block if the pool is at
	// capacity.
	Schedule(work func())
}

// FixedWorkerPool runs work atop a fixed number of goroutines for the
// lifetime of the pool, minimizing per-task latency at the cost of holding
// that many goroutines open even when idle.
type FixedWorkerPool struct {
	// Workers specifies the number of concurrent workers in this pool.
	// Defaults to runtime.NumCPU() when <= 0.
	Workers int

	queue chan func()
	once  sync.Once
}

// Schedule queues work to be run by the available workers. Blocks if every
// worker is currently busy.
func (p *FixedWorkerPool) Schedule(work func()) {
	p.once.Do(func() {
		p.queue = make(chan func())
		if p.Workers <= 0 {
			p.Workers = runtime.NumCPU()
		}
		for i := 0; i < p.Workers; i++ {
			go func() {
				for w := range p.queue {
					if w != nil {
						w()
					}
				}
			}()
		}
	})
	p.queue <- work
}

// DynamicWorkerPool spins up a goroutine per unit of work, up to Workers
// concurrently, and lets each die off once its work completes. Trades the
// latency of spinning up a fresh goroutine for not holding idle workers.
//
// Ordering of work completion is not guaranteed to match submission order.
type DynamicWorkerPool struct {
	// Workers caps the number of concurrently running goroutines. Defaults
	// to runtime.NumCPU() when <= 0.
	Workers int64

	count chan struct{}
	queue chan func()
	once  sync.Once
}

// Schedule queues work to be run, spinning up a worker goroutine as soon as
// the semaphore allows. Blocks if the pool's intake queue is not being
// drained, which only happens once the worker cap is exhausted.
func (p *DynamicWorkerPool) Schedule(work func()) {
	p.once.Do(func() {
		if p.Workers <= 0 {
			p.Workers = int64(runtime.NumCPU())
		}
		p.queue = make(chan func())
		p.count = make(chan struct{}, p.Workers)
		for i := int64(0); i < p.Workers; i++ {
			p.count <- struct{}{}
		}
		go func() {
			for w := range p.queue {
				w := w
				if w != nil {
					sem := <-p.count
					go func() {
						w()
						p.count <- sem
					}()
				}
			}
		}()
	})
	p.queue <- work
}
