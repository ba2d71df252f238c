// Package pool provides a bounded goroutine pool. The parallel fetcher uses
// it to cap in-flight page fetches: at most MaxWorkers tasks run at any
// instant, additional tasks queue and start as slots free.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed = errors.New("pool is closed")
	ErrPoolFull   = errors.New("pool queue is full")
)

// Task is a unit of work. The context passed to it is the one given to
// Submit; tasks must return promptly once it is cancelled.
type Task func(ctx context.Context) error

// WorkerPool runs tasks on at most maxWorkers goroutines.
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan queuedTask

	workerCount atomic.Int32
	activeCount atomic.Int32
	closed      atomic.Bool
	wg          sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	panicHandler func(any)
}

type queuedTask struct {
	task Task
	ctx  context.Context
}

// Config configures a WorkerPool.
type Config struct {
	// MaxWorkers caps concurrent task execution. Values below 1 become 1.
	MaxWorkers int
	// QueueSize is the task buffer; Submit fails with ErrPoolFull once the
	// buffer and all workers are busy. Values below 1 become MaxWorkers.
	QueueSize int
	// PanicHandler receives recovered task panics. Optional.
	PanicHandler func(any)
}

// New creates a worker pool. Workers are spawned lazily, up to MaxWorkers,
// and stay alive until Close.
func New(cfg Config) *WorkerPool {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = cfg.MaxWorkers
	}
	return &WorkerPool{
		maxWorkers:   cfg.MaxWorkers,
		taskQueue:    make(chan queuedTask, cfg.QueueSize),
		panicHandler: cfg.PanicHandler,
	}
}

// Submit queues a task. It never blocks: when the queue is full it returns
// ErrPoolFull, and after Close it returns ErrPoolClosed.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.taskQueue <- queuedTask{task: task, ctx: ctx}:
		p.submitted.Add(1)
		p.ensureWorker()
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *WorkerPool) ensureWorker() {
	for {
		current := p.workerCount.Load()
		if current >= int32(p.maxWorkers) {
			return
		}
		if p.workerCount.CompareAndSwap(current, current+1) {
			p.wg.Add(1)
			go p.worker()
			return
		}
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for queued := range p.taskQueue {
		p.activeCount.Add(1)
		err := p.run(queued)
		p.activeCount.Add(-1)

		if err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
	}
}

func (p *WorkerPool) run(queued queuedTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(r)
			}
			err = errors.New("task panicked")
		}
	}()
	return queued.task(queued.ctx)
}

// Close stops accepting tasks, drains the queue, and waits for workers to
// finish.
func (p *WorkerPool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
}

// Stats reports pool counters.
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Workers:   int(p.workerCount.Load()),
		Active:    int(p.activeCount.Load()),
		Queued:    len(p.taskQueue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats contains pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
