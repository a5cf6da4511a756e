package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Dispatcher hands tasks off for asynchronous execution. Submit never blocks;
// it reports false when the queue is full or the dispatcher has stopped.
type Dispatcher interface {
	Submit(task Task) bool
}

// Pool executes submitted tasks on a fixed set of worker goroutines fed by a
// bounded queue. The submission path never blocks on a slow worker.
type Pool struct {
	workers int
	tasks   chan Task
	logger  zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewPool sizes the pool. Queue depth bounds how many accepted-but-unstarted
// tasks may pile up before submissions are refused.
func NewPool(workers, queueDepth int, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, queueDepth),
		logger:  logger,
	}
}

// Start launches the workers. Tasks receive ctx, so cancelling it interrupts
// in-flight work during shutdown.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			for task := range p.tasks {
				task(ctx)
			}
			p.logger.Debug().Int("worker", worker).Msg("pool: worker exited")
		}(i)
	}
}

// Submit enqueues a task without blocking. The lock is held across the send
// so Stop cannot close the channel mid-submission.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || !p.started {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn().Msg("pool: queue full, task refused")
		return false
	}
}

// Stop refuses further submissions and waits for queued and in-flight tasks
// to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped || !p.started {
		p.stopped = true
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

var _ Dispatcher = (*Pool)(nil)
