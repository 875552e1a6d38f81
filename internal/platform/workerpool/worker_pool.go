// Package workerpool provides a bounded pool for blocking and CPU-heavy
// calls so the concurrent scan path never stalls on them. API payload
// parsing is delegated here (one shared pool per process).
package workerpool

import (
	"context"
	"sync"

	"reconx/internal/platform/logx"
)

// Pool runs submitted functions on a fixed set of workers.
type Pool struct {
	workers int
	logger  logx.Logger

	taskQueue chan task

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

type task struct {
	fn   func() (any, error)
	done chan outcome
}

type outcome struct {
	value any
	err   error
}

// Config configures the pool.
type Config struct {
	Workers int
	Logger  logx.Logger
}

// New creates a worker pool. Call Start before submitting.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:   cfg.Workers,
		logger:    cfg.Logger.With("component", "worker-pool"),
		taskQueue: make(chan task, cfg.Workers*2),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.Debug("starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.taskQueue:
			if !ok {
				return
			}
			value, err := t.fn()
			t.done <- outcome{value: value, err: err}
		}
	}
}

// Submit enqueues fn and waits for its result. The wait is bounded by ctx:
// on cancellation Submit returns ctx.Err() while fn, if already started,
// runs to completion on its worker and is discarded.
func (p *Pool) Submit(ctx context.Context, fn func() (any, error)) (any, error) {
	t := task{fn: fn, done: make(chan outcome, 1)}

	select {
	case p.taskQueue <- t:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}

	select {
	case out := <-t.done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}
}

// Stop shuts the pool down and waits for in-flight tasks to finish.
// Safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.logger.Debug("stopping worker pool")
		p.cancel()
		p.wg.Wait()
	})
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}
