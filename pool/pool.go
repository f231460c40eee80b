// Package pool runs many independent runner sessions concurrently over a
// bounded worker pool. Each task executes its whole turn loop on one worker
// without mid-turn preemption; the only shared state between sessions is
// the read-only agent and tool definitions.
package pool

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/logging"
	"github.com/raaf-ai/raaf-go/runner"
)

var (
	// ErrQueueFull is returned by Submit when the backlog is full and the
	// pool is configured not to block.
	ErrQueueFull = errors.New("pool: queue full")
	// ErrNotStarted is returned when submitting before Start.
	ErrNotStarted = errors.New("pool: not started")
	// ErrStopped is returned when submitting after Stop.
	ErrStopped = errors.New("pool: stopped")
)

// Task is one unit of work: a run of the given agent graph with the given
// input and per-run configuration.
type Task struct {
	Agent  *agent.Agent
	Input  string
	Config runner.RunConfig
}

// Options configure the pool.
type Options struct {
	// Workers is the number of concurrent sessions. Default 4.
	Workers int
	// QueueSize is the backlog capacity beyond the running sessions.
	// Default 16.
	QueueSize int
	// BlockOnFull makes Submit wait for backlog capacity instead of
	// failing with ErrQueueFull. Default true.
	BlockOnFull bool
	// Logger receives pool lifecycle events.
	Logger logging.Logger
}

// Pool multiplexes runner sessions over a fixed set of workers. The queue
// is internally synchronized; callers never synchronize manually.
type Pool struct {
	runner *runner.Runner
	opts   Options

	mu      sync.RWMutex
	queue   chan *Handle
	group   *errgroup.Group
	started bool
	stopped bool
}

// New creates a pool executing tasks on the given runner.
func New(r *runner.Runner, optFns ...func(o *Options)) *Pool {
	opts := Options{
		Workers:     4,
		QueueSize:   16,
		BlockOnFull: true,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}

	return &Pool{runner: r, opts: opts}
}

// Start launches the workers. It must be called once before Submit or Run.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pool: already started")
	}

	p.queue = make(chan *Handle, p.opts.QueueSize)
	p.group = new(errgroup.Group)

	for i := 0; i < p.opts.Workers; i++ {
		p.group.Go(p.worker)
	}

	p.started = true
	p.opts.Logger.Info("pool.started",
		"workers", p.opts.Workers, "queue_size", p.opts.QueueSize)

	return nil
}

// worker drains the queue until Stop closes it. Already queued handles are
// still executed during shutdown.
func (p *Pool) worker() error {
	for h := range p.queue {
		result, err := p.runner.RunWithConfig(h.ctx, h.task.Agent, h.task.Input, h.task.Config)
		h.complete(result, err)
	}
	return nil
}

// Submit enqueues a task without waiting for its completion and returns a
// Handle for observing it. When the backlog is full, Submit blocks until
// capacity frees up or ctx is done, unless BlockOnFull is disabled, in
// which case it fails fast with ErrQueueFull. ctx only governs enqueueing;
// cancel the returned handle to stop the run itself.
func (p *Pool) Submit(ctx context.Context, task Task) (*Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return nil, ErrNotStarted
	}
	if p.stopped {
		return nil, ErrStopped
	}

	h := newHandle(task)

	if p.opts.BlockOnFull {
		select {
		case p.queue <- h:
			return h, nil
		case <-ctx.Done():
			h.cancel()
			return nil, ctx.Err()
		}
	}

	select {
	case p.queue <- h:
		return h, nil
	default:
		h.cancel()
		return nil, ErrQueueFull
	}
}

// Run executes a task and blocks until its result is available. Built on
// Submit; cancelling ctx cancels the run at its next suspension boundary.
func (p *Pool) Run(ctx context.Context, task Task) (*runner.RunResult, error) {
	h, err := p.Submit(ctx, task)
	if err != nil {
		return nil, err
	}

	select {
	case <-h.Done():
		return h.Result()
	case <-ctx.Done():
		h.Cancel()
		<-h.Done()
		return nil, ctx.Err()
	}
}

// Stop closes the queue and waits for the workers to finish the backlog.
// In-flight runs complete; cancel individual handles to abort them.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return ErrNotStarted
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	err := p.group.Wait()
	p.opts.Logger.Info("pool.stopped")
	return err
}

// Handle observes one submitted task.
type Handle struct {
	task   Task
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	result *runner.RunResult
	err    error
}

func newHandle(task Task) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		task:   task,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// complete records the outcome exactly once. Result fields are published
// before done closes, so readers blocked on Done observe them safely.
func (h *Handle) complete(result *runner.RunResult, err error) {
	h.result = result
	h.err = err
	h.cancel()
	close(h.done)
}

// Done returns a channel closed when the task finished (or failed).
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel aborts the run at its next suspension boundary. An in-flight
// provider call may need the provider's own timeout to unwind.
func (h *Handle) Cancel() { h.cancel() }

// Result blocks until the task finished and returns its outcome.
func (h *Handle) Result() (*runner.RunResult, error) {
	<-h.done
	return h.result, h.err
}
