package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/raaf-ai/raaf-go/hook"
	"github.com/raaf-ai/raaf-go/runner"
)

// StreamSession is a pooled run with per-event callback registration.
// Register handlers with On before Start; events are delivered on the
// worker goroutine executing the run, in the order the runner emits them.
//
//	session := p.OpenStream(pool.Task{Agent: triage, Input: query})
//	session.On(hook.EventToolEnd, func(p hook.Payload) { ... })
//	if err := session.Start(ctx); err != nil { ... }
//	result, err := session.Wait()
type StreamSession struct {
	pool *Pool
	task Task

	mu        sync.Mutex
	listeners []hook.Listener
	handle    *Handle
	started   bool
}

// OpenStream prepares a streaming session for the task. The run does not
// begin until Start.
func (p *Pool) OpenStream(task Task) *StreamSession {
	return &StreamSession{pool: p, task: task}
}

// On registers a callback for one event kind. Returns the session for
// chaining. Registration after Start has no effect.
func (s *StreamSession) On(event hook.Event, fn func(p hook.Payload)) *StreamSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, hook.ListenerFunc(func(p hook.Payload) (any, error) {
		if p.Event != event {
			return nil, nil
		}
		fn(p)
		return nil, nil
	}))

	return s
}

// Start submits the run with the registered listeners attached.
func (s *StreamSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("pool: stream session already started")
	}

	task := s.task
	cfg := task.Config
	listeners := make([]hook.Listener, 0, len(cfg.Listeners)+len(s.listeners))
	listeners = append(listeners, cfg.Listeners...)
	listeners = append(listeners, s.listeners...)
	cfg.Listeners = listeners
	task.Config = cfg

	handle, err := s.pool.Submit(ctx, task)
	if err != nil {
		return err
	}

	s.handle = handle
	s.started = true

	return nil
}

// Stop cancels the run. Safe to call before Start (it is then a no-op) and
// more than once.
func (s *StreamSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		s.handle.Cancel()
	}
}

// Done returns a channel closed when the run finished. Nil before Start.
func (s *StreamSession) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	return s.handle.Done()
}

// Wait blocks until the run finished and returns its outcome.
func (s *StreamSession) Wait() (*runner.RunResult, error) {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return nil, errors.New("pool: stream session not started")
	}
	return handle.Result()
}
