// Package raaf provides a high-level façade over the runner, agent and pool
// packages for building tool-using agent applications. Most programs interact
// with this package by:
//  1. Creating a Runtime via New() around a model provider
//  2. Declaring agents with their tools, guardrails and handoff targets
//  3. Executing runs synchronously (Run) or over the worker pool (Go)
//
// The façade delegates the turn loop to runner.Runner and concurrency to
// pool.Pool while keeping setup concise. Defaults are safe for local
// development; production deployments typically supply a structured logger
// and tuned pool sizing.
package raaf

import (
	"context"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/hook"
	"github.com/raaf-ai/raaf-go/logging"
	"github.com/raaf-ai/raaf-go/pool"
	"github.com/raaf-ai/raaf-go/provider"
	"github.com/raaf-ai/raaf-go/runner"
	"github.com/raaf-ai/raaf-go/tool"
)

// Version is the current release of the module.
const Version = "0.1.0"

// Options configures the Runtime.
type Options struct {
	// MaxTurns is the default model round-trip limit per run.
	MaxTurns int
	// ToolConfig is the default tool executor configuration.
	ToolConfig tool.Config
	// Hooks receives lifecycle events for every run.
	Hooks *hook.Dispatcher
	// Workers is the pool's concurrent session count.
	Workers int
	// QueueSize is the pool's backlog capacity.
	QueueSize int
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Runtime is the high-level façade aggregating a runner and its worker pool.
type Runtime struct {
	opts   Options
	runner *runner.Runner
	pool   *pool.Pool
}

// New creates a new Runtime over the given provider with optional overrides.
// The worker pool is constructed but not started; Start launches it.
func New(p provider.Provider, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		MaxTurns:   runner.DefaultMaxTurns,
		ToolConfig: tool.DefaultConfig(),
		Workers:    4,
		QueueSize:  16,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(p, func(o *runner.Options) {
		o.MaxTurns = opts.MaxTurns
		o.ToolConfig = opts.ToolConfig
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
	})

	wp := pool.New(r, func(o *pool.Options) {
		o.Workers = opts.Workers
		o.QueueSize = opts.QueueSize
		o.Logger = opts.Logger
	})

	return &Runtime{opts: opts, runner: r, pool: wp}
}

// Runner exposes the underlying runner for direct use.
func (rt *Runtime) Runner() *runner.Runner { return rt.runner }

// Start launches the worker pool. Required before Go or Stream.
func (rt *Runtime) Start() error { return rt.pool.Start() }

// Stop drains the pool and waits for in-flight runs to finish.
func (rt *Runtime) Stop() error { return rt.pool.Stop() }

// Run executes a run synchronously on the calling goroutine.
func (rt *Runtime) Run(ctx context.Context, a *agent.Agent, input string) (*runner.RunResult, error) {
	return rt.runner.Run(ctx, a, input)
}

// RunWithConfig executes a run synchronously with per-run overrides.
func (rt *Runtime) RunWithConfig(ctx context.Context, a *agent.Agent, input string, cfg runner.RunConfig) (*runner.RunResult, error) {
	return rt.runner.RunWithConfig(ctx, a, input, cfg)
}

// Go submits a run to the worker pool and returns a handle for observing it.
func (rt *Runtime) Go(ctx context.Context, task pool.Task) (*pool.Handle, error) {
	return rt.pool.Submit(ctx, task)
}

// Stream opens a pooled session with per-event callback registration.
func (rt *Runtime) Stream(task pool.Task) *pool.StreamSession {
	return rt.pool.OpenStream(task)
}
