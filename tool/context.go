package tool

import (
	"context"

	"github.com/raaf-ai/raaf-go/logging"
)

// Context is the constrained surface handed to tool implementations. It
// carries run correlation identifiers and a logger; tools never see the
// runner's mutable state.
type Context struct {
	ctx       context.Context
	runID     string
	agentName string
	callID    string
	logger    logging.Logger
}

// NewContext binds a tool invocation to its run, active agent and tool
// call id.
func NewContext(ctx context.Context, runID, agentName, callID string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{
		ctx:       ctx,
		runID:     runID,
		agentName: agentName,
		callID:    callID,
		logger:    logger,
	}
}

// Context returns the cancellation context of the run. Blocking tools must
// honor it.
func (tc *Context) Context() context.Context { return tc.ctx }

// RunID returns the id of the run this invocation belongs to.
func (tc *Context) RunID() string { return tc.runID }

// AgentName returns the name of the agent dispatching the call.
func (tc *Context) AgentName() string { return tc.agentName }

// CallID returns the tool call id assigned by the model.
func (tc *Context) CallID() string { return tc.callID }

// Logger returns the run logger.
func (tc *Context) Logger() logging.Logger { return tc.logger }
