package tool

import (
	"github.com/raaf-ai/raaf-go/internal/util"
)

// Options configure a FunctionTool.
type Options struct {
	// AlreadyWrapped declares that the function performs its own
	// validation, logging and metadata handling, exempting it from the
	// Executor's convenience layer.
	AlreadyWrapped bool
}

// FunctionTool exposes a plain Go function as a Tool.
//
// By default a FunctionTool is "raw": it carries no conveniences of its own
// and relies on the Executor for parameter validation, logging and
// execution metadata. Construct with WithAlreadyWrapped for functions that
// handle those concerns themselves.
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type FunctionTool struct {
	name           string
	description    string
	parameters     map[string]any
	alreadyWrapped bool
	fn             func(tc *Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// function.
//
// Example:
//
//	sumTool := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(tc *tool.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(tc *Context, args map[string]any) (any, error),
	optFns ...func(o *Options),
) *FunctionTool {
	opts := Options{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &FunctionTool{
		name:           name,
		description:    description,
		parameters:     parameters,
		alreadyWrapped: opts.AlreadyWrapped,
		fn:             fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct
// using reflection, equivalent to util.CreateSchema(structType).
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sumTool := tool.NewFunctionToolFromStruct(
//	  "calculate_sum", "Calculate the sum of two numbers", SumArgs{}, fn)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(tc *Context, args map[string]any) (any, error),
	optFns ...func(o *Options),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

// WithAlreadyWrapped marks the tool as handling its own conveniences.
func WithAlreadyWrapped() func(o *Options) {
	return func(o *Options) { o.AlreadyWrapped = true }
}

// Name returns the unique tool name used in function call declarations.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// AlreadyWrapped reports whether the executor should bypass conveniences.
func (t *FunctionTool) AlreadyWrapped() bool { return t.alreadyWrapped }

// Call invokes the wrapped function.
func (t *FunctionTool) Call(tc *Context, args map[string]any) (any, error) {
	return t.fn(tc, args)
}
