package operations

import (
	"context"
	"fmt"

	"github.com/vk/artifex/internal/ctxlog"
)

// Category tags an operation with the kind of work it performs.
type Category string

// CategoryTransform marks the execution of one scheduled transform step.
const CategoryTransform Category = "TRANSFORM"

// Descriptor names an operation for observability: a display name, a
// progress-facing variant of the same text, a category, and a structured
// details payload for tracing consumers.
type Descriptor struct {
	DisplayName         string
	ProgressDisplayName string
	Category            Category
	Details             any
}

// Runnable is a unit of work executable through the Executor.
type Runnable interface {
	Describe() Descriptor
	Run(opCtx *Context) error
}

// Context collects the outcome of one operation. The operation reports a
// result marker and, separately, a failure: a recorded failure does not
// make the operation itself fault, it is data for observers.
type Context struct {
	result  any
	failure error
}

// SetResult records the operation's result marker.
func (c *Context) SetResult(result any) { c.result = result }

// Failed records a failure observed by the operation. Passing nil records
// the absence of a failure and is the common case.
func (c *Context) Failed(err error) { c.failure = err }

// Result returns the recorded result marker.
func (c *Context) Result() any { return c.result }

// Failure returns the recorded failure, or nil.
func (c *Context) Failure() error { return c.failure }

// Observer receives operation lifecycle events.
type Observer interface {
	Started(ctx context.Context, desc Descriptor)
	Finished(ctx context.Context, desc Descriptor, opCtx *Context, fault error)
}

// Executor runs operations, guaranteeing that every started operation is
// finished exactly once with its outcome reported to all observers.
type Executor struct {
	observers []Observer
}

// NewExecutor returns an executor reporting to the given observers, always
// including the logging observer.
func NewExecutor(observers ...Observer) *Executor {
	return &Executor{observers: append([]Observer{logObserver{}}, observers...)}
}

// Run executes the operation. The returned error is an execution fault of
// the operation body; a failure recorded on the operation context is not a
// fault and does not surface here.
func (e *Executor) Run(ctx context.Context, op Runnable) (err error) {
	desc := op.Describe()
	opCtx := &Context{}
	for _, o := range e.observers {
		o.Started(ctx, desc)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation %q panicked: %v", desc.DisplayName, r)
		}
		for _, o := range e.observers {
			o.Finished(ctx, desc, opCtx, err)
		}
	}()
	err = op.Run(opCtx)
	return err
}

// logObserver reports operation lifecycle to the contextual slog logger.
type logObserver struct{}

func (logObserver) Started(ctx context.Context, desc Descriptor) {
	ctxlog.FromContext(ctx).Debug("Operation started.", "operation", desc.DisplayName, "category", string(desc.Category))
}

func (logObserver) Finished(ctx context.Context, desc Descriptor, opCtx *Context, fault error) {
	logger := ctxlog.FromContext(ctx)
	switch {
	case fault != nil:
		logger.Error("Operation faulted.", "operation", desc.DisplayName, "error", fault)
	case opCtx.Failure() != nil:
		logger.Warn("Operation completed with failure.", "operation", desc.DisplayName, "failure", opCtx.Failure())
	default:
		logger.Debug("Operation completed.", "operation", desc.DisplayName)
	}
}
