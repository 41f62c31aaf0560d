package plan

import (
	"context"

	"github.com/vk/artifex/internal/operations"
	"github.com/vk/artifex/internal/transform"
)

// DependencyResolver maps dependency targets to the graph nodes that must
// complete before the target is usable. A nil task means the target is
// being resolved at artifact level rather than on behalf of a specific
// node; how that distinction is honored is the resolver's policy.
type DependencyResolver interface {
	ResolveDependenciesFor(task Node, target any) []Node
}

// Node is the contract every schedulable graph entity satisfies.
//
// ResolveDependencies is called during graph expansion, before execution.
// It must register each discovered dependency as a hard-successor edge on
// the node itself and report it through onDiscovered so the scheduler can
// expand the dependency's own subgraph. It must be idempotent: repeated
// expansion passes see the same dependency set.
//
// Execute is called at most once, only after every registered dependency
// has completed. The returned error is a node execution fault; a transform
// failure is not a fault and is carried inside the produced subject.
type Node interface {
	ResolveDependencies(resolver DependencyResolver, onDiscovered func(Node))
	DependencySuccessors() []Node
	Execute(ctx context.Context, opExec *operations.Executor, listener transform.Listener) error

	// KindName identifies the concrete node kind; ordering across kinds
	// compares these names.
	KindName() string
	// CompareTo gives a total, deterministic order: by kind name across
	// kinds, by creation sequence within a kind.
	CompareTo(other Node) int

	// Finalizers returns nodes to schedule in the finalization phase.
	Finalizers() []Node
	// PrepareForExecution runs before the node is handed to a worker.
	PrepareForExecution()
	// OwningProject names the project whose state the node mutates; empty
	// means the node is project-independent.
	OwningProject() string
	// NodeFailure returns a graph-level failure of the node itself.
	NodeFailure() error
}
