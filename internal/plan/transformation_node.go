package plan

import (
	"context"
	"errors"
	"strings"

	"github.com/vk/artifex/internal/artifact"
	"github.com/vk/artifex/internal/operations"
	"github.com/vk/artifex/internal/transform"
)

type nodeKind int

const (
	kindInitial nodeKind = iota
	kindChained
)

func (k nodeKind) name() string {
	if k == kindInitial {
		return "transformation:initial"
	}
	return "transformation:chained"
}

// TransformationNode represents one application of a transform step as a
// schedulable graph node. The Initial kind applies its step to a resolved
// artifact; the Chained kind applies its step to the output of the
// previous node in the chain.
type TransformationNode struct {
	id           int64
	kind         nodeKind
	step         transform.Step
	depsResolver transform.GraphDependenciesResolver

	// Initial only.
	artifact  artifact.Resolvable
	buildPath string

	// Chained only. The predecessor is owned by the scheduler's graph and
	// outlives this node.
	previous *TransformationNode

	// Written exactly once by Execute, read-only afterward. The scheduler's
	// dependencies-before-dependents guarantee provides the happens-before
	// edge for chained reads.
	subject *transform.Subject

	deps   []Node
	depSet map[Node]struct{}
}

// NewInitial creates a node applying step to the given resolvable
// artifact. buildPath identifies the originating build and is constant
// through a chain.
func NewInitial(seq *Sequence, step transform.Step, art artifact.Resolvable, depsResolver transform.GraphDependenciesResolver, buildPath string) *TransformationNode {
	return &TransformationNode{
		id:           seq.Next(),
		kind:         kindInitial,
		step:         step,
		depsResolver: depsResolver,
		artifact:     art,
		buildPath:    buildPath,
		depSet:       make(map[Node]struct{}),
	}
}

// NewChained creates a node applying step to the output of previous.
func NewChained(seq *Sequence, step transform.Step, previous *TransformationNode, depsResolver transform.GraphDependenciesResolver) *TransformationNode {
	return &TransformationNode{
		id:           seq.Next(),
		kind:         kindChained,
		step:         step,
		depsResolver: depsResolver,
		previous:     previous,
		depSet:       make(map[Node]struct{}),
	}
}

// SequenceID returns the node's creation-sequence id.
func (n *TransformationNode) SequenceID() int64 { return n.id }

// Step returns the transform step this node applies.
func (n *TransformationNode) Step() transform.Step { return n.step }

// Previous returns the predecessor node, or nil for an Initial node.
func (n *TransformationNode) Previous() *TransformationNode { return n.previous }

// BuildPath identifies the build that originated this chain. Chained nodes
// delegate to their predecessor.
func (n *TransformationNode) BuildPath() string {
	if n.kind == kindChained {
		return n.previous.BuildPath()
	}
	return n.buildPath
}

func (n *TransformationNode) String() string {
	return n.step.DisplayName()
}

// TransformedSubject returns the subject this node produced. Calling it
// before the node executed is a usage error.
func (n *TransformationNode) TransformedSubject() transform.Subject {
	if n.subject == nil {
		panic("transformation has not been executed yet")
	}
	return *n.subject
}

func (n *TransformationNode) setTransformedSubject(subject transform.Subject) {
	if n.subject != nil {
		panic("transformation has already been executed")
	}
	n.subject = &subject
}

// ResolveDependencies discovers what must complete before this node runs:
// the predecessor (Chained) or the work producing the artifact (Initial),
// plus any extra graph dependencies the step itself declares.
func (n *TransformationNode) ResolveDependencies(resolver DependencyResolver, onDiscovered func(Node)) {
	if n.kind == kindChained {
		n.registerDependency(n.previous)
		onDiscovered(n.previous)
	} else {
		n.processDependencies(resolver.ResolveDependenciesFor(nil, n.artifact), onDiscovered)
	}
	n.processDependencies(resolver.ResolveDependenciesFor(nil, n.depsResolver.ComputeDependencyNodes(n.step)), onDiscovered)
}

func (n *TransformationNode) processDependencies(deps []Node, onDiscovered func(Node)) {
	for _, dep := range deps {
		n.registerDependency(dep)
		onDiscovered(dep)
	}
}

// registerDependency records a hard-successor edge, deduplicated so that
// repeated expansion passes keep the dependency set stable.
func (n *TransformationNode) registerDependency(dep Node) {
	if _, ok := n.depSet[dep]; ok {
		return
	}
	n.depSet[dep] = struct{}{}
	n.deps = append(n.deps, dep)
}

// DependencySuccessors returns the registered hard dependencies in
// registration order.
func (n *TransformationNode) DependencySuccessors() []Node {
	out := make([]Node, len(n.deps))
	copy(out, n.deps)
	return out
}

// Execute runs the node's transform body inside a build operation and
// stores the produced subject. It must be called at most once, after all
// registered dependencies completed.
func (n *TransformationNode) Execute(ctx context.Context, opExec *operations.Executor, listener transform.Listener) error {
	op := &transformStepOperation{node: n, ctx: ctx, listener: listener}
	if err := opExec.Run(ctx, op); err != nil {
		return err
	}
	n.setTransformedSubject(op.subject)
	return nil
}

// describeSubject names the thing being transformed for the operation
// record. A chained node describes its predecessor's already-produced
// subject, which scheduling order guarantees to exist.
func (n *TransformationNode) describeSubject() string {
	if n.kind == kindChained {
		return n.previous.TransformedSubject().DisplayName()
	}
	return "artifact " + n.artifact.ID().DisplayName()
}

// transformSubject produces this node's subject. Artifact-resolution
// errors become failure subjects and the step is never invoked; a
// predecessor's failure is propagated unchanged, skipping the step.
func (n *TransformationNode) transformSubject(ctx context.Context, listener transform.Listener) transform.Subject {
	if n.kind == kindChained {
		previous := n.previous.TransformedSubject()
		if previous.Failed() {
			return previous
		}
		return n.invokeStep(previous, listener)
	}

	file, err := n.artifact.File(ctx)
	if err != nil {
		description := "artifact " + n.artifact.ID().DisplayName()
		var resolveErr *artifact.ResolveError
		if errors.As(err, &resolveErr) {
			return transform.Failure(description, err)
		}
		return transform.Failure(description, &artifact.ResolutionError{Transformer: n.step.DisplayName(), Err: err})
	}
	return n.invokeStep(transform.Initial(n.artifact.ID().DisplayName(), file), listener)
}

func (n *TransformationNode) invokeStep(subject transform.Subject, listener transform.Listener) transform.Subject {
	listener.BeforeTransform(n.step, subject)
	out := n.step.Transform(subject, n.depsResolver)
	listener.AfterTransform(n.step, out)
	return out
}

// KindName identifies the concrete node kind for cross-kind ordering.
func (n *TransformationNode) KindName() string { return n.kind.name() }

// CompareTo orders nodes of different kinds by kind name and nodes of the
// same kind by creation sequence, giving a deterministic tiebreak for
// sorted collections regardless of execution order.
func (n *TransformationNode) CompareTo(other Node) int {
	if n.KindName() != other.KindName() {
		return strings.Compare(n.KindName(), other.KindName())
	}
	o := other.(*TransformationNode)
	switch {
	case n.id < o.id:
		return -1
	case n.id > o.id:
		return 1
	default:
		return 0
	}
}

// Finalizers is empty: a transform never triggers finalization-phase work.
func (n *TransformationNode) Finalizers() []Node { return nil }

// PrepareForExecution is a no-op for transforms.
func (n *TransformationNode) PrepareForExecution() {}

// OwningProject is empty: transforms are project-independent once their
// inputs are resolved.
func (n *TransformationNode) OwningProject() string { return "" }

// NodeFailure is always nil. A transform failure is carried inside the
// produced subject; consumers must inspect the subject, not the node.
func (n *TransformationNode) NodeFailure() error { return nil }
