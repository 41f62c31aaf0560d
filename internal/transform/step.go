package transform

// GraphDependenciesResolver computes the extra execution-graph dependencies
// a step requires before it can run. The returned descriptors are opaque to
// this package; the planner's dependency resolver maps them to nodes.
// Implementations must be pure functions of the step.
type GraphDependenciesResolver interface {
	ComputeDependencyNodes(step Step) []any
}

// Step is one executable unit of content transformation. The engine treats
// it as opaque: it has a name and it turns one subject into the next.
//
// A step is responsible for converting its own domain errors (unreadable
// input, bad arguments) into a failure subject. An error that escapes
// Transform as a panic is a node execution fault, not a transform failure.
type Step interface {
	DisplayName() string
	Transform(subject Subject, resolver GraphDependenciesResolver) Subject
}

// Listener observes step invocations for progress reporting. Both hooks run
// on the executing node's goroutine.
type Listener interface {
	BeforeTransform(step Step, subject Subject)
	AfterTransform(step Step, subject Subject)
}

// NoDependenciesResolver is a GraphDependenciesResolver for steps with no
// extra graph dependencies.
type NoDependenciesResolver struct{}

func (NoDependenciesResolver) ComputeDependencyNodes(Step) []any { return nil }
