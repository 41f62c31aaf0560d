package plan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/artifex/internal/artifact"
	"github.com/vk/artifex/internal/operations"
	"github.com/vk/artifex/internal/transform"
)

// fakeStep records invocations and delegates to a configurable body.
type fakeStep struct {
	name  string
	calls int
	fn    func(transform.Subject) transform.Subject
}

func (s *fakeStep) DisplayName() string { return s.name }

func (s *fakeStep) Transform(subject transform.Subject, _ transform.GraphDependenciesResolver) transform.Subject {
	s.calls++
	if s.fn == nil {
		return subject
	}
	return s.fn(subject)
}

// fakeArtifact resolves to a fixed file or error.
type fakeArtifact struct {
	id   artifact.Identifier
	file string
	err  error
}

func (a *fakeArtifact) ID() artifact.Identifier { return a.id }

func (a *fakeArtifact) File(context.Context) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.file, nil
}

// nopListener satisfies transform.Listener for tests that ignore hooks.
type nopListener struct{}

func (nopListener) BeforeTransform(transform.Step, transform.Subject) {}
func (nopListener) AfterTransform(transform.Step, transform.Subject)  {}

// recordingListener captures the order of hook invocations.
type recordingListener struct {
	events []string
}

func (l *recordingListener) BeforeTransform(step transform.Step, _ transform.Subject) {
	l.events = append(l.events, "before "+step.DisplayName())
}

func (l *recordingListener) AfterTransform(step transform.Step, _ transform.Subject) {
	l.events = append(l.events, "after "+step.DisplayName())
}

// stepDeps returns fixed extra graph dependencies for every step.
type stepDeps struct {
	nodes []any
}

func (d stepDeps) ComputeDependencyNodes(transform.Step) []any { return d.nodes }

func guavaArtifact(file string) *fakeArtifact {
	return &fakeArtifact{
		id:   artifact.Identifier{Name: "guava", Coordinate: "libs/guava.jar"},
		file: file,
	}
}

func executeAll(t *testing.T, nodes ...*TransformationNode) {
	t.Helper()
	opExec := operations.NewExecutor()
	for _, n := range nodes {
		require.NoError(t, n.Execute(context.Background(), opExec, nopListener{}))
	}
}

func TestCompareTo_SameKindOrdersByCreationSequence(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	first := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	second := NewInitial(seq, &fakeStep{name: "copy"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	assert.Negative(t, first.CompareTo(second))
	assert.Positive(t, second.CompareTo(first))
	assert.Zero(t, first.CompareTo(first))
}

func TestCompareTo_DifferentKindsOrderByKindName(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	initial := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	chained := NewChained(seq, &fakeStep{name: "checksum"}, initial, transform.NoDependenciesResolver{})

	// "transformation:chained" < "transformation:initial", regardless of ids.
	assert.Negative(t, chained.CompareTo(initial))
	assert.Positive(t, initial.CompareTo(chained))
}

func TestTransformedSubject_PanicsBeforeExecution(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	require.PanicsWithValue(t, "transformation has not been executed yet", func() {
		node.TransformedSubject()
	})
}

func TestExecute_SecondExecutionIsAUsageError(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	opExec := operations.NewExecutor()

	require.NoError(t, node.Execute(context.Background(), opExec, nopListener{}))
	require.PanicsWithValue(t, "transformation has already been executed", func() {
		_ = node.Execute(context.Background(), opExec, nopListener{})
	})
}

func TestResolveDependencies_InitialResolvesArtifactProducers(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	producer := NewInitial(seq, &fakeStep{name: "produce"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	resolver := NewProducerResolver()
	resolver.AddProducer("guava", producer)

	var discovered []Node
	node.ResolveDependencies(resolver, func(n Node) { discovered = append(discovered, n) })

	assert.Equal(t, []Node{producer}, node.DependencySuccessors())
	assert.Equal(t, []Node{producer}, discovered)
}

func TestResolveDependencies_ChainedRegistersPredecessorDirectly(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	initial := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	chained := NewChained(seq, &fakeStep{name: "checksum"}, initial, transform.NoDependenciesResolver{})

	var discovered []Node
	chained.ResolveDependencies(NewProducerResolver(), func(n Node) { discovered = append(discovered, n) })

	assert.Equal(t, []Node{initial}, chained.DependencySuccessors())
	assert.Equal(t, []Node{initial}, discovered)
}

func TestResolveDependencies_StepGraphDependencies(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	extra := NewInitial(seq, &fakeStep{name: "extra"}, guavaArtifact("/repo/extra.jar"), transform.NoDependenciesResolver{}, ":")
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), stepDeps{nodes: []any{extra}}, ":")

	var discovered []Node
	node.ResolveDependencies(NewProducerResolver(), func(n Node) { discovered = append(discovered, n) })

	assert.Equal(t, []Node{extra}, node.DependencySuccessors())
	assert.Equal(t, []Node{extra}, discovered)
}

func TestResolveDependencies_Idempotent(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	initial := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	chained := NewChained(seq, &fakeStep{name: "checksum"}, initial, transform.NoDependenciesResolver{})
	resolver := NewProducerResolver()

	chained.ResolveDependencies(resolver, func(Node) {})
	chained.ResolveDependencies(resolver, func(Node) {})

	assert.Equal(t, []Node{initial}, chained.DependencySuccessors(), "repeated expansion passes keep the dependency set stable")
}

func TestExecute_SingleStepChainSucceeds(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	step := &fakeStep{name: "unzip", fn: func(s transform.Subject) transform.Subject {
		return s.WithProducedFiles("/out/guava/a.class")
	}}
	node := NewInitial(seq, step, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	executeAll(t, node)

	subject := node.TransformedSubject()
	require.False(t, subject.Failed())
	assert.Equal(t, []string{"/out/guava/a.class"}, subject.Files())
	assert.Equal(t, 1, step.calls)
}

func TestExecute_ChainedFailurePropagatesWithoutInvokingStep(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	cause := errors.New("unpack exploded")
	failing := &fakeStep{name: "unzip", fn: func(s transform.Subject) transform.Subject {
		return transform.Failure(s.DisplayName(), cause)
	}}
	downstream := &fakeStep{name: "checksum"}

	first := NewInitial(seq, failing, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	second := NewChained(seq, downstream, first, transform.NoDependenciesResolver{})

	executeAll(t, first, second)

	subject := second.TransformedSubject()
	require.True(t, subject.Failed())
	assert.Same(t, cause, subject.Failure())
	assert.Equal(t, first.TransformedSubject(), subject, "the failure subject propagates unchanged")
	assert.Zero(t, downstream.calls, "a failed upstream transform skips all downstream transforms")
}

func TestExecute_FailurePropagatesThroughLongerChains(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	cause := errors.New("boom")
	steps := []*fakeStep{
		{name: "step1", fn: func(s transform.Subject) transform.Subject {
			return transform.Failure(s.DisplayName(), cause)
		}},
		{name: "step2"},
		{name: "step3"},
	}

	first := NewInitial(seq, steps[0], guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	second := NewChained(seq, steps[1], first, transform.NoDependenciesResolver{})
	third := NewChained(seq, steps[2], second, transform.NoDependenciesResolver{})

	executeAll(t, first, second, third)

	require.True(t, third.TransformedSubject().Failed())
	assert.Same(t, cause, third.TransformedSubject().Failure())
	assert.Zero(t, steps[1].calls)
	assert.Zero(t, steps[2].calls)
}

func TestExecute_ResolveErrorBecomesFailureSubject(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	resolveErr := &artifact.ResolveError{Artifact: "guava (libs/guava.jar)", Err: errors.New("404")}
	art := &fakeArtifact{id: artifact.Identifier{Name: "guava", Coordinate: "libs/guava.jar"}, err: resolveErr}
	step := &fakeStep{name: "unzip"}
	node := NewInitial(seq, step, art, transform.NoDependenciesResolver{}, ":")

	executeAll(t, node)

	subject := node.TransformedSubject()
	require.True(t, subject.Failed())
	assert.Contains(t, subject.DisplayName(), "guava (libs/guava.jar)")
	assert.Same(t, resolveErr, subject.Failure())
	assert.Zero(t, step.calls, "the step's transform is never invoked when resolution fails")
}

func TestExecute_UnexpectedResolutionErrorIsWrapped(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	art := &fakeArtifact{id: artifact.Identifier{Name: "guava", Coordinate: "libs/guava.jar"}, err: errors.New("disk on fire")}
	step := &fakeStep{name: "unzip"}
	node := NewInitial(seq, step, art, transform.NoDependenciesResolver{}, ":")

	executeAll(t, node)

	subject := node.TransformedSubject()
	require.True(t, subject.Failed())
	var resolutionErr *artifact.ResolutionError
	require.ErrorAs(t, subject.Failure(), &resolutionErr)
	assert.Equal(t, "unzip", resolutionErr.Transformer)
	assert.Zero(t, step.calls)
}

func TestExecute_StepFaultIsANodeFault(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	step := &fakeStep{name: "unzip", fn: func(transform.Subject) transform.Subject {
		panic("step logic bug")
	}}
	node := NewInitial(seq, step, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	err := node.Execute(context.Background(), operations.NewExecutor(), nopListener{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step logic bug")
	require.PanicsWithValue(t, "transformation has not been executed yet", func() {
		node.TransformedSubject()
	}, "a faulted node has no subject")
}

func TestExecute_InvokesListenerAroundStep(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	listener := &recordingListener{}

	require.NoError(t, node.Execute(context.Background(), operations.NewExecutor(), listener))

	assert.Equal(t, []string{"before unzip", "after unzip"}, listener.events)
}

func TestBuildPath_ChainedDelegatesToPredecessor(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	initial := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":app")
	middle := NewChained(seq, &fakeStep{name: "copy"}, initial, transform.NoDependenciesResolver{})
	terminal := NewChained(seq, &fakeStep{name: "checksum"}, middle, transform.NoDependenciesResolver{})

	assert.Equal(t, ":app", terminal.BuildPath())
}

func TestNodeContract_Defaults(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")

	assert.Empty(t, node.Finalizers())
	assert.Empty(t, node.OwningProject())
	assert.NoError(t, node.NodeFailure())
	assert.NotPanics(t, node.PrepareForExecution)
	assert.Equal(t, "unzip", fmt.Sprint(node))
}

// operationRecorder captures operation lifecycle events for assertions.
type operationRecorder struct {
	descriptors []operations.Descriptor
	failures    []error
}

func (r *operationRecorder) Started(_ context.Context, desc operations.Descriptor) {
	r.descriptors = append(r.descriptors, desc)
}

func (r *operationRecorder) Finished(_ context.Context, _ operations.Descriptor, opCtx *operations.Context, _ error) {
	r.failures = append(r.failures, opCtx.Failure())
}

func TestExecute_EmitsTransformOperation(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	node := NewInitial(seq, &fakeStep{name: "unzip"}, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":app")
	recorder := &operationRecorder{}

	require.NoError(t, node.Execute(context.Background(), operations.NewExecutor(recorder), nopListener{}))

	require.Len(t, recorder.descriptors, 1)
	desc := recorder.descriptors[0]
	assert.Equal(t, "Transform artifact guava (libs/guava.jar) with unzip", desc.DisplayName)
	assert.Equal(t, "Transforming artifact guava (libs/guava.jar) with unzip", desc.ProgressDisplayName)
	assert.Equal(t, operations.CategoryTransform, desc.Category)

	details, ok := desc.Details.(OperationDetails)
	require.True(t, ok)
	assert.Equal(t, ":app", details.BuildPath)
	assert.Equal(t, node.SequenceID(), details.TransformationID)
	assert.Equal(t, "unzip", details.TransformerName)
	assert.Equal(t, "artifact guava (libs/guava.jar)", details.SubjectName)

	require.Len(t, recorder.failures, 1)
	assert.NoError(t, recorder.failures[0])
}

func TestExecute_ReportsSubjectFailureToOperationContext(t *testing.T) {
	t.Parallel()

	seq := &Sequence{}
	cause := errors.New("bad zip")
	step := &fakeStep{name: "unzip", fn: func(s transform.Subject) transform.Subject {
		return transform.Failure(s.DisplayName(), cause)
	}}
	node := NewInitial(seq, step, guavaArtifact("/repo/guava.jar"), transform.NoDependenciesResolver{}, ":")
	recorder := &operationRecorder{}

	require.NoError(t, node.Execute(context.Background(), operations.NewExecutor(recorder), nopListener{}),
		"a transform failure is not a node execution fault")

	require.Len(t, recorder.failures, 1)
	assert.Same(t, cause, recorder.failures[0])
}
