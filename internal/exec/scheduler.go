package exec

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/artifex/internal/ctxlog"
	"github.com/vk/artifex/internal/plan"
)

// State is the execution state of a scheduled node.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies.
	Pending State = iota
	// Running indicates a worker is executing the node.
	Running
	// Done indicates the node completed.
	Done
	// Failed indicates the node faulted or was skipped.
	Failed
)

// ErrSkipped marks nodes skipped because an upstream node faulted.
var ErrSkipped = errors.New("skipped due to upstream failure")

// ExecuteFunc runs one node. A non-nil error is a node execution fault.
type ExecuteFunc func(ctx context.Context, node plan.Node) error

// Scheduler owns a worker pool executing one expanded graph per Run call.
type Scheduler struct {
	workers int
}

// NewScheduler returns a scheduler running up to workers nodes concurrently.
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers}
}

// scheduled is the scheduler-side state wrapped around one plan node.
type scheduled struct {
	node       plan.Node
	depCount   atomic.Int32
	dependents []*scheduled
	state      atomic.Int32
	err        error
	skipOnce   sync.Once
}

func (s *scheduled) setState(st State) { s.state.Store(int32(st)) }
func (s *scheduled) currentState() State { return State(s.state.Load()) }

// skip marks the node failed without executing it. Returns true the first
// time; wg accounting happens exactly once per node.
func (s *scheduled) skip(err error, wg *sync.WaitGroup) bool {
	skipped := false
	s.skipOnce.Do(func() {
		s.setState(Failed)
		s.err = err
		wg.Done()
		skipped = true
	})
	return skipped
}

// Run expands the graph reachable from roots and executes it. The resolver
// is handed to each node's dependency discovery. Run returns a non-nil
// error if any node faulted; skipped nodes are symptoms, not root causes,
// and are excluded from the reported error.
func (s *Scheduler) Run(ctx context.Context, roots []plan.Node, resolver plan.DependencyResolver, execute ExecuteFunc) error {
	logger := ctxlog.FromContext(ctx)

	nodes := expand(ctx, roots, resolver)
	logger.Debug("Execution graph expanded.", "nodes", len(nodes))

	readyChan := make(chan *scheduled, len(nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, sn := range nodes {
		if sn.depCount.Load() == 0 {
			readyChan <- sn
			rootCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootCount)

	var wg sync.WaitGroup
	wg.Add(len(nodes))

	logger.Debug("Starting worker pool.", "workers", s.workers)
	for i := 0; i < s.workers; i++ {
		go s.worker(runCtx, readyChan, cancel, &wg, execute, i)
	}

	wg.Wait()
	close(readyChan)
	logger.Debug("All nodes completed.")

	var failed []string
	var rootCause error
	for _, sn := range nodes {
		if sn.currentState() != Failed {
			continue
		}
		logger.Error("Node failed execution.", "node", fmt.Sprint(sn.node), "error", sn.err)
		if sn.err != nil && !errors.Is(sn.err, ErrSkipped) && !errors.Is(sn.err, context.Canceled) {
			failed = append(failed, fmt.Sprint(sn.node))
			if rootCause == nil {
				rootCause = sn.err
			}
		}
	}

	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// expand walks the graph from the roots, invoking each node's dependency
// discovery once and wiring dependent edges and counters. Nodes discovered
// multiple times are resolved once; repeated discovery reports are safe
// because node dependency registration is idempotent.
func expand(ctx context.Context, roots []plan.Node, resolver plan.DependencyResolver) []*scheduled {
	byNode := make(map[plan.Node]*scheduled)
	var order []*scheduled

	var worklist []plan.Node
	worklist = append(worklist, roots...)
	for len(worklist) > 0 {
		node := worklist[0]
		worklist = worklist[1:]
		if _, seen := byNode[node]; seen {
			continue
		}
		sn := &scheduled{node: node}
		byNode[node] = sn
		order = append(order, sn)
		node.ResolveDependencies(resolver, func(dep plan.Node) {
			worklist = append(worklist, dep)
		})
		worklist = append(worklist, node.Finalizers()...)
		ctxlog.FromContext(ctx).Debug("Node resolved.", "node", fmt.Sprint(node), "dependencies", len(node.DependencySuccessors()))
	}

	for _, sn := range order {
		deps := sn.node.DependencySuccessors()
		sn.depCount.Store(int32(len(deps)))
		for _, dep := range deps {
			depState, ok := byNode[dep]
			if !ok {
				// A dependency the node registered but never reported via
				// onDiscovered; expansion missed it, so wire it in now.
				depState = &scheduled{node: dep}
				byNode[dep] = depState
				order = append(order, depState)
			}
			depState.dependents = append(depState.dependents, sn)
		}
	}

	// Deterministic worklist order for tests and logs.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].node.CompareTo(order[j].node) < 0
	})
	return order
}

// worker is the core processing loop for a single concurrent worker.
func (s *Scheduler) worker(ctx context.Context, readyChan chan *scheduled, cancel context.CancelFunc, wg *sync.WaitGroup, execute ExecuteFunc, workerID int) {
	ctx = ctxlog.With(ctx, "workerID", workerID)
	logger := ctxlog.FromContext(ctx)

	for sn := range readyChan {
		if ctx.Err() != nil {
			// A node skipped for cancellation still has dependents whose
			// counters will never reach zero; skip them too, or wg never
			// drains.
			if sn.skip(ctx.Err(), wg) {
				s.skipDependents(ctx, sn, wg)
			}
			continue
		}

		nodeLogger := logger.With("node", fmt.Sprint(sn.node))
		nodeLogger.Debug("Worker picked up node for execution.")
		sn.setState(Running)
		sn.node.PrepareForExecution()

		if err := execute(ctx, sn.node); err != nil {
			nodeLogger.Error("Node execution faulted.", "error", err)
			sn.setState(Failed)
			sn.err = err
			cancel()
			s.skipDependents(ctx, sn, wg)
			wg.Done()
			continue
		}

		nodeLogger.Debug("Node execution succeeded.")
		sn.setState(Done)

		for _, dependent := range sn.dependents {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}

		wg.Done()
	}
}

// skipDependents recursively marks all downstream nodes as failed.
func (s *Scheduler) skipDependents(ctx context.Context, sn *scheduled, wg *sync.WaitGroup) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range sn.dependents {
		if dependent.skip(fmt.Errorf("%w of '%s'", ErrSkipped, fmt.Sprint(sn.node)), wg) {
			logger.Warn("Skipping dependent node due to upstream failure.", "node", fmt.Sprint(dependent.node), "dependency", fmt.Sprint(sn.node))
			s.skipDependents(ctx, dependent, wg)
		}
	}
}
