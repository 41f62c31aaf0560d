// Package plan contains the schedulable node model for transform chains.
//
// A declared chain of steps is expanded into a linked sequence of
// transformation nodes: an initial node applying the first step to a
// resolved artifact, followed by chained nodes applying each further step
// to the previous node's output. Nodes discover their dependencies lazily
// through the DependencyResolver during graph expansion and are executed
// at most once by the scheduler, which guarantees that every registered
// dependency completed first. That ordering guarantee is the only
// synchronization a node relies on: the transformed-subject slot is
// written once by the executing goroutine and read-only afterward.
package plan
