// Package exec schedules plan nodes onto a pool of workers.
//
// The scheduler expands the graph by asking each node to resolve its
// dependencies (which may discover further nodes), then executes nodes as
// their dependency counters reach zero. Its single ordering guarantee is
// that a node executes only after every dependency registered during
// resolution has completed; nodes rely on that guarantee instead of
// internal locking.
//
// An error returned from a node's execution is a fault: the node is marked
// failed, the run context is canceled, and all transitive dependents are
// skipped exactly once. A failure captured inside a transform subject is
// not a fault and does not stop sibling branches.
package exec
