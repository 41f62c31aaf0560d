// Package artifact models resolvable artifacts and the repositories their
// files come from. Resolution is the only place a transform chain touches
// the outside world before its steps run; its failures are expected,
// business-level events and are converted into failure subjects by the
// node layer rather than faulting the graph.
package artifact
