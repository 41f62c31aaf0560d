// Package transform defines the value model of a transform chain: the
// subject flowing between steps, the step contract itself, and the step
// implementations shipped with the tool.
//
// A Subject is immutable. It is either a set of produced file locations
// with a human-readable origin, or a captured failure. Failures travel
// through chains as ordinary data; no step downstream of a failure runs.
package transform
