// Package operations provides scoped, observable units of work. An
// operation is described, run, and closed exactly once; its outcome is
// recorded on every path, including failure, so observability consumers
// always see a terminal event for every started operation.
package operations
