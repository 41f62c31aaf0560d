package plan

import "sync/atomic"

// Sequence allocates the monotonically increasing node ids used for
// deterministic ordering and for correlating instrumentation records. It
// is safe for concurrent use; ids are never reused and never roll back,
// even when node construction fails afterwards.
//
// The allocator is an explicit dependency of node construction rather than
// a process global, so single-threaded tests get fully deterministic ids.
type Sequence struct {
	next atomic.Int64
}

// Next returns the next id. The first id is 1.
func (s *Sequence) Next() int64 {
	return s.next.Add(1)
}
