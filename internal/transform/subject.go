package transform

// Subject is the value flowing through a transform chain: either an ordered
// set of produced files described by their origin, or a captured failure.
// A Subject is immutable once constructed.
type Subject struct {
	origin  string
	files   []string
	failure error
}

// Initial wraps a single resolved artifact file as the subject entering the
// first step of a chain.
func Initial(origin string, file string) Subject {
	return Subject{origin: origin, files: []string{file}}
}

// Failure creates a subject carrying a captured failure. The cause is never
// thrown by this package, only carried for downstream reporting.
func Failure(description string, cause error) Subject {
	return Subject{origin: description, failure: cause}
}

// WithProducedFiles derives the subject a step produced from this one. The
// origin, and therefore the display name, is stable across chaining.
func (s Subject) WithProducedFiles(files ...string) Subject {
	out := make([]string, len(files))
	copy(out, files)
	return Subject{origin: s.origin, files: out}
}

// Files returns the produced file locations, in order. Empty for a failed
// subject, and also for a successful identity transform.
func (s Subject) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Failure returns the captured failure, or nil for a successful subject.
func (s Subject) Failure() error {
	return s.failure
}

// Failed reports whether this subject carries a failure.
func (s Subject) Failed() bool {
	return s.failure != nil
}

// DisplayName describes the subject for humans. It is derived from the
// origin description and does not change as the subject moves down a chain.
func (s Subject) DisplayName() string {
	return s.origin
}
