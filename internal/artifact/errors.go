package artifact

import "fmt"

// ResolveError is the domain-level failure of artifact resolution: the
// repository could not produce a file for the coordinate.
type ResolveError struct {
	Artifact string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("could not resolve %s: %v", e.Artifact, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ResolutionError wraps an unexpected error raised while resolving the
// inputs of a transform. It marks the boundary between expected resolution
// failures and everything else that went wrong on the way to a file.
type ResolutionError struct {
	Transformer string
	Err         error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve artifacts for transform %s: %v", e.Transformer, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
