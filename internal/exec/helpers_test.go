package exec

import (
	"context"

	"github.com/vk/artifex/internal/artifact"
	"github.com/vk/artifex/internal/transform"
)

// stubStep is a canned step body for scheduler-level tests.
type stubStep struct {
	name     string
	produced string
	failWith error
}

func (s *stubStep) DisplayName() string { return s.name }

func (s *stubStep) Transform(subject transform.Subject, _ transform.GraphDependenciesResolver) transform.Subject {
	if s.failWith != nil {
		return transform.Failure(subject.DisplayName(), s.failWith)
	}
	if s.produced != "" {
		return subject.WithProducedFiles(s.produced)
	}
	return subject
}

// stubArtifact resolves to a fixed file.
type stubArtifact struct {
	name string
	file string
}

func (a *stubArtifact) ID() artifact.Identifier {
	return artifact.Identifier{Name: a.name, Coordinate: a.file}
}

func (a *stubArtifact) File(context.Context) (string, error) {
	return a.file, nil
}

// nopListener satisfies transform.Listener.
type nopListener struct{}

func (nopListener) BeforeTransform(transform.Step, transform.Subject) {}
func (nopListener) AfterTransform(transform.Step, transform.Subject)  {}
