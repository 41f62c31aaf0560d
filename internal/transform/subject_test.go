package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_Initial(t *testing.T) {
	t.Parallel()

	s := Initial("guava (libs/guava.jar)", "/repo/libs/guava.jar")

	assert.Equal(t, []string{"/repo/libs/guava.jar"}, s.Files())
	assert.NoError(t, s.Failure())
	assert.False(t, s.Failed())
	assert.Equal(t, "guava (libs/guava.jar)", s.DisplayName())
}

func TestSubject_Failure(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	s := Failure("artifact icu (icu4j-63.1.jar)", cause)

	assert.True(t, s.Failed())
	assert.Same(t, cause, s.Failure())
	assert.Empty(t, s.Files(), "a failed subject carries no usable files")
	assert.Equal(t, "artifact icu (icu4j-63.1.jar)", s.DisplayName())
}

func TestSubject_WithProducedFiles(t *testing.T) {
	t.Parallel()

	initial := Initial("guava", "/repo/guava.jar")
	derived := initial.WithProducedFiles("/out/a.class", "/out/b.class")

	assert.Equal(t, []string{"/out/a.class", "/out/b.class"}, derived.Files())
	assert.Equal(t, "guava", derived.DisplayName(), "display name is stable across chaining")
	assert.Equal(t, []string{"/repo/guava.jar"}, initial.Files(), "the source subject is not mutated")
}

func TestSubject_WithProducedFiles_EmptyIsSuccess(t *testing.T) {
	t.Parallel()

	derived := Initial("guava", "/repo/guava.jar").WithProducedFiles()

	require.False(t, derived.Failed())
	assert.Empty(t, derived.Files(), "an identity/no-op transform may legitimately produce zero files")
}

func TestSubject_FilesReturnsCopy(t *testing.T) {
	t.Parallel()

	s := Initial("guava", "/repo/guava.jar")
	files := s.Files()
	files[0] = "mutated"

	assert.Equal(t, []string{"/repo/guava.jar"}, s.Files())
}
