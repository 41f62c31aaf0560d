package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo counts fetches and can be primed to fail.
type countingRepo struct {
	fetches int
	err     error
}

func (r *countingRepo) Fetch(_ context.Context, coordinate string) (string, error) {
	r.fetches++
	if r.err != nil {
		return "", r.err
	}
	return "/cache/" + coordinate, nil
}

func TestDirRepository_Fetch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "libs"), 0o750))
	jar := filepath.Join(root, "libs", "guava.jar")
	require.NoError(t, os.WriteFile(jar, []byte("jar bytes"), 0o600))

	repo := &DirRepository{Root: root}

	path, err := repo.Fetch(context.Background(), "libs/guava.jar")
	require.NoError(t, err)
	assert.Equal(t, jar, path)

	_, err = repo.Fetch(context.Background(), "libs/missing.jar")
	assert.Error(t, err)

	_, err = repo.Fetch(context.Background(), "libs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an artifact file")
}

func TestCachingRepository_MemoizesSuccess(t *testing.T) {
	t.Parallel()

	inner := &countingRepo{}
	repo, err := NewCachingRepository(inner, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		path, err := repo.Fetch(context.Background(), "guava.jar")
		require.NoError(t, err)
		assert.Equal(t, "/cache/guava.jar", path)
	}
	assert.Equal(t, 1, inner.fetches)

	_, err = repo.Fetch(context.Background(), "icu4j.jar")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.fetches, "distinct coordinates fetch separately")
}

func TestCachingRepository_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	inner := &countingRepo{err: errors.New("connection refused")}
	repo, err := NewCachingRepository(inner, 8)
	require.NoError(t, err)

	_, err = repo.Fetch(context.Background(), "guava.jar")
	require.Error(t, err)

	inner.err = nil
	path, err := repo.Fetch(context.Background(), "guava.jar")
	require.NoError(t, err)
	assert.Equal(t, "/cache/guava.jar", path)
	assert.Equal(t, 2, inner.fetches, "the failed fetch was retried, not served from cache")
}

func TestResolvable_WrapsFetchErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("bucket does not exist")
	id := Identifier{Name: "icu", Coordinate: "icu4j/icu4j-63.1.jar"}
	res := NewResolvable(id, &countingRepo{err: cause})

	assert.Equal(t, id, res.ID())

	_, err := res.File(context.Background())
	require.Error(t, err)

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "icu (icu4j/icu4j-63.1.jar)", resolveErr.Artifact)
	assert.ErrorIs(t, err, cause)
}

func TestResolvable_File(t *testing.T) {
	t.Parallel()

	res := NewResolvable(Identifier{Name: "guava", Coordinate: "guava.jar"}, &countingRepo{})
	path, err := res.File(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/cache/guava.jar", path)
}

func TestIdentifier_DisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "guava (libs/guava.jar)", Identifier{Name: "guava", Coordinate: "libs/guava.jar"}.DisplayName())
	assert.Equal(t, "guava", Identifier{Name: "guava"}.DisplayName())
}
