package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/artifex/internal/ctxlog"
)

// Repository produces a local file path for an artifact coordinate.
type Repository interface {
	Fetch(ctx context.Context, coordinate string) (string, error)
}

// DirRepository serves artifacts from a directory tree on local disk. The
// coordinate is a path relative to the root.
type DirRepository struct {
	Root string
}

func (r *DirRepository) Fetch(ctx context.Context, coordinate string) (string, error) {
	path := filepath.Join(r.Root, filepath.FromSlash(coordinate))
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not an artifact file", path)
	}
	ctxlog.FromContext(ctx).Debug("Resolved artifact from directory repository.", "coordinate", coordinate, "path", path)
	return path, nil
}

// CachingRepository memoizes successful fetches of an inner repository, so
// one coordinate resolved by several chains hits the backend once per
// process. Failed fetches are not cached; a retry within the same build is
// allowed to succeed.
type CachingRepository struct {
	inner Repository
	cache *lru.Cache[string, string]
}

// NewCachingRepository wraps inner with an LRU of the given size.
func NewCachingRepository(inner Repository, size int) (*CachingRepository, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachingRepository{inner: inner, cache: cache}, nil
}

func (r *CachingRepository) Fetch(ctx context.Context, coordinate string) (string, error) {
	if path, ok := r.cache.Get(coordinate); ok {
		ctxlog.FromContext(ctx).Debug("Artifact cache hit.", "coordinate", coordinate)
		return path, nil
	}
	path, err := r.inner.Fetch(ctx, coordinate)
	if err != nil {
		return "", err
	}
	r.cache.Add(coordinate, path)
	return path, nil
}
