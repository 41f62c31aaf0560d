package artifact

import (
	"context"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vk/artifex/internal/ctxlog"
)

// S3Repository serves artifacts from an S3-compatible object store. The
// coordinate is the object key within the configured bucket; fetched
// objects land under DownloadDir keyed by their base name.
type S3Repository struct {
	client      *minio.Client
	bucket      string
	downloadDir string
}

// S3Config carries the connection settings for an object-store repository.
type S3Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	DownloadDir string
}

// NewS3Repository builds a repository backed by the given object store.
func NewS3Repository(cfg S3Config) (*S3Repository, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &S3Repository{client: client, bucket: cfg.Bucket, downloadDir: cfg.DownloadDir}, nil
}

func (r *S3Repository) Fetch(ctx context.Context, coordinate string) (string, error) {
	dest := filepath.Join(r.downloadDir, filepath.Base(coordinate))
	logger := ctxlog.FromContext(ctx).With("bucket", r.bucket, "key", coordinate)
	logger.Debug("Fetching artifact from object store.")
	if err := r.client.FGetObject(ctx, r.bucket, coordinate, dest, minio.GetObjectOptions{}); err != nil {
		return "", err
	}
	logger.Debug("Artifact fetched.", "path", dest)
	return dest, nil
}
