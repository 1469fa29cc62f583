package delivery

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	logx "github.com/folio-agent/server/pkg/logger"
)

// ArtifactStore fetches the deliverable document (the résumé PDF) from
// object storage at send time, so a refreshed upload is picked up without a
// restart.
type ArtifactStore interface {
	Fetch(ctx context.Context) (name string, data []byte, err error)
}

// MinIOConfig configures the object storage client.
type MinIOConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"portfolio-artifacts"`
	ObjectKey string `envconfig:"MINIO_RESUME_OBJECT" default:"resume.pdf"`
}

// Enabled reports whether object storage is configured at all.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// MinIOArtifactStore reads the résumé object from a MinIO bucket.
type MinIOArtifactStore struct {
	client    *minio.Client
	bucket    string
	objectKey string
}

// NewMinIOArtifactStore creates the store from config.
func NewMinIOArtifactStore(cfg MinIOConfig) (*MinIOArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOArtifactStore{
		client:    client,
		bucket:    cfg.Bucket,
		objectKey: cfg.ObjectKey,
	}, nil
}

// Fetch downloads the résumé object.
func (s *MinIOArtifactStore) Fetch(ctx context.Context) (string, []byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("get object %s/%s: %w", s.bucket, s.objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", nil, fmt.Errorf("read object %s/%s: %w", s.bucket, s.objectKey, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("object %s/%s is empty", s.bucket, s.objectKey)
	}

	logx.Debug().
		Str("bucket", s.bucket).
		Str("object", s.objectKey).
		Int("bytes", len(data)).
		Msg("Fetched resume artifact")
	return path.Base(s.objectKey), data, nil
}

var _ ArtifactStore = (*MinIOArtifactStore)(nil)
