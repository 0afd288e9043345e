package recordstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
)

const defaultBucket = "engine-records"

// objectStore is the part of *minio.Client the mirror uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIOStore writes the record locally and mirrors it into a bucket under
// "<record id>/<filename>".
type MinIOStore struct {
	local  *FileStore
	client objectStore
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

// NewMinIOStore connects to the object store described by cfg.
func NewMinIOStore(local *FileStore, cfg config.MinIO) (*MinIOStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required when the records backend is minio")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return newMinIOStore(local, client, cfg.Bucket), nil
}

func newMinIOStore(local *FileStore, client objectStore, bucket string) *MinIOStore {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = defaultBucket
	}
	return &MinIOStore{local: local, client: client, bucket: bucket}
}

// Persist implements Store. A failed upload is an error even though the
// local copy exists.
func (s *MinIOStore) Persist(ctx context.Context, dir string, rec model.EngineRecord) error {
	if err := s.local.Persist(ctx, dir, rec); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	objectName := fmt.Sprintf("%s/%s", rec.ID, s.local.filename)
	if _, err := s.client.FPutObject(ctx, s.bucket, objectName, s.local.Path(dir), minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("uploading engine record %s: %w", objectName, err)
	}
	ctxlog.FromContext(ctx).Debug("Mirrored engine record.", "bucket", s.bucket, "object", objectName)
	return nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
		}
	}
	s.bucketReady = true
	return nil
}

// New returns the Store selected by the settings.
func New(s *config.Settings) (Store, error) {
	local := NewFileStore(s.Training.RecordFilename)
	switch s.Records.Backend {
	case "", config.RecordBackendFile:
		return local, nil
	case config.RecordBackendMinIO:
		return NewMinIOStore(local, s.Records.MinIO)
	default:
		return nil, fmt.Errorf("unknown records backend %q", s.Records.Backend)
	}
}
