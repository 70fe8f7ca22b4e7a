package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/samatvayoga/backend/internal/config"
)

// ObjectStore wraps the image bucket. The entity store only ever sees the
// resulting URL strings as ordinary fields; object cleanup is the caller's
// job when a record referencing an object is deleted.
type ObjectStore struct {
	client *minio.Client
	cfg    *config.Config
}

func NewObjectStore(cfg *config.Config) (*ObjectStore, error) {
	endpoint := cfg.StorageEndpoint
	useSSL := cfg.StorageUseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: useSSL,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{client: client, cfg: cfg}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.StorageBucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.StorageBucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.StorageBucket, minio.MakeBucketOptions{Region: s.cfg.StorageRegion}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.StorageBucket, err)
		}
	}
	return nil
}

// Put uploads an object and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.StorageBucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

// Delete removes an object; a missing object is not an error.
func (s *ObjectStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.cfg.StorageBucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

// PublicURL builds the externally reachable URL for an object key.
func (s *ObjectStore) PublicURL(path string) string {
	if s.cfg.PublicMediaURL != "" {
		return strings.TrimSuffix(s.cfg.PublicMediaURL, "/") + "/" + path
	}
	scheme := "http"
	if s.cfg.StorageUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.StorageEndpoint, s.cfg.StorageBucket, path)
}
