package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"videohub/internal/domain"
)

// MinioConfig holds the S3-compatible connection settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// MinioStore keeps videos as objects "videos/<name>" in a bucket and serves
// them through short-lived presigned URLs.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	URLExpiry time.Duration
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept "minio:9000" as well as "http(s)://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}
	return raw, false, nil
}

// NewMinioStore connects and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, &domain.StorageError{Op: "check bucket", Err: err}
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, &domain.StorageError{Op: "create bucket", Err: err}
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, URLExpiry: time.Hour}, nil
}

func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidName(name) {
		return "", &domain.StorageError{Op: "put", Err: fmt.Errorf("invalid name %q", name)}
	}
	key := PathFor(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &domain.StorageError{Op: "put object", Err: err}
	}
	return key, nil
}

func (s *MinioStore) Serve(w http.ResponseWriter, r *http.Request, name string) {
	if !ValidName(name) {
		http.NotFound(w, r)
		return
	}
	u, err := s.client.PresignedGetObject(r.Context(), s.bucket, PathFor(name), s.URLExpiry, nil)
	if err != nil {
		http.Error(w, "failed to resolve video", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (s *MinioStore) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
