package cachestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/caddyglow/glovebox/internal/paths"
)

// Backend stores and retrieves opaque cache payload blobs by key. It is
// deliberately smaller than a general object-storage interface — the store
// only ever uploads one payload archive and one metadata sidecar per key —
// mirroring ldfd/storage.Backend's shape (Upload/Download/Exists/Delete/
// List) without the presigned-URL/web-gateway surface that has no use here.
type Backend interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalConfig configures the local filesystem backend.
type LocalConfig struct {
	BasePath string
}

// LocalBackend stores payloads directly on disk under BasePath, grounded on
// ldfd/storage.LocalBackend's fullPath/Upload/Copy shapes.
type LocalBackend struct {
	basePath string
}

// NewLocal creates a local filesystem cache backend, expanding "~" and
// environment variables in BasePath and creating it if necessary.
func NewLocal(cfg LocalConfig) (*LocalBackend, error) {
	basePath := paths.Expand(cfg.BasePath)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root %s: %w", basePath, err)
	}
	return &LocalBackend{basePath: basePath}, nil
}

func (b *LocalBackend) fullPath(key string) string {
	cleanKey := filepath.Clean(key)
	for strings.HasPrefix(cleanKey, "/") || strings.HasPrefix(cleanKey, "../") {
		cleanKey = strings.TrimPrefix(cleanKey, "/")
		cleanKey = strings.TrimPrefix(cleanKey, "../")
	}
	return filepath.Join(b.basePath, cleanKey)
}

// Upload writes the payload atomically: write to a sibling temp file, then
// rename into place, matching spec §4.5's "atomic rename of the payload
// into place" invariant.
func (b *LocalBackend) Upload(ctx context.Context, key string, r io.Reader, size int64) error {
	dst := b.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache entry dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	written, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write payload: %w", err)
	}
	if size > 0 && written != size {
		os.Remove(tmpPath)
		return fmt.Errorf("size mismatch: expected %d bytes, wrote %d", size, written)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename payload into place: %w", err)
	}
	return nil
}

func (b *LocalBackend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(b.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errObjectNotFound, key)
		}
		return nil, fmt.Errorf("open cache object %s: %w", key, err)
	}
	return f, nil
}

func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(b.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat cache object %s: %w", key, err)
	}
	return true, nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := os.Remove(b.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache object %s: %w", key, err)
	}
	dir := filepath.Dir(b.fullPath(key))
	for dir != b.basePath && strings.HasPrefix(dir, b.basePath) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
	return nil
}

func (b *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	root := b.fullPath(prefix)
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.basePath, p)
		if err != nil {
			return nil
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list cache objects under %s: %w", prefix, err)
	}
	return keys, nil
}

// S3Config configures the remote mirror backend.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Backend mirrors cache payloads to an S3-compatible bucket so a team can
// share a full-level workspace cache across machines, grounded on
// ldfd/storage.S3Backend.
type S3Backend struct {
	client *s3.Client
	bucket string
}

// NewS3 creates a remote mirror backend.
func NewS3(cfg S3Config) (*S3Backend, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: cfg.UsePathStyle,
	})
	return &S3Backend{client: client, bucket: cfg.Bucket}, nil
}

func (b *S3Backend) Upload(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("upload cache object %s: %w", key, err)
	}
	return nil
}

func (b *S3Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("download cache object %s: %w", key, err)
	}
	return out.Body, nil
}

func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("delete cache object %s: %w", key, err)
	}
	return nil
}

func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list cache objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
