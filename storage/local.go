// Package storage provides a filesystem-backed object store. It serves local
// runs and tests; hosted deployments substitute their own implementation of
// the pkglifecycle.ObjectStore interface.
package storage

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/schemaport/pkglifecycle"
)

// Local stores objects as files under root/<bucket>/<key>. ETags are quoted
// md5 hex digests, matching the single-part upload convention of S3-style
// stores.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates a local object store rooted at dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{root: dir, logger: logger}
}

// HeadBucket checks the bucket directory exists and is readable.
func (l *Local) HeadBucket(_ context.Context, bucket string) error {
	info, err := os.Stat(filepath.Join(l.root, bucket))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("bucket %q: %w", bucket, pkglifecycle.ErrBucketNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("bucket %q: %w", bucket, pkglifecycle.ErrBucketAccessDenied)
	case err != nil:
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("bucket %q: %w", bucket, pkglifecycle.ErrBucketNotFound)
	}
	return nil
}

// ListObjects returns up to max object keys at the bucket root.
func (l *Local) ListObjects(_ context.Context, bucket string, max int) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, bucket))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("bucket %q: %w", bucket, pkglifecycle.ErrBucketNotFound)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("bucket %q: %w", bucket, pkglifecycle.ErrBucketAccessDenied)
	case err != nil:
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		if max > 0 && len(keys) >= max {
			break
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// Upload writes an object, creating intermediate directories for keys that
// contain path separators.
func (l *Local) Upload(_ context.Context, bucket, key string, body []byte) error {
	path := filepath.Join(l.root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write object %q: %w", key, err)
	}
	l.logger.Debug("Stored object", "bucket", bucket, "key", key, "bytes", len(body))
	return nil
}

// HeadObject returns the object's ETag, or pkglifecycle.ErrObjectNotFound.
func (l *Local) HeadObject(_ context.Context, bucket, key string) (pkglifecycle.ObjectInfo, error) {
	path := filepath.Join(l.root, bucket, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return pkglifecycle.ObjectInfo{}, fmt.Errorf("object %q: %w", key, pkglifecycle.ErrObjectNotFound)
	case err != nil:
		return pkglifecycle.ObjectInfo{}, err
	}
	sum := md5.Sum(data)
	return pkglifecycle.ObjectInfo{ETag: fmt.Sprintf("%q", fmt.Sprintf("%x", sum))}, nil
}
