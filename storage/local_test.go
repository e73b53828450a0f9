package storage

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/schemaport/pkglifecycle"
)

func TestLocalHeadBucket(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "data"), 0o755))
	store := NewLocal(root, nil)
	ctx := context.Background()

	assert.NoError(t, store.HeadBucket(ctx, "data"))
	assert.ErrorIs(t, store.HeadBucket(ctx, "missing"), pkglifecycle.ErrBucketNotFound)
}

func TestLocalUploadAndHead(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "data"), 0o755))
	store := NewLocal(root, nil)
	ctx := context.Background()

	body := []byte("a\nthe")
	require.NoError(t, store.Upload(ctx, "data", "solr-data/products_batch_0.json", body))

	info, err := store.HeadObject(ctx, "data", "solr-data/products_batch_0.json")
	require.NoError(t, err)
	want := fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(body)))
	assert.Equal(t, want, info.ETag)

	_, err = store.HeadObject(ctx, "data", "missing.json")
	assert.ErrorIs(t, err, pkglifecycle.ErrObjectNotFound)
}

func TestLocalListObjects(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "data"), 0o755))
	store := NewLocal(root, nil)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "data", "one.txt", []byte("1")))
	require.NoError(t, store.Upload(ctx, "data", "two.txt", []byte("2")))

	keys, err := store.ListObjects(ctx, "data", 0)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	keys, err = store.ListObjects(ctx, "data", 1)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	_, err = store.ListObjects(ctx, "missing", 0)
	assert.ErrorIs(t, err, pkglifecycle.ErrBucketNotFound)
}
