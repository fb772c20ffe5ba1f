package minio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/streamcluster/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Key(t *testing.T) {
	client, err := NewClient("localhost:9000", "minioadmin", "minioadmin", false)
	require.NoError(t, err)

	assert.Equal(t, "a/b", NewStore(client, "bucket", "").key("a/b"))
	assert.Equal(t, "root/a/b", NewStore(client, "bucket", "root").key("a/b"))
	assert.Equal(t, "root/run/", NewStore(client, "bucket", "root/").key("run/"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	bucket := "test-streamcluster"

	client, err := NewClient("localhost:9000", "minioadmin", "minioadmin", false)
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Check if MinIO is reachable
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	require.NoError(t, EnsureBucket(ctx, client, bucket))

	store := NewStore(client, bucket, fmt.Sprintf("test-%d/", time.Now().UnixNano()))

	// Test Put and Get
	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "run/0000000001.ckpt", data))

	got, err := store.Get(ctx, "run/0000000001.ckpt")
	require.NoError(t, err)
	require.Equal(t, data, got)

	// Test List
	names, err := store.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/0000000001.ckpt"}, names)

	// Test Delete
	require.NoError(t, store.Delete(ctx, "run/0000000001.ckpt"))
	require.NoError(t, store.Delete(ctx, "run/0000000001.ckpt"))

	// Verify deleted
	_, err = store.Get(ctx, "run/0000000001.ckpt")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
