package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/streamcluster/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // key -> item
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	// Check conditional expression
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}

	// Only the newest item is ever requested
	var latest map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value != baseURI {
			continue
		}
		if latest == nil || version(item) > version(latest) {
			latest = item
		}
	}

	if latest == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{latest}}, nil
}

func newTestDDBCommitStore(ddb *mockDDBClient, baseURI string) *DDBCommitStore {
	return NewDDBCommitStore(blobstore.NewMemoryStore(), ddb, "streamcluster-commits", baseURI)
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestDDBCommitStore(ddb, "s3://test-bucket/test/")

	// First commit should succeed
	err := store.Put(ctx, "CURRENT", []byte("0000000001.ckpt"))
	require.NoError(t, err)

	data, err := store.Get(ctx, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "0000000001.ckpt", string(data))

	version, err := store.Version(ctx, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestDDBCommitStore(ddb, "s3://test-bucket/test/")

	for i := 1; i <= 12; i++ {
		err := store.Put(ctx, "run/CURRENT", []byte(fmt.Sprintf("run/%010d.ckpt", i)))
		require.NoError(t, err)
	}

	// Read back should get latest (version 12)
	data, err := store.Get(ctx, "run/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "run/0000000012.ckpt", string(data))

	version, err := store.Version(ctx, "run/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), version)
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestDDBCommitStore(ddb, "s3://test-bucket/test/")

	// Initial commit
	err := store.Put(ctx, "CURRENT", []byte("0000000001.ckpt"))
	require.NoError(t, err)

	// Concurrent writers
	var wg sync.WaitGroup
	successes := 0
	conflicts := 0
	var mu sync.Mutex

	for i := range 5 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, "CURRENT", []byte(fmt.Sprintf("%010d.ckpt", id+2)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrConcurrentModification):
				conflicts++
			case err == nil:
				successes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	assert.Positive(t, successes, "at least one writer should succeed")
	assert.Equal(t, 5, successes+conflicts)

	version, err := store.Version(ctx, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, uint64(1+successes), version)
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestDDBCommitStore(ddb, "s3://test-bucket/test/")

	_, err := store.Get(ctx, "CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1 := newTestDDBCommitStore(ddb, "s3://bucket-a/path/")
	store2 := newTestDDBCommitStore(ddb, "s3://bucket-b/path/")

	require.NoError(t, store1.Put(ctx, "CURRENT", []byte("A.ckpt")))
	require.NoError(t, store2.Put(ctx, "CURRENT", []byte("B.ckpt")))
	require.NoError(t, store1.Put(ctx, "other/CURRENT", []byte("other/C.ckpt")))

	data, err := store1.Get(ctx, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "A.ckpt", string(data))

	data, err = store2.Get(ctx, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "B.ckpt", string(data))

	data, err = store1.Get(ctx, "other/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "other/C.ckpt", string(data))
}

func TestDDBCommitStore_Passthrough(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/")

	require.NoError(t, store.Put(ctx, "run/0000000001.ckpt", []byte("payload")))
	data, err := store.Get(ctx, "run/0000000001.ckpt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	names, err := store.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/0000000001.ckpt"}, names)

	require.NoError(t, store.Delete(ctx, "run/0000000001.ckpt"))
	assert.Error(t, store.Delete(ctx, "run/CURRENT"))
}
