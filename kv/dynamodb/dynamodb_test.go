package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/ivfstore/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu       sync.RWMutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	getErr   error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items:    make(map[string]map[string]types.AttributeValue),
		pageSize: 2,
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := params.Item["pk"].(*types.AttributeValueMemberS).Value
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := params.Key["pk"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

// Scan returns items in key order, pageSize at a time.
func (m *mockDDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		last := params.ExclusiveStartKey["pk"].(*types.AttributeValueMemberS).Value
		for start < len(keys) && keys[start] <= last {
			start++
		}
	}
	end := min(start+m.pageSize, len(keys))

	var prefix string
	if v, ok := params.ExpressionAttributeValues[":prefix"]; ok {
		prefix = v.(*types.AttributeValueMemberS).Value
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		if strings.HasPrefix(k, prefix) {
			out.Items = append(out.Items, map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: k},
			})
		}
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func TestBackend_GetPut(t *testing.T) {
	ctx := context.Background()
	b := New(newMockDDBClient(), "ivf-lists")

	_, err := b.Get(ctx, "list-0/ids")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, b.Put(ctx, "list-0/ids", []byte{1, 2, 3}))
	got, err := b.Get(ctx, "list-0/ids")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestBackend_EmptyValue(t *testing.T) {
	ctx := context.Background()
	b := New(newMockDDBClient(), "ivf-lists")

	require.NoError(t, b.Put(ctx, "list-0/codes", nil))
	got, err := b.Get(ctx, "list-0/codes")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBackend_TooLarge(t *testing.T) {
	b := New(newMockDDBClient(), "ivf-lists")
	err := b.Put(context.Background(), "list-0/codes", make([]byte, MaxItemSize))
	require.ErrorIs(t, err, ErrValueTooLarge)
}

func TestBackend_GetError(t *testing.T) {
	client := newMockDDBClient()
	client.getErr = errors.New("throttled")
	b := New(client, "ivf-lists")

	_, err := b.Get(context.Background(), "list-0/ids")
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
}

func TestBackend_List(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	b := New(client, "ivf-lists")

	for _, k := range []string{"list-2/ids", "list-1/codes", "other", "list-1/ids", "list-2/codes"} {
		require.NoError(t, b.Put(ctx, k, []byte("x")))
	}

	keys, err := b.List(ctx, "list-")
	require.NoError(t, err)
	assert.Equal(t, []string{"list-1/codes", "list-1/ids", "list-2/codes", "list-2/ids"}, keys)
}

func TestBackend_InvalidAttribute(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	client.items["list-0/ids"] = map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: "list-0/ids"},
		"value": &types.AttributeValueMemberS{Value: "not-binary"},
	}
	b := New(client, "ivf-lists")

	_, err := b.Get(ctx, "list-0/ids")
	require.Error(t, err)
}
