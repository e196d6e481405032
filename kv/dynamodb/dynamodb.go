// Package dynamodb provides a kv.Backend that stores each key as one
// DynamoDB item.
//
// Table schema:
//   - Partition key: pk (string) - the list key, e.g. "list-3/ids"
//   - Attribute: value (binary) - the array bytes
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name ivf-lists \
//	  --attribute-definitions AttributeName=pk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// DynamoDB items are limited to 400KB, so this backend suits small lists or
// lists stored through kv.Compressed.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/ivfstore/kv"
)

const (
	attrKey   = "pk"
	attrValue = "value"
)

// MaxItemSize is the DynamoDB item size limit.
const MaxItemSize = 400 * 1024

// ErrValueTooLarge is returned by Put when a value cannot fit in one item.
var ErrValueTooLarge = errors.New("dynamodb: value exceeds item size limit")

// Client is the interface for DynamoDB operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Backend implements kv.Backend and kv.Lister on a DynamoDB table.
type Backend struct {
	client         Client
	table          string
	consistentRead bool
}

// New creates a Backend for table. Reads are strongly consistent so that a
// write is visible to the next load of the same list.
func New(client Client, table string) *Backend {
	return &Backend{client: client, table: table, consistentRead: true}
}

// Get implements kv.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.table),
		Key: map[string]types.AttributeValue{
			attrKey: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(b.consistentRead),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if resp.Item == nil {
		return nil, kv.ErrNotFound
	}

	switch v := resp.Item[attrValue].(type) {
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case nil:
		// DynamoDB does not store empty binary attributes.
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("invalid %s attribute in DynamoDB item %q", attrValue, key)
	}
}

// Put implements kv.Backend.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if len(value)+len(key)+len(attrKey)+len(attrValue) > MaxItemSize {
		return fmt.Errorf("%w: %s is %d bytes", ErrValueTooLarge, key, len(value))
	}

	item := map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: key},
	}
	if len(value) > 0 {
		item[attrValue] = &types.AttributeValueMemberB{Value: value}
	}

	_, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item to DynamoDB: %w", err)
	}
	return nil
}

// List implements kv.Lister with a paginated table scan.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(b.table),
		ProjectionExpression: aws.String(attrKey),
	}
	if prefix != "" {
		input.FilterExpression = aws.String("begins_with(pk, :prefix)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		}
	}

	var keys []string
	paginator := dynamodb.NewScanPaginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DynamoDB: %w", err)
		}
		for _, item := range page.Items {
			k, ok := item[attrKey].(*types.AttributeValueMemberS)
			if !ok || !strings.HasPrefix(k.Value, prefix) {
				continue
			}
			keys = append(keys, k.Value)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ kv.Backend = (*Backend)(nil)
var _ kv.Lister = (*Backend)(nil)
