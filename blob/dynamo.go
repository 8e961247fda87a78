package blob

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/store"
)

// Attribute names of a collection item.
const (
	AttrKey       = "pk"
	AttrData      = "data"
	AttrVersion   = "version"
	AttrUpdatedAt = "updated_at"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Dynamo keeps the collection in a single DynamoDB item:
//
//	{pk: S, data: B, version: N, updated_at: S}
//
// Every save increments version, which is also the stamp. Strict saves are
// conditional on the version read by the preceding load (optimistic locking).
// The encoded collection must fit in one item (400 KB).
type Dynamo struct {
	client DynamoAPI
	table  string
	key    string
	opts   options
}

// NewDynamo returns a backend storing the collection under key in table.
func NewDynamo(client DynamoAPI, table, key string, opts ...Option) *Dynamo {
	return &Dynamo{client: client, table: table, key: key, opts: buildOptions(opts)}
}

type collectionItem struct {
	Key       string `dynamodbav:"pk"`
	Data      []byte `dynamodbav:"data"`
	Version   int64  `dynamodbav:"version"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func (d *Dynamo) itemKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrKey: &types.AttributeValueMemberS{Value: d.key},
	}
}

// Load reads the collection item with a strongly consistent read. A missing
// item is an empty collection with the empty stamp.
func (d *Dynamo) Load(ctx context.Context) (store.Blob, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Blob{}, fmt.Errorf("blob: get item %s/%s: %w", d.table, d.key, err)
	}
	if out.Item == nil {
		return store.Blob{}, nil
	}

	var item collectionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return store.Blob{}, fmt.Errorf("blob: unmarshal item %s/%s: %w", d.table, d.key, err)
	}
	return store.Blob{Data: item.Data, Stamp: versionStamp(item.Version)}, nil
}

// Save writes data and increments the version.
func (d *Dynamo) Save(ctx context.Context, data []byte, prev store.Stamp) (store.Stamp, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(d.table),
		Key:              d.itemKey(),
		UpdateExpression: aws.String("SET #data = :data, #updated_at = :updated_at ADD #version :one"),
		ExpressionAttributeNames: map[string]string{
			"#data":       AttrData,
			"#updated_at": AttrUpdatedAt,
			"#version":    AttrVersion,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":data":       &types.AttributeValueMemberB{Value: data},
			":updated_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			":one":        &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	if d.opts.strict {
		if prev == "" {
			input.ConditionExpression = aws.String("attribute_not_exists(#pk)")
			input.ExpressionAttributeNames["#pk"] = AttrKey
		} else {
			input.ConditionExpression = aws.String("#version = :expected_version")
			input.ExpressionAttributeValues[":expected_version"] = &types.AttributeValueMemberN{Value: string(prev)}
		}
	}

	out, err := d.client.UpdateItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			d.opts.logger.DebugContext(ctx, "dynamo blob version mismatch",
				"table", d.table, "key", d.key, "stamp", string(prev))
			return "", store.ErrStaleWrite
		}
		return "", fmt.Errorf("blob: update item %s/%s: %w", d.table, d.key, err)
	}

	var version int64
	if av, ok := out.Attributes[AttrVersion]; ok {
		if err := attributevalue.Unmarshal(av, &version); err != nil {
			return "", fmt.Errorf("blob: unmarshal version: %w", err)
		}
	}
	d.opts.logger.DebugContext(ctx, "wrote dynamo blob",
		"table", d.table, "key", d.key, "bytes", len(data), "version", version)
	return versionStamp(version), nil
}

func versionStamp(v int64) store.Stamp {
	if v == 0 {
		return ""
	}
	return store.Stamp(strconv.FormatInt(v, 10))
}
