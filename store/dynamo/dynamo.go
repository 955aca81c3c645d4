/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package dynamo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	tserrors "github.com/tidemark/tablestore/errors"
	"github.com/tidemark/tablestore/store"
)

// Attribute names used on every item. Key identity lives in the composite
// (attrPartitionKey, attrRowKey) primary key; the version tag is a plain
// attribute checked through condition expressions.
const (
	attrPartitionKey = "PartitionKey"
	attrRowKey       = "RowKey"
	attrETag         = "ETag"
)

// Table implements store.TableClient on top of AWS DynamoDB. Version tags
// are emulated with a server-assigned ETag attribute and conditional writes;
// atomic batches use single-partition transactions.
type Table struct {
	client    *sdk.Client
	tableName string
}

// NewClient initializes a DynamoDB client using static AWS credentials.
func NewClient(awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// New constructs a Table over a freshly built client.
func New(awsAccessKey, awsSecretKey, awsRegion, tableName string) (*Table, error) {
	client, err := NewClient(awsAccessKey, awsSecretKey, awsRegion)
	if err != nil {
		return nil, err
	}
	return NewFromClient(client, tableName), nil
}

// NewFromClient constructs a Table over an existing client, for callers that
// manage their own AWS configuration.
func NewFromClient(client *sdk.Client, tableName string) *Table {
	return &Table{client: client, tableName: tableName}
}

// EnsureTable creates the backing table on demand and waits for it to become
// active. Safe to call repeatedly.
func (t *Table) EnsureTable(ctx context.Context) error {
	_, err := t.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &t.tableName})
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return fmt.Errorf("describe table %q: %w", t.tableName, mapError(err))
	}

	_, err = t.client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName:   &t.tableName,
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrRowKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrRowKey), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("create table %q: %w", t.tableName, mapError(err))
		}
	}
	return t.waitActive(ctx)
}

func (t *Table) waitActive(ctx context.Context) error {
	for {
		out, err := t.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &t.tableName})
		if err == nil && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// DropTable deletes the backing table. A table that never existed is not an
// error.
func (t *Table) DropTable(ctx context.Context) error {
	_, err := t.client.DeleteTable(ctx, &sdk.DeleteTableInput{TableName: &t.tableName})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("delete table %q: %w", t.tableName, mapError(err))
	}
	return nil
}

func (t *Table) Insert(ctx context.Context, row store.Row) (store.Row, error) {
	stored := row.Clone()
	stored.ETag = uuid.NewString()

	item, err := marshalRow(stored)
	if err != nil {
		return store.Row{}, err
	}

	_, err = t.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &t.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + attrPartitionKey + ")"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return store.Row{}, tserrors.NewAlreadyExistsError(row.PartitionKey, row.RowKey)
		}
		return store.Row{}, fmt.Errorf("PutItem failed: %w", mapError(err))
	}
	return stored, nil
}

func (t *Table) InsertOrReplace(ctx context.Context, row store.Row) (store.Row, error) {
	stored := row.Clone()
	stored.ETag = uuid.NewString()

	item, err := marshalRow(stored)
	if err != nil {
		return store.Row{}, err
	}

	_, err = t.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &t.tableName,
		Item:      item,
	})
	if err != nil {
		return store.Row{}, fmt.Errorf("PutItem failed: %w", mapError(err))
	}
	return stored, nil
}

func (t *Table) Replace(ctx context.Context, row store.Row) (store.Row, error) {
	stored := row.Clone()
	stored.ETag = uuid.NewString()

	item, err := marshalRow(stored)
	if err != nil {
		return store.Row{}, err
	}

	input := &sdk.PutItemInput{
		TableName: &t.tableName,
		Item:      item,
	}
	applyTagCondition(row.ETag, func(cond string, vals map[string]types.AttributeValue) {
		input.ConditionExpression = &cond
		input.ExpressionAttributeValues = vals
	})

	_, err = t.client.PutItem(ctx, input)
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return store.Row{}, t.classifyCheckFailure(ctx, row.PartitionKey, row.RowKey)
		}
		return store.Row{}, fmt.Errorf("PutItem failed: %w", mapError(err))
	}
	return stored, nil
}

func (t *Table) Delete(ctx context.Context, partitionKey, rowKey, etag string) error {
	input := &sdk.DeleteItemInput{
		TableName: &t.tableName,
		Key:       keyOf(partitionKey, rowKey),
	}
	applyTagCondition(etag, func(cond string, vals map[string]types.AttributeValue) {
		input.ConditionExpression = &cond
		input.ExpressionAttributeValues = vals
	})

	_, err := t.client.DeleteItem(ctx, input)
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return t.classifyCheckFailure(ctx, partitionKey, rowKey)
		}
		return fmt.Errorf("DeleteItem failed: %w", mapError(err))
	}
	return nil
}

func (t *Table) Get(ctx context.Context, partitionKey, rowKey string) (*store.Row, error) {
	out, err := t.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &t.tableName,
		Key:       keyOf(partitionKey, rowKey),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", mapError(err))
	}
	if out.Item == nil {
		return nil, nil
	}
	row, err := unmarshalRow(out.Item)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// QuerySegment serves one page of a filtered table scan. DynamoDB scans have
// no server-side sort, so any OrderBy clause is rejected up front rather than
// silently ignored.
func (t *Table) QuerySegment(ctx context.Context, q store.Query) (store.Page, error) {
	if len(q.OrderBy) > 0 {
		return store.Page{}, tserrors.NewUnsupportedExpressionError("order-by", "scans cannot sort server-side")
	}

	b := newExprBuilder()
	input := &sdk.ScanInput{
		TableName: &t.tableName,
	}

	if q.Filter != "" {
		rendered, err := compileFilter(b, q.Filter)
		if err != nil {
			return store.Page{}, err
		}
		input.FilterExpression = &rendered
	}
	if q.Select != nil {
		projection := compileProjection(b, q.Select)
		input.ProjectionExpression = &projection
	}
	if len(b.names) > 0 {
		input.ExpressionAttributeNames = b.names
	}
	if len(b.values) > 0 {
		input.ExpressionAttributeValues = b.values
	}

	size := q.PageSize
	if size <= 0 || size > store.MaxPageSize {
		size = store.MaxPageSize
	}
	input.Limit = aws.Int32(size)

	if q.Token != "" {
		start, err := decodeToken(q.Token)
		if err != nil {
			return store.Page{}, err
		}
		input.ExclusiveStartKey = start
	}

	out, err := t.client.Scan(ctx, input)
	if err != nil {
		return store.Page{}, fmt.Errorf("Scan failed: %w", mapError(err))
	}

	page := store.Page{Rows: make([]store.Row, 0, len(out.Items))}
	for _, item := range out.Items {
		row, err := unmarshalRow(item)
		if err != nil {
			return store.Page{}, err
		}
		page.Rows = append(page.Rows, row)
	}
	if len(out.LastEvaluatedKey) > 0 {
		token, err := encodeToken(out.LastEvaluatedKey)
		if err != nil {
			return store.Page{}, err
		}
		page.Next = token
	}
	return page, nil
}

// SubmitBatch commits a single-partition batch as one transaction. The batch
// ID doubles as the idempotency token, so a retried submission after an
// ambiguous failure cannot apply twice.
func (t *Table) SubmitBatch(ctx context.Context, b store.Batch) (int, error) {
	if len(b.Operations) > store.MaxBatchOperations {
		return 0, fmt.Errorf("%w: %d operations", tserrors.ErrBatchTooLarge, len(b.Operations))
	}

	items := make([]types.TransactWriteItem, 0, len(b.Operations))
	for _, op := range b.Operations {
		if op.Row.PartitionKey != b.PartitionKey {
			return 0, fmt.Errorf("%w: %q and %q", tserrors.ErrMixedPartitions, b.PartitionKey, op.Row.PartitionKey)
		}
		item, err := t.transactItem(op)
		if err != nil {
			return 0, err
		}
		items = append(items, item)
	}

	token := b.ID.String()
	_, err := t.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: &token,
	})
	if err != nil {
		return 0, t.mapTransactError(err, b)
	}
	return len(b.Operations), nil
}

func (t *Table) transactItem(op store.Operation) (types.TransactWriteItem, error) {
	switch op.Kind {
	case store.OpDelete:
		d := &types.Delete{
			TableName: &t.tableName,
			Key:       keyOf(op.Row.PartitionKey, op.Row.RowKey),
		}
		applyTagCondition(op.Row.ETag, func(cond string, vals map[string]types.AttributeValue) {
			d.ConditionExpression = &cond
			d.ExpressionAttributeValues = vals
		})
		return types.TransactWriteItem{Delete: d}, nil

	default:
		stored := op.Row.Clone()
		stored.ETag = uuid.NewString()
		item, err := marshalRow(stored)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		p := &types.Put{
			TableName: &t.tableName,
			Item:      item,
		}
		switch op.Kind {
		case store.OpInsert:
			p.ConditionExpression = aws.String("attribute_not_exists(" + attrPartitionKey + ")")
		case store.OpReplace:
			applyTagCondition(op.Row.ETag, func(cond string, vals map[string]types.AttributeValue) {
				p.ConditionExpression = &cond
				p.ExpressionAttributeValues = vals
			})
		}
		return types.TransactWriteItem{Put: p}, nil
	}
}

// mapTransactError surfaces the first meaningful cancellation reason.
func (t *Table) mapTransactError(err error, b store.Batch) error {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed":
				row := b.Operations[i].Row
				return tserrors.NewConflictError(row.PartitionKey, row.RowKey)
			case "TransactionConflict", "ThrottlingError", "ProvisionedThroughputExceeded":
				return fmt.Errorf("transaction canceled (%s): %w", *reason.Code, tserrors.ErrThrottled)
			}
		}
	}
	return fmt.Errorf("TransactWriteItems failed: %w", mapError(err))
}

// classifyCheckFailure distinguishes a missing row from a stale tag after a
// conditional write bounced. The follow-up read races with other writers,
// which is acceptable for an error-detail lookup.
func (t *Table) classifyCheckFailure(ctx context.Context, partitionKey, rowKey string) error {
	out, err := t.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &t.tableName,
		Key:       keyOf(partitionKey, rowKey),
	})
	if err == nil && out.Item == nil {
		return tserrors.NewNotFoundError(partitionKey, rowKey)
	}
	return tserrors.NewConflictError(partitionKey, rowKey)
}

// mapError wraps transient capacity failures with the retryable throttling
// signal; everything else passes through untouched.
func mapError(err error) error {
	var (
		provisioned *types.ProvisionedThroughputExceededException
		limit       *types.LimitExceededException
		requests    *types.RequestLimitExceeded
	)
	if errors.As(err, &provisioned) || errors.As(err, &limit) || errors.As(err, &requests) {
		return fmt.Errorf("%v: %w", err, tserrors.ErrThrottled)
	}
	return err
}

func keyOf(partitionKey, rowKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: partitionKey},
		attrRowKey:       &types.AttributeValueMemberS{Value: rowKey},
	}
}

func applyTagCondition(etag string, set func(cond string, vals map[string]types.AttributeValue)) {
	if etag == store.ForceTag {
		set("attribute_exists("+attrPartitionKey+")", nil)
		return
	}
	set(attrETag+" = :tag", map[string]types.AttributeValue{
		":tag": &types.AttributeValueMemberS{Value: etag},
	})
}

func marshalRow(row store.Row) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal row (%q, %q): %w", row.PartitionKey, row.RowKey, err)
	}
	item[attrPartitionKey] = &types.AttributeValueMemberS{Value: row.PartitionKey}
	item[attrRowKey] = &types.AttributeValueMemberS{Value: row.RowKey}
	item[attrETag] = &types.AttributeValueMemberS{Value: row.ETag}
	return item, nil
}

func unmarshalRow(item map[string]types.AttributeValue) (store.Row, error) {
	var row store.Row
	props := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		switch k {
		case attrPartitionKey:
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				row.PartitionKey = s.Value
			}
		case attrRowKey:
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				row.RowKey = s.Value
			}
		case attrETag:
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				row.ETag = s.Value
			}
		default:
			props[k] = v
		}
	}
	row.Properties = make(map[string]any, len(props))
	if err := attributevalue.UnmarshalMap(props, &row.Properties); err != nil {
		return store.Row{}, fmt.Errorf("unmarshal row: %w", err)
	}
	return row, nil
}

// Continuation tokens are the base64 of the JSON-rendered last evaluated key.
// Only the string key attributes appear in it, so the round trip is lossless.
func encodeToken(key map[string]types.AttributeValue) (string, error) {
	plain := make(map[string]string, len(key))
	for k, v := range key {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("dynamo: non-string key attribute %q in continuation", k)
		}
		plain[k] = s.Value
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeToken(token string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("dynamo: malformed continuation token: %w", err)
	}
	var plain map[string]string
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("dynamo: malformed continuation token: %w", err)
	}
	key := make(map[string]types.AttributeValue, len(plain))
	for k, v := range plain {
		key[k] = &types.AttributeValueMemberS{Value: v}
	}
	return key, nil
}
