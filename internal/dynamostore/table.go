// Package dynamostore implements storage.Table on DynamoDB. Every table uses
// partition_key as hash key and row_key as range key, both strings.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/storage"
)

const (
	PartitionKeyAttr = "partition_key"
	RowKeyAttr       = "row_key"
)

// API is the subset of the DynamoDB client used by Table.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Table stores records of type T in one DynamoDB table.
type Table[T storage.Entity] struct {
	api    API
	name   string
	logger *slog.Logger
}

var (
	_ storage.Table[storage.Entity]             = (*Table[storage.Entity])(nil)
	_ storage.ConditionalMerger[storage.Entity] = (*Table[storage.Entity])(nil)
)

// New creates a table bound to the DynamoDB table name.
func New[T storage.Entity](api API, name string, logger *slog.Logger) *Table[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table[T]{api: api, name: name, logger: logger}
}

// Name returns the DynamoDB table name.
func (t *Table[T]) Name() string {
	return t.name
}

// EnsureTable creates the table with on-demand billing. An existing table is
// left untouched.
func (t *Table[T]) EnsureTable(ctx context.Context) error {
	_, err := t.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(t.name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKeyAttr), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(RowKeyAttr), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKeyAttr), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(RowKeyAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "dynamostore: create table "+t.name)
	}
	return nil
}

func keyOf(partitionKey, rowKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKeyAttr: &types.AttributeValueMemberS{Value: partitionKey},
		RowKeyAttr:       &types.AttributeValueMemberS{Value: rowKey},
	}
}

func (t *Table[T]) Retrieve(ctx context.Context, partitionKey, rowKey string) (T, error) {
	var rec T
	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            keyOf(partitionKey, rowKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return rec, err
	}
	if out.Item == nil {
		return rec, storage.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return rec, fmt.Errorf("dynamostore: unmarshal %s item: %w", t.name, err)
	}
	return rec, nil
}

func (t *Table[T]) Insert(ctx context.Context, record T) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal %s item: %w", t.name, err)
	}
	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyAttr},
	})
	if isConditionFailed(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

// Merge builds a SET expression for the listed columns. Columns whose value
// marshals to nothing (omitempty) are removed from the item.
func (t *Table[T]) Merge(ctx context.Context, record T, columns ...string) error {
	return t.merge(ctx, record, nil, columns)
}

// MergeIf adds an equality check per expected column to the update
// condition. The old item is returned on a failed check so a missing record
// can be told apart from a changed one.
func (t *Table[T]) MergeIf(ctx context.Context, record T, expect []storage.Condition, columns ...string) error {
	return t.merge(ctx, record, expect, columns)
}

func (t *Table[T]) merge(ctx context.Context, record T, expect []storage.Condition, columns []string) error {
	if len(columns) == 0 {
		columns = storage.PopulatedColumns(record)
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal %s item: %w", t.name, err)
	}

	expr, names, values := updateExpression(item, columns)
	if expr == "" {
		return nil
	}
	names["#pk"] = PartitionKeyAttr

	condition := []string{"attribute_exists(#pk)"}
	for i, cond := range expect {
		av, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return fmt.Errorf("dynamostore: marshal condition %s: %w", cond.Column(), err)
		}
		nameKey := fmt.Sprintf("#cond%d", i)
		valueKey := fmt.Sprintf(":cond%d", i)
		names[nameKey] = cond.Column()
		values[valueKey] = av
		condition = append(condition, nameKey+" = "+valueKey)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                aws.String(t.name),
		Key:                      keyOf(record.GetPartitionKey(), record.GetRowKey()),
		UpdateExpression:         aws.String(expr),
		ConditionExpression:      aws.String(strings.Join(condition, " AND ")),
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	if len(expect) > 0 {
		input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
	}

	_, err = t.api.UpdateItem(ctx, input)
	var condErr *types.ConditionalCheckFailedException
	if err != nil && errors.As(err, &condErr) {
		if len(expect) > 0 && len(condErr.Item) > 0 {
			return storage.ErrConditionFailed
		}
		return storage.ErrNotFound
	}
	return err
}

func updateExpression(item map[string]types.AttributeValue, columns []string) (string, map[string]string, map[string]types.AttributeValue) {
	cols := make([]string, 0, len(columns))
	seen := map[string]bool{PartitionKeyAttr: true, RowKeyAttr: true}
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var set, remove []string
	for i, c := range cols {
		nameKey := fmt.Sprintf("#attr%d", i)
		names[nameKey] = c
		if v, ok := item[c]; ok {
			valueKey := fmt.Sprintf(":val%d", i)
			values[valueKey] = v
			set = append(set, nameKey+" = "+valueKey)
			continue
		}
		remove = append(remove, nameKey)
	}

	var parts []string
	if len(set) > 0 {
		parts = append(parts, "SET "+strings.Join(set, ", "))
	}
	if len(remove) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(remove, ", "))
	}
	return strings.Join(parts, " "), names, values
}

func (t *Table[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	_, err := t.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       keyOf(partitionKey, rowKey),
	})
	return err
}

// QueryPaged issues one Query call. Top maps to Limit, which DynamoDB applies
// before the filter, so filtered pages can hold fewer than Top items while
// still carrying a continuation token.
func (t *Table[T]) QueryPaged(ctx context.Context, q storage.Query) (storage.Page[T], error) {
	if q.Filter.PartitionKey == "" {
		return storage.Page[T]{}, storage.ErrPartitionRequired
	}
	top := q.Top
	if top <= 0 {
		top = storage.DefaultTop
	}

	input, err := t.queryInput(q.Filter, q.Order)
	if err != nil {
		return storage.Page[T]{}, err
	}
	input.Limit = aws.Int32(int32(top))
	if q.Token != nil && q.Token.NextRowKey != "" {
		pk := q.Token.NextPartitionKey
		if pk == "" {
			pk = q.Filter.PartitionKey
		}
		input.ExclusiveStartKey = keyOf(pk, q.Token.NextRowKey)
	}

	out, err := t.api.Query(ctx, input)
	if err != nil {
		return storage.Page[T]{}, err
	}

	page := storage.Page[T]{Items: make([]T, 0, len(out.Items))}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &page.Items); err != nil {
		return storage.Page[T]{}, fmt.Errorf("dynamostore: unmarshal %s page: %w", t.name, err)
	}
	page.Next = tokenOf(out.LastEvaluatedKey)
	return page, nil
}

// ListPartition reads every page of a partition in row key order.
func (t *Table[T]) ListPartition(ctx context.Context, partitionKey string) ([]T, error) {
	input, err := t.queryInput(storage.Filter{PartitionKey: partitionKey}, storage.OrderAscending)
	if err != nil {
		return nil, err
	}

	out := []T{}
	paginator := dynamodb.NewQueryPaginator(t.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamostore: unmarshal %s page: %w", t.name, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

func (t *Table[T]) queryInput(f storage.Filter, order storage.Order) (*dynamodb.QueryInput, error) {
	names := map[string]string{"#pk": PartitionKeyAttr}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: f.PartitionKey},
	}

	var filters []string
	for i, c := range f.Conditions {
		v, err := attributevalue.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("dynamostore: marshal condition %s: %w", c.Field, err)
		}
		nameKey, valueKey := fmt.Sprintf("#f%d", i), fmt.Sprintf(":f%d", i)
		names[nameKey] = c.Column()
		values[valueKey] = v
		filters = append(filters, nameKey+" = "+valueKey)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(order != storage.OrderDescending),
	}
	if len(filters) > 0 {
		input.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}
	return input, nil
}

func tokenOf(lastKey map[string]types.AttributeValue) *storage.ContinuationToken {
	if len(lastKey) == 0 {
		return nil
	}
	tok := &storage.ContinuationToken{}
	if v, ok := lastKey[PartitionKeyAttr].(*types.AttributeValueMemberS); ok {
		tok.NextPartitionKey = v.Value
	}
	if v, ok := lastKey[RowKeyAttr].(*types.AttributeValueMemberS); ok {
		tok.NextRowKey = v.Value
	}
	return tok
}

func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &condErr)
}
