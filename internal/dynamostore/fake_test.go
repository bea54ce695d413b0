package dynamostore

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory DynamoDB table understanding the expressions
// built by Table.
type fakeAPI struct {
	mu       sync.Mutex
	items    map[string]map[string]map[string]types.AttributeValue
	pageCap  int
	created  []string
	updates  []*dynamodb.UpdateItemInput
	queries  []*dynamodb.QueryInput
	tableErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func sval(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyParts(key map[string]types.AttributeValue) (string, string) {
	return sval(key[PartitionKeyAttr]), sval(key[RowKeyAttr])
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeAPI) get(pk, rk string) (map[string]types.AttributeValue, bool) {
	p, ok := f.items[pk]
	if !ok {
		return nil, false
	}
	item, ok := p[rk]
	return item, ok
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, rk := keyParts(in.Key)
	item, ok := f.get(pk, rk)
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, rk := keyParts(in.Item)
	if _, exists := f.get(pk, rk); exists && strings.Contains(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	if f.items[pk] == nil {
		f.items[pk] = map[string]map[string]types.AttributeValue{}
	}
	f.items[pk][rk] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	pk, rk := keyParts(in.Key)
	item, ok := f.get(pk, rk)
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}

	for _, clause := range strings.Split(aws.ToString(in.ConditionExpression), " AND ") {
		lhs, rhs, ok := strings.Cut(clause, " = ")
		if !ok {
			continue
		}
		if !reflect.DeepEqual(item[in.ExpressionAttributeNames[lhs]], in.ExpressionAttributeValues[rhs]) {
			failed := &types.ConditionalCheckFailedException{Message: aws.String("condition")}
			if in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
				failed.Item = copyItem(item)
			}
			return nil, failed
		}
	}

	expr := aws.ToString(in.UpdateExpression)
	var setPart, removePart string
	if i := strings.Index(expr, "REMOVE "); i >= 0 {
		removePart = strings.TrimPrefix(expr[i:], "REMOVE ")
		expr = strings.TrimSpace(expr[:i])
	}
	setPart = strings.TrimPrefix(expr, "SET ")

	if setPart != "" {
		for _, assign := range strings.Split(setPart, ", ") {
			lhs, rhs, _ := strings.Cut(assign, " = ")
			item[in.ExpressionAttributeNames[lhs]] = in.ExpressionAttributeValues[rhs]
		}
	}
	if removePart != "" {
		for _, name := range strings.Split(removePart, ", ") {
			delete(item, in.ExpressionAttributeNames[name])
		}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, rk := keyParts(in.Key)
	if p, ok := f.items[pk]; ok {
		delete(p, rk)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)

	pk := sval(in.ExpressionAttributeValues[":pk"])
	rows := make([]map[string]types.AttributeValue, 0)
	for _, item := range f.items[pk] {
		rows = append(rows, item)
	}
	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	sort.Slice(rows, func(i, j int) bool {
		a, b := sval(rows[i][RowKeyAttr]), sval(rows[j][RowKeyAttr])
		if forward {
			return a < b
		}
		return a > b
	})

	start := 0
	if in.ExclusiveStartKey != nil {
		_, after := keyParts(in.ExclusiveStartKey)
		for start < len(rows) {
			rk := sval(rows[start][RowKeyAttr])
			start++
			if rk == after {
				break
			}
		}
	}

	limit := len(rows)
	if in.Limit != nil {
		limit = int(*in.Limit)
	}
	if f.pageCap > 0 && f.pageCap < limit {
		limit = f.pageCap
	}

	out := &dynamodb.QueryOutput{}
	scanned := 0
	for i := start; i < len(rows) && scanned < limit; i++ {
		scanned++
		if f.matches(rows[i], in) {
			out.Items = append(out.Items, copyItem(rows[i]))
		}
		if scanned == limit && i+1 < len(rows) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				PartitionKeyAttr: rows[i][PartitionKeyAttr],
				RowKeyAttr:       rows[i][RowKeyAttr],
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) matches(item map[string]types.AttributeValue, in *dynamodb.QueryInput) bool {
	expr := aws.ToString(in.FilterExpression)
	if expr == "" {
		return true
	}
	for _, clause := range strings.Split(expr, " AND ") {
		lhs, rhs, _ := strings.Cut(clause, " = ")
		if !reflect.DeepEqual(item[in.ExpressionAttributeNames[lhs]], in.ExpressionAttributeValues[rhs]) {
			return false
		}
	}
	return true
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	f.created = append(f.created, aws.ToString(in.TableName))
	return &dynamodb.CreateTableOutput{}, nil
}
