package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Entity is a record addressed by a partition key and a row key.
type Entity interface {
	GetPartitionKey() string
	GetRowKey() string
}

// Timestamped records expose their creation time for ordering.
type Timestamped interface {
	GetCreatedAt() time.Time
}

// Table is the contract every backing store implements. Writes are single
// record operations, no backend is expected to support multi-record
// transactions.
type Table[T Entity] interface {
	// Retrieve returns ErrNotFound when no record matches the key pair.
	Retrieve(ctx context.Context, partitionKey, rowKey string) (T, error)
	// Insert returns ErrAlreadyExists when the key pair is taken.
	Insert(ctx context.Context, record T) error
	// Merge writes the given columns of record onto the stored record. With no
	// columns every populated (non-zero) field is written. Returns ErrNotFound
	// when the record does not exist.
	Merge(ctx context.Context, record T, columns ...string) error
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, partitionKey, rowKey string) error
	// QueryPaged returns one page of records in row key order.
	QueryPaged(ctx context.Context, q Query) (Page[T], error)
	// ListPartition returns every record of one partition.
	ListPartition(ctx context.Context, partitionKey string) ([]T, error)
}

// ConditionalMerger is implemented by tables that can merge a record only
// while the stored copy still matches every expected condition. MergeIf
// returns ErrNotFound for a missing record and ErrConditionFailed when a
// condition does not hold.
type ConditionalMerger[T Entity] interface {
	MergeIf(ctx context.Context, record T, expect []Condition, columns ...string) error
}

// Order of a paged query over the row key.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)

// Query describes a paged fetch. Top <= 0 lets the backend use its default.
type Query struct {
	Filter Filter
	Token  *ContinuationToken
	Top    int
	Order  Order
}

// ContinuationToken is the native resume point returned by a paged query.
// Backends store whatever they need in the two markers and callers pass them
// back untouched.
type ContinuationToken struct {
	NextPartitionKey string `json:"np" msgpack:"np"`
	NextRowKey       string `json:"nr" msgpack:"nr"`
}

// Page is one slice of a paged query. Next is nil on the last page.
type Page[T any] struct {
	Items []T
	Next  *ContinuationToken
}

// Condition is an equality predicate on one field. Field uses the exported
// Go field name, Column() gives the stored column name.
type Condition struct {
	Field string
	Value any
}

// Column returns the snake_case column for the condition field.
func (c Condition) Column() string {
	return ColumnName(c.Field)
}

// Filter selects records of one partition matching every condition.
type Filter struct {
	PartitionKey string
	Conditions   []Condition
}

// Where returns a copy of f with an extra condition.
func (f Filter) Where(field string, value any) Filter {
	conds := make([]Condition, 0, len(f.Conditions)+1)
	conds = append(conds, f.Conditions...)
	f.Conditions = append(conds, Condition{Field: field, Value: value})
	return f
}

// String renders the filter in table query syntax, for example
// (PartitionKey eq 'foo') and (Status eq 2).
func (f Filter) String() string {
	parts := []string{fmt.Sprintf("PartitionKey eq %s", formatFilterValue(f.PartitionKey))}
	for _, c := range f.Conditions {
		parts = append(parts, fmt.Sprintf("%s eq %s", c.Field, formatFilterValue(c.Value)))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " and ")
}

func formatFilterValue(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "'" + strings.ReplaceAll(rv.String(), "'", "''") + "'"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", rv.Uint())
	case reflect.Bool:
		return fmt.Sprintf("%t", rv.Bool())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ColumnName converts an exported field name to its snake_case column.
func ColumnName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !isUpperAt(field, i-1) {
				b.WriteByte('_')
			} else if i > 0 && i+1 < len(field) && !isUpperAt(field, i+1) {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpperAt(s string, i int) bool {
	return s[i] >= 'A' && s[i] <= 'Z'
}
