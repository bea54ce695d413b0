package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultTop is the page size used when a query does not set one.
const DefaultTop = 100

type memPartition[T Entity] struct {
	mu   sync.RWMutex
	rows map[string]T
}

// MemTable is an in-process Table. It is the default backend for tests and
// for single node deployments that do not need durability.
type MemTable[T Entity] struct {
	partitions *xsync.MapOf[string, *memPartition[T]]
}

var (
	_ Table[Entity]             = (*MemTable[Entity])(nil)
	_ ConditionalMerger[Entity] = (*MemTable[Entity])(nil)
)

// NewMemTable creates an empty in-memory table.
func NewMemTable[T Entity]() *MemTable[T] {
	return &MemTable[T]{partitions: xsync.NewMapOf[string, *memPartition[T]]()}
}

func (m *MemTable[T]) partition(pk string) *memPartition[T] {
	p, _ := m.partitions.LoadOrCompute(pk, func() *memPartition[T] {
		return &memPartition[T]{rows: make(map[string]T)}
	})
	return p
}

func (m *MemTable[T]) Retrieve(ctx context.Context, partitionKey, rowKey string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	p, ok := m.partitions.Load(partitionKey)
	if !ok {
		return zero, ErrNotFound
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.rows[rowKey]
	if !ok {
		return zero, ErrNotFound
	}
	return rec, nil
}

func (m *MemTable[T]) Insert(ctx context.Context, record T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := m.partition(record.GetPartitionKey())
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.rows[record.GetRowKey()]; exists {
		return ErrAlreadyExists
	}
	p.rows[record.GetRowKey()] = record
	return nil
}

func (m *MemTable[T]) Merge(ctx context.Context, record T, columns ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := m.partitions.Load(record.GetPartitionKey())
	if !ok {
		return ErrNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.rows[record.GetRowKey()]
	if !ok {
		return ErrNotFound
	}
	p.rows[record.GetRowKey()] = MergeColumns(existing, record, columns...)
	return nil
}

// MergeIf merges record when the stored copy matches expect. The check and
// the write happen under the partition lock.
func (m *MemTable[T]) MergeIf(ctx context.Context, record T, expect []Condition, columns ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := m.partitions.Load(record.GetPartitionKey())
	if !ok {
		return ErrNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.rows[record.GetRowKey()]
	if !ok {
		return ErrNotFound
	}
	if !(Filter{Conditions: expect}).Matches(existing) {
		return ErrConditionFailed
	}
	p.rows[record.GetRowKey()] = MergeColumns(existing, record, columns...)
	return nil
}

func (m *MemTable[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := m.partitions.Load(partitionKey)
	if !ok {
		return nil
	}
	p.mu.Lock()
	delete(p.rows, rowKey)
	p.mu.Unlock()
	return nil
}

// QueryPaged walks the partition in row key order. The continuation token
// carries the last returned key pair, the next page starts after it.
func (m *MemTable[T]) QueryPaged(ctx context.Context, q Query) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	if q.Filter.PartitionKey == "" {
		return Page[T]{}, ErrPartitionRequired
	}
	top := q.Top
	if top <= 0 {
		top = DefaultTop
	}

	rows := m.sortedRows(q.Filter.PartitionKey, q.Order)
	start := 0
	if q.Token != nil && q.Token.NextRowKey != "" {
		start = sort.Search(len(rows), func(i int) bool {
			if q.Order == OrderDescending {
				return rows[i].GetRowKey() < q.Token.NextRowKey
			}
			return rows[i].GetRowKey() > q.Token.NextRowKey
		})
	}

	page := Page[T]{Items: make([]T, 0, top)}
	for i := start; i < len(rows); i++ {
		if !q.Filter.Matches(rows[i]) {
			continue
		}
		if len(page.Items) == top {
			last := page.Items[len(page.Items)-1]
			page.Next = &ContinuationToken{
				NextPartitionKey: last.GetPartitionKey(),
				NextRowKey:       last.GetRowKey(),
			}
			break
		}
		page.Items = append(page.Items, rows[i])
	}
	return page, nil
}

func (m *MemTable[T]) ListPartition(ctx context.Context, partitionKey string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.sortedRows(partitionKey, OrderAscending), nil
}

func (m *MemTable[T]) sortedRows(pk string, order Order) []T {
	p, ok := m.partitions.Load(pk)
	if !ok {
		return []T{}
	}
	p.mu.RLock()
	rows := make([]T, 0, len(p.rows))
	for _, r := range p.rows {
		rows = append(rows, r)
	}
	p.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if order == OrderDescending {
			return rows[i].GetRowKey() > rows[j].GetRowKey()
		}
		return rows[i].GetRowKey() < rows[j].GetRowKey()
	})
	return rows
}
