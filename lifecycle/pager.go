package lifecycle

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-hackathon-store/pagination"
	"github.com/goliatone/go-hackathon-store/storage"
)

// Record is a partitioned entity with a creation time.
type Record interface {
	storage.Entity
	GetCreatedAt() time.Time
}

// Page is one page of a list call. Next is nil on the last page.
type Page[T any] struct {
	Items []T
	Next  *pagination.Cursor
}

// NextToken returns the opaque token of the next page, "" on the last page.
func (p Page[T]) NextToken() string {
	if p.Next == nil {
		return ""
	}
	return pagination.Encode(*p.Next)
}

// Pager is a list strategy. Each entity kind picks one at construction time.
type Pager[T Record] interface {
	Page(ctx context.Context, partitionKey string, cursor pagination.Cursor, conditions []storage.Condition) (Page[T], error)
}

// OffsetPager pages a whole partition held in memory. The partition list
// comes from table.ListPartition, which is cached when table is a
// repositorycache.CachedTable. Records are ordered by creation time, newest
// first, and cursors carry the offset of the next page.
type OffsetPager[T Record] struct {
	table storage.Table[T]
}

// NewOffsetPager creates an offset pager over table.
func NewOffsetPager[T Record](table storage.Table[T]) *OffsetPager[T] {
	return &OffsetPager[T]{table: table}
}

func (p *OffsetPager[T]) Page(ctx context.Context, partitionKey string, cursor pagination.Cursor, conditions []storage.Condition) (Page[T], error) {
	cursor = cursor.Normalize()

	all, err := p.table.ListPartition(ctx, partitionKey)
	if err != nil {
		return Page[T]{}, err
	}

	filter := storage.Filter{PartitionKey: partitionKey, Conditions: conditions}
	records := make([]T, 0, len(all))
	for _, r := range all {
		if filter.Matches(r) {
			records = append(records, r)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].GetCreatedAt(), records[j].GetCreatedAt()
		if a.Equal(b) {
			return records[i].GetRowKey() < records[j].GetRowKey()
		}
		return a.After(b)
	})

	offset, top, total := cursor.Offset(), cursor.PageSize, len(records)
	page := Page[T]{Items: []T{}}
	if offset < total {
		end := min(offset+top, total)
		page.Items = records[offset:end]
	}
	if pagination.HasMore(offset, top, total) {
		next := pagination.OffsetCursor(offset+top, top)
		page.Next = &next
	}
	return page, nil
}

// StorePager delegates to the backing store's paged query and forwards its
// continuation markers untouched.
type StorePager[T Record] struct {
	table storage.Table[T]
	order storage.Order
}

// NewStorePager creates a store pager over table.
func NewStorePager[T Record](table storage.Table[T], order storage.Order) *StorePager[T] {
	return &StorePager[T]{table: table, order: order}
}

func (p *StorePager[T]) Page(ctx context.Context, partitionKey string, cursor pagination.Cursor, conditions []storage.Condition) (Page[T], error) {
	cursor = cursor.Normalize()

	res, err := p.table.QueryPaged(ctx, storage.Query{
		Filter: storage.Filter{PartitionKey: partitionKey, Conditions: conditions},
		Token:  cursor.Token(),
		Top:    cursor.PageSize,
		Order:  p.order,
	})
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{Items: res.Items}
	if page.Items == nil {
		page.Items = []T{}
	}
	if res.Next != nil {
		next := pagination.FromToken(res.Next, cursor.PageSize)
		page.Next = &next
	}
	return page, nil
}
