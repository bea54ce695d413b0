package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-hackathon-store/storage"
)

const (
	partitionColumn = "partition_key"
	rowColumn       = "row_key"
)

// Table stores records of type T in the table named by T's bun.BaseModel.
// T must declare partition_key and row_key as its primary key.
type Table[T storage.Entity] struct {
	db     bun.IDB
	logger *slog.Logger
}

var (
	_ storage.Table[storage.Entity]             = (*Table[storage.Entity])(nil)
	_ storage.ConditionalMerger[storage.Entity] = (*Table[storage.Entity])(nil)
)

// New creates a table over db, which may be a *bun.DB or a bun.Tx.
func New[T storage.Entity](db bun.IDB, logger *slog.Logger) *Table[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table[T]{db: db, logger: logger}
}

// CreateTable creates the table if it does not exist.
func (t *Table[T]) CreateTable(ctx context.Context) error {
	_, err := t.db.NewCreateTable().Model((*T)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (t *Table[T]) Retrieve(ctx context.Context, partitionKey, rowKey string) (T, error) {
	var rec T
	err := t.db.NewSelect().
		Model(&rec).
		Where("? = ?", bun.Ident(partitionColumn), partitionKey).
		Where("? = ?", bun.Ident(rowColumn), rowKey).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, storage.ErrNotFound
	}
	return rec, err
}

func (t *Table[T]) Insert(ctx context.Context, record T) error {
	_, err := t.db.NewInsert().Model(&record).Exec(ctx)
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

func (t *Table[T]) Merge(ctx context.Context, record T, columns ...string) error {
	return t.merge(ctx, record, nil, columns)
}

// MergeIf adds the expected column values to the update WHERE clause. When
// no row is updated the key is read again to tell a missing record from a
// failed condition.
func (t *Table[T]) MergeIf(ctx context.Context, record T, expect []storage.Condition, columns ...string) error {
	err := t.merge(ctx, record, expect, columns)
	if !errors.Is(err, storage.ErrNotFound) || len(expect) == 0 {
		return err
	}
	if _, rerr := t.Retrieve(ctx, record.GetPartitionKey(), record.GetRowKey()); rerr == nil {
		return storage.ErrConditionFailed
	}
	return err
}

func (t *Table[T]) merge(ctx context.Context, record T, expect []storage.Condition, columns []string) error {
	if len(columns) == 0 {
		columns = storage.PopulatedColumns(record)
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != partitionColumn && c != rowColumn {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil
	}

	q := t.db.NewUpdate().
		Model(&record).
		Column(cols...).
		WherePK()
	for _, cond := range expect {
		q = q.Where("? = ?", bun.Ident(cond.Column()), cond.Value)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	_, err := t.db.NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(partitionColumn), partitionKey).
		Where("? = ?", bun.Ident(rowColumn), rowKey).
		Exec(ctx)
	return err
}

// QueryPaged uses keyset pagination on row_key. One extra row is read to
// decide whether a continuation token is needed.
func (t *Table[T]) QueryPaged(ctx context.Context, q storage.Query) (storage.Page[T], error) {
	if q.Filter.PartitionKey == "" {
		return storage.Page[T]{}, storage.ErrPartitionRequired
	}
	top := q.Top
	if top <= 0 {
		top = storage.DefaultTop
	}

	items := make([]T, 0, top+1)
	sel := t.db.NewSelect().
		Model(&items).
		Where("? = ?", bun.Ident(partitionColumn), q.Filter.PartitionKey)
	for _, c := range q.Filter.Conditions {
		sel = sel.Where("? = ?", bun.Ident(c.Column()), c.Value)
	}

	desc := q.Order == storage.OrderDescending
	if q.Token != nil && q.Token.NextRowKey != "" {
		op := ">"
		if desc {
			op = "<"
		}
		sel = sel.Where("? "+op+" ?", bun.Ident(rowColumn), q.Token.NextRowKey)
	}
	if desc {
		sel = sel.OrderExpr("? DESC", bun.Ident(rowColumn))
	} else {
		sel = sel.OrderExpr("? ASC", bun.Ident(rowColumn))
	}

	if err := sel.Limit(top + 1).Scan(ctx); err != nil {
		return storage.Page[T]{}, err
	}

	page := storage.Page[T]{Items: items}
	if len(items) > top {
		page.Items = items[:top]
		last := page.Items[top-1]
		page.Next = &storage.ContinuationToken{
			NextPartitionKey: last.GetPartitionKey(),
			NextRowKey:       last.GetRowKey(),
		}
	}
	return page, nil
}

func (t *Table[T]) ListPartition(ctx context.Context, partitionKey string) ([]T, error) {
	items := []T{}
	err := t.db.NewSelect().
		Model(&items).
		Where("? = ?", bun.Ident(partitionColumn), partitionKey).
		OrderExpr("? ASC", bun.Ident(rowColumn)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}
