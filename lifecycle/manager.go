package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/pagination"
	"github.com/goliatone/go-hackathon-store/storage"
)

// ListOptions are the options recognized by every list call. Token is the
// opaque cursor of a previous page, PageSize overrides the page size carried
// by the token when positive.
type ListOptions struct {
	Token      string
	PageSize   int
	Conditions []storage.Condition
}

// Cursor decodes the options into a cursor. Malformed tokens fall back to the
// first page.
func (o ListOptions) Cursor() pagination.Cursor {
	c := pagination.Decode(o.Token)
	if o.PageSize > 0 {
		c.PageSize = o.PageSize
	}
	return c
}

// Manager holds the key based operations shared by every entity kind.
type Manager[T Record] struct {
	table  storage.Table[T]
	pager  Pager[T]
	logger *slog.Logger
}

// NewManager creates a manager over table listing through pager.
func NewManager[T Record](table storage.Table[T], pager Pager[T], logger *slog.Logger) *Manager[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[T]{table: table, pager: pager, logger: logger}
}

// Table returns the table the manager writes through.
func (m *Manager[T]) Table() storage.Table[T] {
	return m.table
}

// Get reads one record directly from the table. Blank keys and missing
// records return nil without an error.
func (m *Manager[T]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	if isBlank(partitionKey) || isBlank(rowKey) {
		return nil, nil
	}
	rec, err := m.table.Retrieve(ctx, partitionKey, rowKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "lifecycle: retrieve record")
	}
	return &rec, nil
}

// Delete removes one record. Blank keys are a no-op.
func (m *Manager[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	if isBlank(partitionKey) || isBlank(rowKey) {
		return nil
	}
	if err := m.table.Delete(ctx, partitionKey, rowKey); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "lifecycle: delete record")
	}
	m.logger.Debug("record deleted", "partitionKey", partitionKey, "rowKey", rowKey)
	return nil
}

// List returns one page of a partition. A blank partition key returns an
// empty page without touching the store.
func (m *Manager[T]) List(ctx context.Context, partitionKey string, opts ListOptions) (Page[T], error) {
	if isBlank(partitionKey) {
		return Page[T]{Items: []T{}}, nil
	}
	page, err := m.pager.Page(ctx, partitionKey, opts.Cursor(), opts.Conditions)
	if err != nil {
		return Page[T]{}, goerrors.Wrap(err, goerrors.CategoryExternal, "lifecycle: list records")
	}
	return page, nil
}

// ListAll returns the whole partition through the table.
func (m *Manager[T]) ListAll(ctx context.Context, partitionKey string) ([]T, error) {
	if isBlank(partitionKey) {
		return []T{}, nil
	}
	records, err := m.table.ListPartition(ctx, partitionKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "lifecycle: list partition")
	}
	return records, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
