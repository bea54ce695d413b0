// Package pagination encodes list cursors into opaque continuation tokens.
//
// Two kinds of cursor share the same shape. Offset cursors, used when a list
// is paged in memory, carry the stringified offset in both markers. Native
// cursors carry whatever markers the backing store returned and are never
// interpreted here.
package pagination

import (
	"encoding/base64"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-hackathon-store/storage"
)

// DefaultPageSize applies when a request does not set a positive page size.
const DefaultPageSize = 100

// Cursor is the decoded form of a continuation token.
type Cursor struct {
	PartitionMarker string `msgpack:"np"`
	RowMarker       string `msgpack:"nr"`
	PageSize        int    `msgpack:"top"`
}

// DefaultCursor is the first page with the default page size.
func DefaultCursor() Cursor {
	return Cursor{PageSize: DefaultPageSize}
}

// Normalize replaces a non-positive page size with the default.
func (c Cursor) Normalize() Cursor {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	return c
}

// IsFirst reports whether the cursor points at the first page.
func (c Cursor) IsFirst() bool {
	return c.PartitionMarker == "" && c.RowMarker == ""
}

// Encode serializes a cursor into a url safe token.
func Encode(c Cursor) string {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a token produced by Encode. Blank or malformed tokens yield
// the default cursor, a non-positive page size yields the default size.
func Decode(token string) Cursor {
	if token == "" {
		return DefaultCursor()
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return DefaultCursor()
	}
	var c Cursor
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return DefaultCursor()
	}
	return c.Normalize()
}

// OffsetCursor builds the cursor of an in-memory page starting at offset.
func OffsetCursor(offset, pageSize int) Cursor {
	marker := strconv.Itoa(offset)
	return Cursor{PartitionMarker: marker, RowMarker: marker, PageSize: pageSize}.Normalize()
}

// Offset parses the partition marker as an offset. Anything that is not a
// non-negative integer reads as 0.
func (c Cursor) Offset() int {
	n, err := strconv.Atoi(c.PartitionMarker)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// HasMore reports whether another page follows the one at offset.
func HasMore(offset, pageSize, total int) bool {
	return offset+pageSize < total
}

// FromToken wraps a native store token into a cursor. A nil token yields
// the first page.
func FromToken(token *storage.ContinuationToken, pageSize int) Cursor {
	c := Cursor{PageSize: pageSize}
	if token != nil {
		c.PartitionMarker = token.NextPartitionKey
		c.RowMarker = token.NextRowKey
	}
	return c.Normalize()
}

// Token returns the native store token carried by the cursor, nil for the
// first page.
func (c Cursor) Token() *storage.ContinuationToken {
	if c.IsFirst() {
		return nil
	}
	return &storage.ContinuationToken{
		NextPartitionKey: c.PartitionMarker,
		NextRowKey:       c.RowMarker,
	}
}
