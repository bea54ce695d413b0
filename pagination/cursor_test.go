package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-hackathon-store/storage"
)

func TestEncodeDecode(t *testing.T) {
	cursors := []Cursor{
		{PageSize: 10},
		{PartitionMarker: "hack", RowMarker: "user-07", PageSize: 25},
		OffsetCursor(40, 20),
	}
	for _, c := range cursors {
		token := Encode(c)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.Equal(t, c, Decode(token))
	}
}

func TestDecode_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"blank", ""},
		{"not base64", "%%%"},
		{"not msgpack", base64.RawURLEncoding.EncodeToString([]byte{0xc1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultCursor(), Decode(tt.token))
		})
	}

	c := Decode(Encode(Cursor{RowMarker: "x", PageSize: -3}))
	assert.Equal(t, DefaultPageSize, c.PageSize)
	assert.Equal(t, "x", c.RowMarker)
}

func TestOffsetCursor(t *testing.T) {
	c := OffsetCursor(15, 0)
	assert.Equal(t, "15", c.PartitionMarker)
	assert.Equal(t, "15", c.RowMarker)
	assert.Equal(t, DefaultPageSize, c.PageSize)
	assert.Equal(t, 15, c.Offset())

	assert.Equal(t, 0, Cursor{PartitionMarker: "abc"}.Offset())
	assert.Equal(t, 0, Cursor{PartitionMarker: "-4"}.Offset())
	assert.Equal(t, 0, DefaultCursor().Offset())
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(0, 5, 12))
	assert.True(t, HasMore(5, 5, 12))
	assert.False(t, HasMore(10, 5, 12))
	assert.False(t, HasMore(0, 5, 5))
	assert.False(t, HasMore(0, 5, 0))
}

func TestTokenAdapters(t *testing.T) {
	assert.Nil(t, DefaultCursor().Token())

	c := FromToken(nil, 7)
	assert.True(t, c.IsFirst())
	assert.Equal(t, 7, c.PageSize)

	native := &storage.ContinuationToken{NextPartitionKey: "opaque-p", NextRowKey: "opaque-r"}
	c = FromToken(native, 0)
	assert.Equal(t, DefaultPageSize, c.PageSize)
	require.NotNil(t, c.Token())
	assert.Equal(t, *native, *c.Token())
	assert.Equal(t, *native, *Decode(Encode(c)).Token())
}
