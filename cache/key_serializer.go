package cache

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "-"

// Entry kinds used as the first key segment.
const (
	KindEnrollment     = "Enrollment"
	KindTeamWork       = "TeamWork"
	KindHackathonAdmin = "HackathonAdmin"
)

// defaultKeySerializer renders scalar args verbatim and hashes everything
// else, so keys stay short and stable across processes.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a key such as "Enrollment-hack" from a kind and args.
func (s *defaultKeySerializer) SerializeKey(kind string, args ...any) string {
	if len(args) == 0 {
		return kind
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, kind)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Func, reflect.Chan:
		// Only stable within one process.
		return fmt.Sprintf("%s:%p", rv.Kind(), v)
	}
	return s.digest(v)
}

// digest hashes the msgpack encoding of a composite value. Map keys are
// sorted by the encoder so equal maps produce equal digests.
func (s *defaultKeySerializer) digest(v any) string {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf strings.Builder
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "h" + strconv.FormatUint(xxhash.Sum64String(buf.String()), 16)
}
