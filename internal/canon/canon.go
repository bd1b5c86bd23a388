// Package canon produces a deterministic byte representation of a
// params map so the cache (component D) can key on request shape
// independent of the key order a JSON decoder happened to produce.
package canon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Encode renders v as JSON with object keys sorted at every depth. It
// never fails: unsupported types are rendered via fmt.Sprintf("%v", ...)
// as a quoted string, since canon output is used for hashing/equality,
// not for wire transmission.
func Encode(v any) string {
	var b strings.Builder
	encode(&b, v)
	return b.String()
}

// Key builds the cache key for a (method, params) pair per §4.D:
// method name concatenated with the canonical encoding of its params.
func Key(method string, params map[string]any) string {
	return method + "\x00" + Encode(params)
}

func encode(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case string:
		encodeString(b, t)
	case map[string]any:
		encodeObject(b, t)
	case []any:
		encodeArray(b, t)
	default:
		encodeString(b, fmt.Sprintf("%v", t))
	}
}

func encodeObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, k)
		b.WriteByte(':')
		encode(b, m[k])
	}
	b.WriteByte('}')
}

func encodeArray(b *strings.Builder, a []any) {
	b.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		encode(b, v)
	}
	b.WriteByte(']')
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
