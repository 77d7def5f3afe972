package resp

import (
	"strconv"
	"strings"
)

var errorPrefixes = []string{"ERR ", "WRONGTYPE ", "NOAUTH ", "NOPERM "}

// looksLikeError reports whether s begins with one of the conventional
// RESP error prefixes (spec §4.3: "strings that begin with an error
// prefix are encoded as errors").
func looksLikeError(s string) bool {
	for _, p := range errorPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Encode serialises v as RESP wire bytes.
func Encode(v Value) []byte {
	var b []byte
	return appendValue(b, v)
}

func appendValue(b []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		b = append(b, '+')
		b = append(b, v.Str...)
		return append(b, '\r', '\n')
	case KindError:
		b = append(b, '-')
		b = append(b, v.Str...)
		return append(b, '\r', '\n')
	case KindInteger:
		b = append(b, ':')
		b = append(b, strconv.FormatInt(v.Int, 10)...)
		return append(b, '\r', '\n')
	case KindBulkString:
		if v.IsNil {
			return append(b, '$', '-', '1', '\r', '\n')
		}
		b = append(b, '$')
		b = append(b, strconv.Itoa(len(v.Str))...)
		b = append(b, '\r', '\n')
		b = append(b, v.Str...)
		return append(b, '\r', '\n')
	case KindArray:
		b = append(b, '*')
		b = append(b, strconv.Itoa(len(v.Array))...)
		b = append(b, '\r', '\n')
		for _, e := range v.Array {
			b = appendValue(b, e)
		}
		return b
	default:
		return append(b, '$', '-', '1', '\r', '\n')
	}
}

// ReplyForString encodes s as an error if it looks like one (conventional
// RESP error prefix), otherwise as a binary-safe bulk string (spec §4.3).
func ReplyForString(s string) Value {
	if looksLikeError(s) {
		return Error(s)
	}
	return BulkString(s)
}
