package resp

import (
	"strconv"
	"strings"
)

// parseInt parses s as a base-10 signed integer, reporting ok=false on
// malformed input so callers can produce a consistent RESP error.
func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// formatScore renders a sorted-set score the way Redis clients expect:
// integral scores print without a decimal point.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseUint(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatCursor(c uint64) string {
	return strconv.FormatUint(c, 10)
}

func upperArg(ctx *Context, i int) string {
	return strings.ToUpper(ctx.arg(i))
}
