package resp

import (
	"strings"

	"github.com/R3E-Network/cachegrid/internal/values"
)

func registerZSetCommands(t map[string]HandlerFunc) {
	t["ZADD"] = cmdZAdd
	t["ZRANGE"] = cmdZRange
	t["ZREVRANGE"] = cmdZRevRange
	t["ZRANGEBYSCORE"] = cmdZRangeByScore
	t["ZSCORE"] = cmdZScore
	t["ZCARD"] = cmdZCard
	t["ZREM"] = cmdZRem
}

func cmdZAdd(ctx *Context) Value {
	members := make(map[string]float64)
	for i := 1; i < ctx.nargs(); i += 2 {
		score, ok := parseFloat(ctx.arg(i))
		if !ok {
			return Error("ERR value is not a valid float")
		}
		members[ctx.arg(i+1)] = score
	}
	n, err := ctx.Engine.ZAdd(ctx.Namespace, ctx.arg(0), members)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func zentriesToValue(entries []values.ZEntry, withScores bool) Value {
	elems := make([]Value, 0, len(entries)*2)
	for _, e := range entries {
		elems = append(elems, BulkString(e.Member))
		if withScores {
			elems = append(elems, BulkString(formatScore(e.Score)))
		}
	}
	return Array(elems...)
}

func hasWithScores(ctx *Context, from int) bool {
	return from < ctx.nargs() && strings.ToUpper(ctx.arg(from)) == "WITHSCORES"
}

func cmdZRange(ctx *Context) Value {
	start, ok1 := parseInt(ctx.arg(1))
	stop, ok2 := parseInt(ctx.arg(2))
	if !ok1 || !ok2 {
		return Error("ERR value is not an integer or out of range")
	}
	entries, err := ctx.Engine.ZRange(ctx.Namespace, ctx.arg(0), int(start), int(stop))
	if err != nil {
		return ToValue(err)
	}
	return zentriesToValue(entries, hasWithScores(ctx, 3))
}

func cmdZRevRange(ctx *Context) Value {
	start, ok1 := parseInt(ctx.arg(1))
	stop, ok2 := parseInt(ctx.arg(2))
	if !ok1 || !ok2 {
		return Error("ERR value is not an integer or out of range")
	}
	entries, err := ctx.Engine.ZRevRange(ctx.Namespace, ctx.arg(0), int(start), int(stop))
	if err != nil {
		return ToValue(err)
	}
	return zentriesToValue(entries, hasWithScores(ctx, 3))
}

func parseScoreBound(s string) (float64, bool) {
	switch s {
	case "-inf":
		return values.NegInf, true
	case "+inf", "inf":
		return values.PosInf, true
	default:
		return parseFloat(s)
	}
}

func cmdZRangeByScore(ctx *Context) Value {
	min, ok1 := parseScoreBound(ctx.arg(1))
	max, ok2 := parseScoreBound(ctx.arg(2))
	if !ok1 || !ok2 {
		return Error("ERR min or max is not a float")
	}
	entries, err := ctx.Engine.ZRangeByScore(ctx.Namespace, ctx.arg(0), min, max)
	if err != nil {
		return ToValue(err)
	}
	return zentriesToValue(entries, hasWithScores(ctx, 3))
}

func cmdZScore(ctx *Context) Value {
	score, ok, err := ctx.Engine.ZScore(ctx.Namespace, ctx.arg(0), ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkString(formatScore(score))
}

func cmdZCard(ctx *Context) Value {
	n, err := ctx.Engine.ZCard(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdZRem(ctx *Context) Value {
	ok, err := ctx.Engine.ZRem(ctx.Namespace, ctx.arg(0), ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(ok))
}
