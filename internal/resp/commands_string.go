package resp

import (
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

func registerStringCommands(t map[string]HandlerFunc) {
	t["GET"] = cmdGet
	t["SET"] = cmdSet
	t["SETNX"] = cmdSetNX
	t["SETEX"] = cmdSetEX
	t["GETDEL"] = cmdGetDel
	t["APPEND"] = cmdAppend
	t["STRLEN"] = cmdStrlen
	t["GETRANGE"] = cmdGetRange
	t["INCR"] = cmdIncr
	t["INCRBY"] = cmdIncrBy
	t["DECR"] = cmdDecr
	t["DECRBY"] = cmdDecrBy
	t["MGET"] = cmdMGet
	t["MSET"] = cmdMSet
}

func cmdGet(ctx *Context) Value {
	v, ok, err := ctx.Engine.Get(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkBytes(v)
}

// cmdSet implements SET key value [EX seconds] [NX|XX].
func cmdSet(ctx *Context) Value {
	if ctx.nargs() < 2 {
		return Error(ErrUnknownCommand("SET"))
	}
	var opts setOptionsFromArgv
	for i := 2; i < ctx.nargs(); i++ {
		switch strings.ToUpper(ctx.arg(i)) {
		case "EX":
			i++
			secs, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil {
				return Error("ERR value is not an integer or out of range")
			}
			opts.ttl = time.Duration(secs) * time.Second
		case "NX":
			opts.nx = true
		case "XX":
			opts.xx = true
		}
	}

	ok, err := ctx.Engine.Set(ctx.Namespace, ctx.arg(0), ctx.argBytes(1), toEngineSetOptions(opts))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return OK()
}

type setOptionsFromArgv struct {
	ttl    time.Duration
	nx, xx bool
}

func toEngineSetOptions(o setOptionsFromArgv) engine.SetOptions {
	return engine.SetOptions{TTL: o.ttl, NX: o.nx, XX: o.xx}
}

func cmdSetNX(ctx *Context) Value {
	ok, err := ctx.Engine.SetNX(ctx.Namespace, ctx.arg(0), ctx.argBytes(1))
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(ok))
}

func cmdSetEX(ctx *Context) Value {
	secs, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return Error("ERR value is not an integer or out of range")
	}
	_, err = ctx.Engine.SetEX(ctx.Namespace, ctx.arg(0), ctx.argBytes(2), secs)
	if err != nil {
		return ToValue(err)
	}
	return OK()
}

func cmdGetDel(ctx *Context) Value {
	v, ok, err := ctx.Engine.GetDel(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkBytes(v)
}

func cmdAppend(ctx *Context) Value {
	n, err := ctx.Engine.Append(ctx.Namespace, ctx.arg(0), ctx.argBytes(1))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdStrlen(ctx *Context) Value {
	n, err := ctx.Engine.Strlen(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdGetRange(ctx *Context) Value {
	start, err1 := strconv.Atoi(ctx.arg(1))
	end, err2 := strconv.Atoi(ctx.arg(2))
	if err1 != nil || err2 != nil {
		return Error("ERR value is not an integer or out of range")
	}
	v, err := ctx.Engine.GetRange(ctx.Namespace, ctx.arg(0), start, end)
	if err != nil {
		return ToValue(err)
	}
	return BulkBytes(v)
}

func cmdIncr(ctx *Context) Value  { return incrByN(ctx, 0, 1) }
func cmdDecr(ctx *Context) Value  { return incrByN(ctx, 0, -1) }
func cmdIncrBy(ctx *Context) Value { return incrByArg(ctx, 1) }
func cmdDecrBy(ctx *Context) Value { return incrByArg(ctx, -1) }

func incrByN(ctx *Context, argIdx int, by int64) Value {
	n, err := ctx.Engine.IncrBy(ctx.Namespace, ctx.arg(argIdx), by)
	if err != nil {
		return ToValue(err)
	}
	return Integer(n)
}

func incrByArg(ctx *Context, sign int64) Value {
	by, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return Error("ERR value is not an integer or out of range")
	}
	n, err := ctx.Engine.IncrBy(ctx.Namespace, ctx.arg(0), sign*by)
	if err != nil {
		return ToValue(err)
	}
	return Integer(n)
}

func cmdMGet(ctx *Context) Value {
	keys := make([]string, ctx.nargs())
	for i := range keys {
		keys[i] = ctx.arg(i)
	}
	vals, err := ctx.Engine.MGet(ctx.Namespace, keys)
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, len(vals))
	for i, v := range vals {
		if v == nil {
			elems[i] = Nil()
		} else {
			elems[i] = BulkBytes(v)
		}
	}
	return Array(elems...)
}

func cmdMSet(ctx *Context) Value {
	if ctx.nargs()%2 != 0 || ctx.nargs() == 0 {
		return Error("ERR wrong number of arguments for 'mset' command")
	}
	pairs := make(map[string][]byte, ctx.nargs()/2)
	for i := 0; i < ctx.nargs(); i += 2 {
		pairs[ctx.arg(i)] = ctx.argBytes(i + 1)
	}
	if err := ctx.Engine.MSet(ctx.Namespace, pairs); err != nil {
		return ToValue(err)
	}
	return OK()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
