package resp

func registerListCommands(t map[string]HandlerFunc) {
	t["LPUSH"] = cmdLPush
	t["RPUSH"] = cmdRPush
	t["LPOP"] = cmdLPop
	t["RPOP"] = cmdRPop
	t["LLEN"] = cmdLLen
	t["LINDEX"] = cmdLIndex
	t["LSET"] = cmdLSet
	t["LRANGE"] = cmdLRange
	t["LTRIM"] = cmdLTrim
}

func argvTail(ctx *Context, from int) [][]byte {
	out := make([][]byte, 0, ctx.nargs()-from)
	for i := from; i < ctx.nargs(); i++ {
		out = append(out, ctx.argBytes(i))
	}
	return out
}

func cmdLPush(ctx *Context) Value {
	n, err := ctx.Engine.LPush(ctx.Namespace, ctx.arg(0), argvTail(ctx, 1)...)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdRPush(ctx *Context) Value {
	n, err := ctx.Engine.RPush(ctx.Namespace, ctx.arg(0), argvTail(ctx, 1)...)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdLPop(ctx *Context) Value {
	v, ok, err := ctx.Engine.LPop(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkBytes(v)
}

func cmdRPop(ctx *Context) Value {
	v, ok, err := ctx.Engine.RPop(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkBytes(v)
}

func cmdLLen(ctx *Context) Value {
	n, err := ctx.Engine.LLen(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdLIndex(ctx *Context) Value {
	idx, ok := parseInt(ctx.arg(1))
	if !ok {
		return Error("ERR value is not an integer or out of range")
	}
	v, found, err := ctx.Engine.LIndex(ctx.Namespace, ctx.arg(0), int(idx))
	if err != nil {
		return ToValue(err)
	}
	if !found {
		return Nil()
	}
	return BulkBytes(v)
}

func cmdLSet(ctx *Context) Value {
	idx, ok := parseInt(ctx.arg(1))
	if !ok {
		return Error("ERR value is not an integer or out of range")
	}
	if err := ctx.Engine.LSet(ctx.Namespace, ctx.arg(0), int(idx), ctx.argBytes(2)); err != nil {
		return ToValue(err)
	}
	return OK()
}

func cmdLRange(ctx *Context) Value {
	start, ok1 := parseInt(ctx.arg(1))
	stop, ok2 := parseInt(ctx.arg(2))
	if !ok1 || !ok2 {
		return Error("ERR value is not an integer or out of range")
	}
	vals, err := ctx.Engine.LRange(ctx.Namespace, ctx.arg(0), int(start), int(stop))
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, len(vals))
	for i, v := range vals {
		elems[i] = BulkBytes(v)
	}
	return Array(elems...)
}

func cmdLTrim(ctx *Context) Value {
	start, ok1 := parseInt(ctx.arg(1))
	stop, ok2 := parseInt(ctx.arg(2))
	if !ok1 || !ok2 {
		return Error("ERR value is not an integer or out of range")
	}
	if err := ctx.Engine.LTrim(ctx.Namespace, ctx.arg(0), int(start), int(stop)); err != nil {
		return ToValue(err)
	}
	return OK()
}
