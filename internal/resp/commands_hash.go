package resp

func registerHashCommands(t map[string]HandlerFunc) {
	t["HGET"] = cmdHGet
	t["HSET"] = cmdHSet
	t["HMSET"] = cmdHMSet
	t["HMGET"] = cmdHMGet
	t["HGETALL"] = cmdHGetAll
	t["HDEL"] = cmdHDel
	t["HEXISTS"] = cmdHExists
	t["HLEN"] = cmdHLen
	t["HKEYS"] = cmdHKeys
	t["HVALS"] = cmdHVals
	t["HINCRBY"] = cmdHIncrBy
}

func cmdHGet(ctx *Context) Value {
	v, ok, err := ctx.Engine.HGet(ctx.Namespace, ctx.arg(0), ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkBytes(v)
}

func cmdHSet(ctx *Context) Value {
	n, err := ctx.Engine.HSet(ctx.Namespace, ctx.arg(0), ctx.arg(1), ctx.argBytes(2))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdHMSet(ctx *Context) Value {
	fields := make(map[string][]byte)
	for i := 1; i < ctx.nargs(); i += 2 {
		fields[ctx.arg(i)] = ctx.argBytes(i + 1)
	}
	if err := ctx.Engine.HMSet(ctx.Namespace, ctx.arg(0), fields); err != nil {
		return ToValue(err)
	}
	return OK()
}

func cmdHMGet(ctx *Context) Value {
	fields := make([]string, ctx.nargs()-1)
	for i := range fields {
		fields[i] = ctx.arg(i + 1)
	}
	vals, err := ctx.Engine.HMGet(ctx.Namespace, ctx.arg(0), fields)
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

func cmdHGetAll(ctx *Context) Value {
	h, err := ctx.Engine.HGetAll(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, 0, len(h)*2)
	for f, v := range h {
		elems = append(elems, BulkString(f), BulkBytes(v))
	}
	return Array(elems...)
}

func cmdHDel(ctx *Context) Value {
	fields := make([]string, ctx.nargs()-1)
	for i := range fields {
		fields[i] = ctx.arg(i + 1)
	}
	n, err := ctx.Engine.HDel(ctx.Namespace, ctx.arg(0), fields)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdHExists(ctx *Context) Value {
	ok, err := ctx.Engine.HExists(ctx.Namespace, ctx.arg(0), ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(ok))
}

func cmdHLen(ctx *Context) Value {
	n, err := ctx.Engine.HLen(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdHKeys(ctx *Context) Value {
	keys, err := ctx.Engine.HKeys(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, len(keys))
	for i, k := range keys {
		elems[i] = BulkString(k)
	}
	return Array(elems...)
}

func cmdHVals(ctx *Context) Value {
	vals, err := ctx.Engine.HVals(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, len(vals))
	for i, v := range vals {
		elems[i] = BulkBytes(v)
	}
	return Array(elems...)
}

func cmdHIncrBy(ctx *Context) Value {
	by, ok := parseInt(ctx.arg(2))
	if !ok {
		return Error("ERR value is not an integer or out of range")
	}
	n, err := ctx.Engine.HIncrBy(ctx.Namespace, ctx.arg(0), ctx.arg(1), by)
	if err != nil {
		return ToValue(err)
	}
	return Integer(n)
}
