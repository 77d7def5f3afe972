package resp

func registerKeyCommands(t map[string]HandlerFunc) {
	t["TYPE"] = cmdType
	t["RENAME"] = cmdRename
	t["EXISTS"] = cmdExists
	t["DEL"] = cmdDel
	t["KEYS"] = cmdKeys
	t["SCAN"] = cmdScan
}

func cmdType(ctx *Context) Value {
	return SimpleString(ctx.Engine.Type(ctx.Namespace, ctx.arg(0)))
}

func cmdRename(ctx *Context) Value {
	if err := ctx.Engine.Rename(ctx.Namespace, ctx.arg(0), ctx.arg(1)); err != nil {
		return ToValue(err)
	}
	return OK()
}

func cmdExists(ctx *Context) Value {
	return Integer(int64(ctx.Engine.Exists(ctx.Namespace, argvTailStr(ctx, 0))))
}

func cmdDel(ctx *Context) Value {
	return Integer(int64(ctx.Engine.Del(ctx.Namespace, argvTailStr(ctx, 0))))
}

func cmdKeys(ctx *Context) Value {
	keys := ctx.Engine.Keys(ctx.Namespace, ctx.arg(0))
	elems := make([]Value, len(keys))
	for i, k := range keys {
		elems[i] = BulkString(k)
	}
	return Array(elems...)
}

// cmdScan implements SCAN cursor [MATCH pattern] [COUNT count].
func cmdScan(ctx *Context) Value {
	cursor, ok := parseUint(ctx.arg(0))
	if !ok {
		return Error("ERR invalid cursor")
	}
	pattern := ""
	count := 0
	for i := 1; i < ctx.nargs(); i += 2 {
		switch upperArg(ctx, i) {
		case "MATCH":
			pattern = ctx.arg(i + 1)
		case "COUNT":
			count, _ = parseIntAsInt(ctx.arg(i + 1))
		}
	}

	keys, next := ctx.Engine.Scan(ctx.Namespace, cursor, pattern, count)
	elems := make([]Value, len(keys))
	for i, k := range keys {
		elems[i] = BulkString(k)
	}
	return Array(BulkString(formatCursor(next)), Array(elems...))
}
