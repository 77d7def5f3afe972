package resp

func registerSetCommands(t map[string]HandlerFunc) {
	t["SADD"] = cmdSAdd
	t["SREM"] = cmdSRem
	t["SMEMBERS"] = cmdSMembers
	t["SISMEMBER"] = cmdSIsMember
	t["SCARD"] = cmdSCard
	t["SPOP"] = cmdSPop
	t["SRANDMEMBER"] = cmdSRandMember
}

func argvTailStr(ctx *Context, from int) []string {
	out := make([]string, 0, ctx.nargs()-from)
	for i := from; i < ctx.nargs(); i++ {
		out = append(out, ctx.arg(i))
	}
	return out
}

func cmdSAdd(ctx *Context) Value {
	n, err := ctx.Engine.SAdd(ctx.Namespace, ctx.arg(0), argvTailStr(ctx, 1)...)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdSRem(ctx *Context) Value {
	n, err := ctx.Engine.SRem(ctx.Namespace, ctx.arg(0), argvTailStr(ctx, 1)...)
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdSMembers(ctx *Context) Value {
	members, err := ctx.Engine.SMembers(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	elems := make([]Value, len(members))
	for i, m := range members {
		elems[i] = BulkString(m)
	}
	return Array(elems...)
}

func cmdSIsMember(ctx *Context) Value {
	ok, err := ctx.Engine.SIsMember(ctx.Namespace, ctx.arg(0), ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(ok))
}

func cmdSCard(ctx *Context) Value {
	n, err := ctx.Engine.SCard(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func cmdSPop(ctx *Context) Value {
	m, ok, err := ctx.Engine.SPop(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkString(m)
}

func cmdSRandMember(ctx *Context) Value {
	m, ok, err := ctx.Engine.SRandMember(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	if !ok {
		return Nil()
	}
	return BulkString(m)
}
