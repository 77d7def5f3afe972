package resp

import "time"

func registerTTLCommands(t map[string]HandlerFunc) {
	t["EXPIRE"] = cmdExpire
	t["EXPIREAT"] = cmdExpireAt
	t["TTL"] = cmdTTL
	t["PTTL"] = cmdPTTL
	t["PERSIST"] = cmdPersist
}

func cmdExpire(ctx *Context) Value {
	secs, ok := parseInt(ctx.arg(1))
	if !ok {
		return Error("ERR value is not an integer or out of range")
	}
	changed, err := ctx.Engine.Expire(ctx.Namespace, ctx.arg(0), time.Duration(secs)*time.Second)
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(changed))
}

func cmdExpireAt(ctx *Context) Value {
	unixSecs, ok := parseInt(ctx.arg(1))
	if !ok {
		return Error("ERR value is not an integer or out of range")
	}
	changed, err := ctx.Engine.ExpireAt(ctx.Namespace, ctx.arg(0), time.Unix(unixSecs, 0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(boolToInt(changed))
}

func cmdTTL(ctx *Context) Value {
	return Integer(ctx.Engine.TTL(ctx.Namespace, ctx.arg(0)))
}

func cmdPTTL(ctx *Context) Value {
	return Integer(ctx.Engine.PTTL(ctx.Namespace, ctx.arg(0)))
}

func cmdPersist(ctx *Context) Value {
	return Integer(boolToInt(ctx.Engine.Persist(ctx.Namespace, ctx.arg(0))))
}
