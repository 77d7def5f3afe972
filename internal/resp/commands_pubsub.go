package resp

// registerPubSubCommands wires PUBLISH and the (un)subscribe family (spec
// §4.1, §4.3). Subscription state lives on the connection, so these
// handlers are no-ops when invoked without one (e.g. from the HTTP control
// surface, which has no standing connection to push messages over).
func registerPubSubCommands(t map[string]HandlerFunc) {
	t["PUBLISH"] = cmdPublish
	t["SUBSCRIBE"] = cmdSubscribe
	t["PSUBSCRIBE"] = cmdPSubscribe
	t["UNSUBSCRIBE"] = cmdUnsubscribe
	t["PUNSUBSCRIBE"] = cmdPUnsubscribe
}

func cmdPublish(ctx *Context) Value {
	n := ctx.Engine.Publish(ctx.arg(0), ctx.argBytes(1), ctx.Namespace)
	return Integer(int64(n))
}

// cmdSubscribe implements SUBSCRIBE channel [channel ...], replying with
// one confirmation array per channel as real RESP clients expect.
func cmdSubscribe(ctx *Context) Value {
	if ctx.Conn == nil {
		return Error("ERR SUBSCRIBE is not allowed without a connection context")
	}
	var last Value
	for i := 0; i < ctx.nargs(); i++ {
		channel := ctx.arg(i)
		ctx.Conn.subscribeChannel(ctx.Engine, channel)
		last = Array(BulkString("subscribe"), BulkString(channel), Integer(int64(ctx.Conn.SubscriptionCount())))
		ctx.Conn.Push(last)
	}
	return last
}

func cmdPSubscribe(ctx *Context) Value {
	if ctx.Conn == nil {
		return Error("ERR PSUBSCRIBE is not allowed without a connection context")
	}
	var last Value
	for i := 0; i < ctx.nargs(); i++ {
		pattern := ctx.arg(i)
		ctx.Conn.subscribePattern(ctx.Engine, pattern)
		last = Array(BulkString("psubscribe"), BulkString(pattern), Integer(int64(ctx.Conn.SubscriptionCount())))
		ctx.Conn.Push(last)
	}
	return last
}

func cmdUnsubscribe(ctx *Context) Value {
	if ctx.Conn == nil {
		return Error("ERR UNSUBSCRIBE is not allowed without a connection context")
	}
	if ctx.nargs() == 0 {
		for ch := range ctx.Conn.channels {
			ctx.Conn.unsubscribeChannel(ch)
		}
		return Array(BulkString("unsubscribe"), Nil(), Integer(int64(ctx.Conn.SubscriptionCount())))
	}
	var last Value
	for i := 0; i < ctx.nargs(); i++ {
		channel := ctx.arg(i)
		ctx.Conn.unsubscribeChannel(channel)
		last = Array(BulkString("unsubscribe"), BulkString(channel), Integer(int64(ctx.Conn.SubscriptionCount())))
		ctx.Conn.Push(last)
	}
	return last
}

func cmdPUnsubscribe(ctx *Context) Value {
	if ctx.Conn == nil {
		return Error("ERR PUNSUBSCRIBE is not allowed without a connection context")
	}
	if ctx.nargs() == 0 {
		for p := range ctx.Conn.patterns {
			ctx.Conn.unsubscribePattern(p)
		}
		return Array(BulkString("punsubscribe"), Nil(), Integer(int64(ctx.Conn.SubscriptionCount())))
	}
	var last Value
	for i := 0; i < ctx.nargs(); i++ {
		pattern := ctx.arg(i)
		ctx.Conn.unsubscribePattern(pattern)
		last = Array(BulkString("punsubscribe"), BulkString(pattern), Integer(int64(ctx.Conn.SubscriptionCount())))
		ctx.Conn.Push(last)
	}
	return last
}
