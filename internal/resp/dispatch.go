package resp

import (
	"strings"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

// HandlerFunc executes one command against the engine and produces its
// RESP reply. It never panics on malformed client input (spec §6).
type HandlerFunc func(ctx *Context) Value

// Context is everything a handler needs: the engine, the namespace the
// command targets, the raw argv (name at Argv[0]), and — for RESP
// connections only — the originating Conn (nil when dispatched from the
// HTTP control surface, per spec §6's "callable with (engine, namespace,
// command, args)").
type Context struct {
	Engine    *engine.Engine
	Namespace string
	Argv      [][]byte
	Conn      *Conn
}

func (c *Context) name() string { return strings.ToUpper(string(c.Argv[0])) }
func (c *Context) nargs() int   { return len(c.Argv) - 1 }
func (c *Context) arg(i int) string {
	if i+1 >= len(c.Argv) {
		return ""
	}
	return string(c.Argv[i+1])
}
func (c *Context) argBytes(i int) []byte {
	if i+1 >= len(c.Argv) {
		return nil
	}
	return c.Argv[i+1]
}

var table map[string]HandlerFunc

func init() {
	table = map[string]HandlerFunc{}
	registerStringCommands(table)
	registerHashCommands(table)
	registerListCommands(table)
	registerSetCommands(table)
	registerZSetCommands(table)
	registerStreamCommands(table)
	registerKeyCommands(table)
	registerTTLCommands(table)
	registerPubSubCommands(table)
	registerConnCommands(table)
}

// Execute resolves argv[0] in the dispatch table and runs it. Namespace
// resolution is the caller's responsibility. AUTH gating happens here and
// applies only to calls that carry a Conn; calls without one (the HTTP
// control surface) are not gated by AUTH.
func Execute(ctx *Context) Value {
	if len(ctx.Argv) == 0 {
		return Error(ErrUnknownCommand(""))
	}
	name := ctx.name()
	if authConfigured() && ctx.Conn != nil && !ctx.Conn.Authenticated && name != "AUTH" && name != "PING" {
		return Error(ErrNoAuth)
	}
	h, ok := table[name]
	if !ok {
		return Error(ErrUnknownCommand(name))
	}
	return h(ctx)
}
