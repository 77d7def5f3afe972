package resp

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// authPasswordHash gates AUTH when non-empty. Set via SetAuthPassword from
// the listener's configuration; empty means the server runs unauthenticated
// (spec §4.3: auth is optional, off by default). The password is bcrypt-hashed
// at configuration time rather than compared as plaintext.
var authPasswordHash []byte

// authConfigured reports whether an AUTH password has been set.
func authConfigured() bool { return len(authPasswordHash) > 0 }

// SetAuthPassword configures the password AUTH must match, storing a bcrypt
// hash of it. Passing "" disables the requirement.
func SetAuthPassword(p string) {
	if p == "" {
		authPasswordHash = nil
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on an oversized password; fail closed by
		// leaving auth unset rather than panicking on client-adjacent input.
		authPasswordHash = nil
		return
	}
	authPasswordHash = hash
}

func registerConnCommands(t map[string]HandlerFunc) {
	t["PING"] = cmdPing
	t["AUTH"] = cmdAuth
	t["SELECT"] = cmdSelect
	t["CLIENT"] = cmdClient
	t["CONFIG"] = cmdConfig
	t["INFO"] = cmdInfo
	t["TIME"] = cmdTime
	t["ECHO"] = cmdEcho
	t["QUIT"] = cmdQuit
	t["COMMAND"] = cmdCommand
	t["DEBUG"] = cmdDebug
}

func cmdPing(ctx *Context) Value {
	if ctx.nargs() >= 1 {
		return BulkString(ctx.arg(0))
	}
	return SimpleString("PONG")
}

func cmdAuth(ctx *Context) Value {
	if ctx.nargs() < 1 {
		return Error("ERR wrong number of arguments for 'auth' command")
	}
	if !authConfigured() {
		return Error("ERR Client sent AUTH, but no password is set")
	}
	if bcrypt.CompareHashAndPassword(authPasswordHash, []byte(ctx.arg(0))) != nil {
		return Error("ERR invalid password")
	}
	if ctx.Conn != nil {
		ctx.Conn.Authenticated = true
	}
	return OK()
}

func cmdSelect(ctx *Context) Value {
	return OK()
}

func cmdClient(ctx *Context) Value {
	if ctx.nargs() >= 1 && upperArg(ctx, 0) == "GETNAME" {
		return BulkString("")
	}
	return OK()
}

func cmdConfig(ctx *Context) Value {
	if ctx.nargs() >= 1 && upperArg(ctx, 0) == "GET" {
		return Array()
	}
	return OK()
}

func cmdInfo(ctx *Context) Value {
	stats := ctx.Engine.Snapshot()
	body := fmt.Sprintf(
		"# Server\r\ncachegrid_version:1.0.0\r\nuptime_in_seconds:%.0f\r\n# Keyspace\r\nnamespaces:%d\r\nkeys:%d\r\nused_memory:%d\r\n",
		stats.UptimeSeconds, stats.NamespaceCount, stats.TotalKeys, stats.UsedBytes,
	)
	return BulkString(body)
}

func cmdTime(ctx *Context) Value {
	now := time.Now()
	return Array(
		BulkString(fmt.Sprintf("%d", now.Unix())),
		BulkString(fmt.Sprintf("%d", now.Nanosecond()/1000)),
	)
}

func cmdEcho(ctx *Context) Value {
	return BulkString(ctx.arg(0))
}

func cmdQuit(ctx *Context) Value {
	return OK()
}

func cmdCommand(ctx *Context) Value {
	return Array()
}

func cmdDebug(ctx *Context) Value {
	return OK()
}
