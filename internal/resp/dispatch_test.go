package resp

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

func newTestEngine() *engine.Engine {
	return engine.New(engine.Config{MaxMemoryBytes: 1 << 20, Now: time.Now})
}

func execArgv(eng *engine.Engine, conn *Conn, argv ...string) Value {
	a := make([][]byte, len(argv))
	for i, s := range argv {
		a[i] = []byte(s)
	}
	return Execute(&Context{Engine: eng, Namespace: "default", Argv: a, Conn: conn})
}

func TestDispatchSetGet(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()

	reply := execArgv(eng, nil, "SET", "foo", "bar")
	assert.Equal(t, OK(), reply)

	reply = execArgv(eng, nil, "GET", "foo")
	assert.Equal(t, BulkString("bar"), reply)
}

func TestDispatchUnknownCommand(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()

	reply := execArgv(eng, nil, "FROBNICATE", "x")
	require.Equal(t, KindError, reply.Kind)
	assert.Contains(t, reply.Str, "unknown command")
}

func TestDispatchWrongType(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()

	execArgv(eng, nil, "SET", "foo", "bar")
	reply := execArgv(eng, nil, "LPUSH", "foo", "x")
	require.Equal(t, KindError, reply.Kind)
	assert.Contains(t, reply.Str, "WRONGTYPE")
}

func TestDispatchPingAndEcho(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()

	assert.Equal(t, SimpleString("PONG"), execArgv(eng, nil, "PING"))
	assert.Equal(t, BulkString("hi"), execArgv(eng, nil, "ECHO", "hi"))
}

func TestDispatchAuthGating(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()
	SetAuthPassword("s3cret")
	defer SetAuthPassword("")

	var buf bytes.Buffer
	conn := NewConn(&buf, "default")

	reply := execArgv(eng, conn, "GET", "foo")
	require.Equal(t, KindError, reply.Kind)
	assert.Equal(t, ErrNoAuth, reply.Str)

	assert.Equal(t, SimpleString("PONG"), execArgv(eng, conn, "PING"))

	reply = execArgv(eng, conn, "AUTH", "wrong")
	require.Equal(t, KindError, reply.Kind)
	assert.False(t, conn.Authenticated)

	reply = execArgv(eng, conn, "AUTH", "s3cret")
	assert.Equal(t, OK(), reply)
	assert.True(t, conn.Authenticated)

	reply = execArgv(eng, conn, "GET", "foo")
	assert.Equal(t, Nil(), reply)
}

func TestDispatchSubscribePublishPush(t *testing.T) {
	eng := newTestEngine()
	defer eng.Close()

	var buf bytes.Buffer
	conn := NewConn(&buf, "default")

	reply := execArgv(eng, conn, "SUBSCRIBE", "news")
	require.Equal(t, KindArray, reply.Kind)
	assert.Equal(t, "subscribe", reply.Array[0].Str)
	assert.Equal(t, int64(1), reply.Array[2].Int)
	buf.Reset() // discard the subscribe confirmation push

	n := eng.Publish("news", []byte("hello"), "publisher")
	assert.Equal(t, 1, n)

	var p Parser
	p.Feed(buf.Bytes())
	cmd, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, cmd.Argv, 3)
	assert.Equal(t, "message", string(cmd.Argv[0]))
	assert.Equal(t, "news", string(cmd.Argv[1]))
	assert.Equal(t, "hello", string(cmd.Argv[2]))

	conn.Close()
	assert.Equal(t, 0, conn.SubscriptionCount())
}
