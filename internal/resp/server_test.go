package resp

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

func startTestServer(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv.Addr = ln.Addr().String()
	ln.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	// Give the listener a moment to bind before dialing.
	for i := 0; i < 50; i++ {
		if c, err := net.Dial("tcp", srv.Addr); err == nil {
			c.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Cleanup(func() {
		_ = srv.Close()
		<-errCh
	})
	return srv.Addr
}

func TestServerRoundTripSetGet(t *testing.T) {
	eng := engine.New(engine.Config{MaxMemoryBytes: 1 << 20, Now: time.Now})
	defer eng.Close()

	srv := &Server{Resolve: func(string) *engine.Engine { return eng }}
	addr := startTestServer(t, srv)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(Encode(Array(BulkString("SET"), BulkString("foo"), BulkString("bar"))))
	require.NoError(t, err)
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", line)

	_, err = conn.Write(Encode(Array(BulkString("GET"), BulkString("foo"))))
	require.NoError(t, err)
	lenLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "$3\r\n", lenLine)
	valLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "bar\r\n", valLine)
}

func TestServerInvokesMutationHook(t *testing.T) {
	eng := engine.New(engine.Config{MaxMemoryBytes: 1 << 20, Now: time.Now})
	defer eng.Close()

	type call struct {
		namespace string
		argv      [][]byte
	}
	calls := make(chan call, 4)

	srv := &Server{
		Resolve: func(string) *engine.Engine { return eng },
		OnMutation: func(namespace string, argv [][]byte) {
			calls <- call{namespace: namespace, argv: argv}
		},
	}
	addr := startTestServer(t, srv)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(Encode(Array(BulkString("SET"), BulkString("k"), BulkString("v"))))
	require.NoError(t, err)
	reader := bufio.NewReader(conn)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	select {
	case c := <-calls:
		assert.Equal(t, "default", c.namespace)
		require.Len(t, c.argv, 3)
		assert.Equal(t, "SET", string(c.argv[0]))
	case <-time.After(time.Second):
		t.Fatal("mutation hook was not invoked")
	}

	_, err = conn.Write(Encode(Array(BulkString("GET"), BulkString("k"))))
	require.NoError(t, err)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	select {
	case c := <-calls:
		t.Fatalf("mutation hook unexpectedly invoked for a read: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIsMutatingCommand(t *testing.T) {
	assert.True(t, IsMutatingCommand("set"))
	assert.True(t, IsMutatingCommand("ZADD"))
	assert.False(t, IsMutatingCommand("GET"))
	assert.False(t, IsMutatingCommand("HDEL"))
}
