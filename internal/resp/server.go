package resp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/internal/engine"
)

// EngineResolver maps a namespace name to the Engine that owns it, mirroring
// the provisioning manager's namespace-to-engine dispatch (spec §4.8). The
// default namespace is expected to resolve to the shared engine.
type EngineResolver func(namespace string) *engine.Engine

// MutationHook observes a successful mutating command (spec §4.7/§4.5's
// "on mutation, append to the log and replicate"). It is invoked after the
// engine call has already applied the mutation.
type MutationHook func(namespace string, argv [][]byte)

// Server is the RESP TCP listener: it accepts connections, feeds bytes
// through the streaming Parser, executes each command against the resolved
// namespace's engine, and writes the encoded reply back (spec §4.3, §6).
type Server struct {
	Addr             string
	DefaultNamespace string
	Resolve          EngineResolver
	OnMutation       MutationHook
	Logger           *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// mutatingCommands names the argv[0] values the append-only log and
// replication manager know how to record: exactly spec §4.7's "every
// successful set, del, expire, hset, lpush, rpush, sadd, zadd". Other
// mutating commands (hdel, lpop, srem, ...) still apply against
// the engine normally; they are simply outside the log/replication op set,
// same as xadd (spec §4.7's compaction rule already excludes streams).
var mutatingCommands = map[string]bool{
	"SET": true, "DEL": true, "EXPIRE": true,
	"HSET": true, "LPUSH": true, "RPUSH": true, "SADD": true, "ZADD": true,
}

// IsMutatingCommand reports whether name (case-insensitive) is one of the
// append-only-log/replication-eligible commands, so other transports (the
// HTTP control surface's /cache/command and /cache/pipeline) can apply the
// same log/replicate-after-dispatch rule the RESP listener uses.
func IsMutatingCommand(name string) bool {
	return mutatingCommands[strings.ToUpper(name)]
}

// ListenAndServe binds Addr and accepts connections until Close is called
// or the listener otherwise errors.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.closedSignal():
				return nil
			default:
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) closedSignal() <-chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	if s.listener == nil {
		close(ch)
	}
	s.mu.Unlock()
	return ch
}

// Close stops accepting new connections. In-flight connections drain on
// their own (each returns once its peer disconnects).
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

// Shutdown waits (bounded by ctx) for in-flight connections to finish after Close.
func (s *Server) Shutdown(ctx context.Context) error {
	_ = s.Close()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serveConn(netConn net.Conn) {
	defer netConn.Close()

	namespace := s.DefaultNamespace
	if namespace == "" {
		namespace = "default"
	}
	conn := NewConn(netConn, namespace)
	defer conn.Close()

	reader := bufio.NewReaderSize(netConn, 4096)
	buf := make([]byte, 4096)

	for {
		cmd, err := conn.Parser.Parse()
		if err == nil {
			s.handle(conn, cmd)
			continue
		}
		if err != Incomplete {
			conn.Push(Error("ERR Protocol error: " + err.Error()))
			return
		}
		n, readErr := reader.Read(buf)
		if n > 0 {
			conn.Parser.Feed(buf[:n])
		}
		if readErr != nil {
			return
		}
	}
}

func (s *Server) handle(conn *Conn, cmd *Command) {
	if cmd == nil || len(cmd.Argv) == 0 {
		return
	}
	eng := s.engineFor(conn.Namespace)
	ctx := &Context{Engine: eng, Namespace: conn.Namespace, Argv: cmd.Argv, Conn: conn}
	reply := Execute(ctx)
	name := ctx.name()
	// The (p)(un)subscribe handlers push one confirmation per named channel
	// themselves and return the last one; pushing it here again would
	// confirm that channel twice.
	selfPushed := false
	switch name {
	case "SUBSCRIBE", "PSUBSCRIBE", "UNSUBSCRIBE", "PUNSUBSCRIBE":
		selfPushed = len(cmd.Argv) > 1 && reply.Kind != KindError
	}
	if !selfPushed {
		if err := conn.Push(reply); err != nil && s.Logger != nil {
			s.Logger.Warn(context.Background(), "write reply failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if reply.Kind != KindError && s.OnMutation != nil {
		if mutatingCommands[name] {
			s.OnMutation(conn.Namespace, cmd.Argv)
		}
	}
}

func (s *Server) engineFor(namespace string) *engine.Engine {
	if s.Resolve != nil {
		if eng := s.Resolve(namespace); eng != nil {
			return eng
		}
	}
	return nil
}
