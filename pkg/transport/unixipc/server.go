package unixipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/transport"
)

// Server listens on a Unix socket, decoding one Request per accepted
// connection and executing it against a shared orchestrator and log.
// Server itself also satisfies transport.Transport: an in-process caller
// (the process hosting the socket) talks to the orchestrator directly
// rather than dialing its own socket.
type Server struct {
	path     string
	orch     *orchestrator.Orchestrator
	log      *ledger.Log
	bus      *transport.Broadcaster
	listener net.Listener
}

// NewServer builds a Server bound to an orchestrator/log pair, with no
// socket opened yet — call ListenAndServe to bind and accept.
func NewServer(path string, orch *orchestrator.Orchestrator, log *ledger.Log, depth int) *Server {
	return &Server{path: path, orch: orch, log: log, bus: transport.NewBroadcaster(depth)}
}

// ListenAndServe unlinks any stale socket at path, binds, and accepts
// connections until ctx is canceled or Close is called. One goroutine per
// accepted connection, matching the spec's "spawns one task per accepted
// connection".
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.path)
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return &transport.TransportError{Cause: err}
	}
	s.listener = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &transport.TransportError{Cause: err}
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var req Request
	if err := readFrame(conn, &req); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Warn("unixipc: malformed request frame", "error", err)
		}
		return
	}

	switch req.Kind {
	case RequestAppend:
		s.handleAppend(conn, req.Envelope)
	case RequestRead:
		s.handleRead(conn, req.Offset, req.Limit)
	case RequestSubscribe:
		s.handleSubscribe(conn)
	default:
		_ = writeFrame(conn, Response{Kind: ResponseError, Error: "unixipc: unknown request kind"})
	}
}

func (s *Server) handleAppend(conn net.Conn, env *envelope.Envelope) {
	if s.bus.Full() {
		bp := &transport.BackpressureError{Depth: s.bus.Depth()}
		_ = writeFrame(conn, Response{Kind: ResponseError, Error: bp.Error()})
		return
	}
	receipt, err := s.orch.Append(context.Background(), env)
	if err != nil {
		_ = writeFrame(conn, Response{Kind: ResponseError, Error: err.Error()})
		return
	}
	s.bus.Publish(env)
	_ = writeFrame(conn, Response{Kind: ResponseAppendOk, Receipt: receipt})
}

func (s *Server) handleRead(conn net.Conn, offset, limit int) {
	envs, err := s.log.Read(offset, limit)
	if err != nil {
		_ = writeFrame(conn, Response{Kind: ResponseError, Error: err.Error()})
		return
	}
	_ = writeFrame(conn, Response{Kind: ResponseReadOk, Envelopes: envs})
}

func (s *Server) handleSubscribe(conn net.Conn) {
	if err := writeFrame(conn, Response{Kind: ResponseSubscribeAck}); err != nil {
		return
	}
	sub := s.bus.Subscribe()
	defer sub.Close()
	for env := range sub.Envelopes() {
		if err := writeFrame(conn, Event{Envelope: env}); err != nil {
			return // client disconnected
		}
	}
}

// Append satisfies transport.Transport for an in-process caller.
func (s *Server) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	if s.bus.Full() {
		return nil, &transport.BackpressureError{Depth: s.bus.Depth()}
	}
	receipt, err := s.orch.Append(ctx, env)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(env)
	return receipt, nil
}

// Read satisfies transport.Transport for an in-process caller.
func (s *Server) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	return s.log.Read(offset, limit)
}

// Subscribe satisfies transport.Transport for an in-process caller.
func (s *Server) Subscribe(ctx context.Context) (transport.Subscription, error) {
	return s.bus.Subscribe(), nil
}

var _ transport.Transport = (*Server)(nil)
