package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/transport"
)

// Dial opens a gRPC connection configured to use the msgpack codec for
// every call made against it.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	allOpts := append([]grpc.DialOption{grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName))}, opts...)
	return grpc.NewClient(target, allOpts...)
}

// Client is a transport.Transport backed by a gRPC connection to a remote
// Server, presenting a fixed attestation on every handshake.
type Client struct {
	conn      *grpc.ClientConn
	presented *envelope.Attestation
}

// NewClient wires a Client atop an already-dialed connection.
func NewClient(conn *grpc.ClientConn, presented *envelope.Attestation) *Client {
	return &Client{conn: conn, presented: presented}
}

// Append opens a fresh Append stream, sends one request, and waits for the
// matching response — symmetric with unixipc.Client's dial-per-request
// style, since a long-lived stream buys nothing for a single round-trip.
func (c *Client) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	stream, err := c.conn.NewStream(ctx, &appendStreamDesc, "/"+ServiceName+"/Append")
	if err != nil {
		return nil, &transport.TransportError{Cause: err}
	}

	req := &AppendRequest{Envelope: env, Nonce: uuid.NewString(), PresentedAttestation: c.presented}
	if err := stream.SendMsg(req); err != nil {
		return nil, &transport.TransportError{Cause: err}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, &transport.TransportError{Cause: err}
	}

	var resp AppendResponse
	if err := stream.RecvMsg(&resp); err != nil {
		return nil, &transport.TransportError{Cause: err}
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Receipt, nil
}

// Read opens a Read stream and drains every streamed EnvelopeMessage.
func (c *Client) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	stream, err := c.conn.NewStream(ctx, &readStreamDesc, "/"+ServiceName+"/Read")
	if err != nil {
		return nil, &transport.TransportError{Cause: err}
	}

	req := &ReadRequest{Offset: offset, Limit: limit, Nonce: uuid.NewString(), PresentedAttestation: c.presented}
	if err := stream.SendMsg(req); err != nil {
		return nil, &transport.TransportError{Cause: err}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, &transport.TransportError{Cause: err}
	}

	var envs []*envelope.Envelope
	for {
		var msg EnvelopeMessage
		err := stream.RecvMsg(&msg)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &transport.TransportError{Cause: err}
		}
		envs = append(envs, msg.Envelope)
	}
	return envs, nil
}

// Subscribe opens a Subscribe stream and forwards every streamed envelope
// into a locally bounded channel until the context is canceled.
func (c *Client) Subscribe(ctx context.Context) (transport.Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.conn.NewStream(streamCtx, &subscribeStreamDesc, "/"+ServiceName+"/Subscribe")
	if err != nil {
		cancel()
		return nil, &transport.TransportError{Cause: err}
	}

	req := &SubscribeRequest{Nonce: uuid.NewString(), PresentedAttestation: c.presented}
	if err := stream.SendMsg(req); err != nil {
		cancel()
		return nil, &transport.TransportError{Cause: err}
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return nil, &transport.TransportError{Cause: err}
	}

	sub := &clientSubscription{stream: stream, ch: make(chan *envelope.Envelope, transport.DefaultBackpressureDepth), cancel: cancel}
	go sub.pump()
	return sub, nil
}

type clientSubscription struct {
	stream    grpc.ClientStream
	ch        chan *envelope.Envelope
	closeOnce sync.Once
	cancel    context.CancelFunc
}

func (s *clientSubscription) pump() {
	defer close(s.ch)
	for {
		var msg EnvelopeMessage
		if err := s.stream.RecvMsg(&msg); err != nil {
			return
		}
		select {
		case s.ch <- msg.Envelope:
		default:
			slog.Warn("remote: client subscription backpressure, dropping envelope")
		}
	}
}

func (s *clientSubscription) Envelopes() <-chan *envelope.Envelope { return s.ch }

func (s *clientSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

var _ transport.Transport = (*Client)(nil)
