package remote

import (
	"context"
	"io"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/transport"
)

// Server implements the three hand-registered streaming RPCs and also
// satisfies transport.Transport directly, for an in-process caller sharing
// the same orchestrator (symmetric with unixipc.Server).
type Server struct {
	orch                  *orchestrator.Orchestrator
	log                   *ledger.Log
	bus                   *transport.Broadcaster
	expectedRuntimeID     string
	expectedStatementHash string
	limiter               *RedisLimiter
	fanout                *RedisFanout
}

// ServerOption configures optional handshake expectations and the
// SPEC_FULL distributed extensions.
type ServerOption func(*Server)

// WithExpectedRuntimeID rejects any request whose presented attestation
// isn't a Runtime statement naming this runtime id.
func WithExpectedRuntimeID(id string) ServerOption {
	return func(s *Server) { s.expectedRuntimeID = id }
}

// WithExpectedStatementHash rejects any request whose presented
// attestation's statement hash doesn't match.
func WithExpectedStatementHash(hash string) ServerOption {
	return func(s *Server) { s.expectedStatementHash = hash }
}

// WithRedisLimiter caps Append throughput per peer identity across every
// ledgerd replica sharing the same Redis instance (SPEC_FULL §4.K.1).
func WithRedisLimiter(l *RedisLimiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithRedisFanout bridges this server's subscribe broadcast across
// replicas via Redis Pub/Sub (SPEC_FULL §4.N.2).
func WithRedisFanout(f *RedisFanout) ServerOption {
	return func(s *Server) { s.fanout = f }
}

// NewServer wires a Server atop an orchestrator/log pair. Register it on a
// *grpc.Server with grpc.Server.RegisterService(&remote.ServiceDesc, srv).
func NewServer(orch *orchestrator.Orchestrator, log *ledger.Log, depth int, opts ...ServerOption) *Server {
	s := &Server{orch: orch, log: log, bus: transport.NewBroadcaster(depth)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) verify(nonce string, presented *envelope.Attestation) error {
	h := transport.Handshake{
		Nonce:                 nonce,
		ExpectedRuntimeID:     s.expectedRuntimeID,
		ExpectedStatementHash: s.expectedStatementHash,
		PresentedAttestation:  presented,
	}
	return h.Verify()
}

// handleAppendStream services the bidirectional Append RPC: one
// AppendRequest in, one AppendResponse out, repeated until the client
// closes the send side.
func (s *Server) handleAppendStream(stream grpc.ServerStream) error {
	for {
		var req AppendRequest
		if err := stream.RecvMsg(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := s.verify(req.Nonce, req.PresentedAttestation); err != nil {
			if sendErr := stream.SendMsg(&AppendResponse{Error: err.Error()}); sendErr != nil {
				return sendErr
			}
			continue
		}
		if s.limiter != nil {
			peerID := "unknown"
			if p, ok := peer.FromContext(stream.Context()); ok && p.Addr != nil {
				peerID = p.Addr.String()
				if host, _, err := net.SplitHostPort(peerID); err == nil {
					peerID = host
				}
			}
			if err := s.limiter.Allow(stream.Context(), peerID); err != nil {
				if sendErr := stream.SendMsg(&AppendResponse{Error: err.Error()}); sendErr != nil {
					return sendErr
				}
				continue
			}
		}
		if s.bus.Full() {
			bp := &transport.BackpressureError{Depth: s.bus.Depth()}
			if sendErr := stream.SendMsg(&AppendResponse{Error: bp.Error()}); sendErr != nil {
				return sendErr
			}
			continue
		}

		receipt, err := s.orch.Append(stream.Context(), req.Envelope)
		if err != nil {
			if sendErr := stream.SendMsg(&AppendResponse{Error: err.Error()}); sendErr != nil {
				return sendErr
			}
			continue
		}
		s.bus.Publish(req.Envelope)
		if s.fanout != nil {
			s.fanout.Publish(stream.Context(), req.Envelope)
		}
		if err := stream.SendMsg(&AppendResponse{Receipt: receipt}); err != nil {
			return err
		}
	}
}

// handleReadStream services the Read RPC: one ReadRequest in, then the
// matching envelope slice streamed out one EnvelopeMessage at a time.
func (s *Server) handleReadStream(stream grpc.ServerStream) error {
	var req ReadRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	if err := s.verify(req.Nonce, req.PresentedAttestation); err != nil {
		return err
	}
	envs, err := s.log.Read(req.Offset, req.Limit)
	if err != nil {
		return err
	}
	for _, e := range envs {
		if err := stream.SendMsg(&EnvelopeMessage{Envelope: e}); err != nil {
			return err
		}
	}
	return nil
}

// handleSubscribeStream services the Subscribe RPC: one SubscribeRequest
// in, then every subsequently appended envelope streamed out until the
// client closes the stream or the server shuts down.
func (s *Server) handleSubscribeStream(stream grpc.ServerStream) error {
	var req SubscribeRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	if err := s.verify(req.Nonce, req.PresentedAttestation); err != nil {
		return err
	}

	sub := s.bus.Subscribe()
	defer sub.Close()

	var remoteCh <-chan *envelope.Envelope
	if s.fanout != nil {
		if rsub, err := s.fanout.Subscribe(stream.Context()); err == nil {
			remoteCh = rsub.Envelopes()
			defer rsub.Close()
		}
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case env, ok := <-sub.Envelopes():
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&EnvelopeMessage{Envelope: env}); err != nil {
				return err
			}
		case env, ok := <-remoteCh:
			if !ok {
				remoteCh = nil
				continue
			}
			if err := stream.SendMsg(&EnvelopeMessage{Envelope: env}); err != nil {
				return err
			}
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
	if s.fanout != nil {
		s.fanout.Publish(ctx, env)
	}
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
