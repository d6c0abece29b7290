package unixipc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/transport"
)

// Client is the Unix-IPC transport.Transport implementation: opens a new
// connection per append/read request, and a persistent connection for
// subscribe (spec.md §4.M).
type Client struct {
	path string
}

// NewClient returns a client dialing path on every call.
func NewClient(path string) *Client {
	return &Client{path: path}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.Dial("unix", c.path)
	if err != nil {
		return nil, &transport.TransportError{Cause: err}
	}
	return conn, nil
}

// Append opens a connection, sends an Append request, and returns the
// receipt from the server's response.
func (c *Client) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := writeFrame(conn, Request{Kind: RequestAppend, Envelope: env}); err != nil {
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	var resp Response
	if err := readFrame(conn, &resp); err != nil {
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	if resp.Kind == ResponseError {
		return nil, errors.New(resp.Error)
	}
	return resp.Receipt, nil
}

// Read opens a connection, sends a Read request, and returns the envelope
// slice from the server's response.
func (c *Client) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := writeFrame(conn, Request{Kind: RequestRead, Offset: offset, Limit: limit}); err != nil {
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	var resp Response
	if err := readFrame(conn, &resp); err != nil {
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	if resp.Kind == ResponseError {
		return nil, errors.New(resp.Error)
	}
	return resp.Envelopes, nil
}

// Subscribe opens a persistent connection, sends Subscribe, waits for the
// ack, then forwards every Event frame into a local subscription until the
// connection closes.
func (c *Client) Subscribe(ctx context.Context) (transport.Subscription, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}

	if err := writeFrame(conn, Request{Kind: RequestSubscribe}); err != nil {
		_ = conn.Close()
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	var ack Response
	if err := readFrame(conn, &ack); err != nil {
		_ = conn.Close()
		return nil, &transport.FrameError{Detail: err.Error()}
	}
	if ack.Kind != ResponseSubscribeAck {
		_ = conn.Close()
		return nil, errors.New(ack.Error)
	}

	sub := &clientSubscription{conn: conn, ch: make(chan *envelope.Envelope, transport.DefaultBackpressureDepth)}
	go sub.pump()
	return sub, nil
}

var _ transport.Transport = (*Client)(nil)

// clientSubscription forwards Event frames from conn into a local bounded
// channel, matching the loopback Subscription contract.
type clientSubscription struct {
	conn      net.Conn
	ch        chan *envelope.Envelope
	closeOnce sync.Once
}

func (s *clientSubscription) pump() {
	defer close(s.ch)
	for {
		var ev Event
		if err := readFrame(s.conn, &ev); err != nil {
			return // server closed the stream, or connection died
		}
		select {
		case s.ch <- ev.Envelope:
		default:
			// local subscriber at depth: drop, matching broadcaster semantics.
		}
	}
}

func (s *clientSubscription) Envelopes() <-chan *envelope.Envelope { return s.ch }

func (s *clientSubscription) Close() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}

var _ io.Closer = (*clientSubscription)(nil)
