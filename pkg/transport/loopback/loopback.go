// Package loopback implements the in-process transport (spec component L):
// append/read/subscribe backed directly by an orchestrator and a
// broadcaster, no network, no framing, for single-process deployments. The
// other adapters keep their own broadcaster and do not wrap this one.
package loopback

import (
	"context"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/transport"
)

// Transport is the loopback adapter. It owns no state of its own beyond the
// broadcaster — the log, CAS, and index are the orchestrator's.
type Transport struct {
	orch *orchestrator.Orchestrator
	log  *ledger.Log
	bus  *transport.Broadcaster
}

// New wires a loopback transport atop an already-constructed orchestrator
// and the log it writes to. depth <= 0 uses transport.DefaultBackpressureDepth.
func New(orch *orchestrator.Orchestrator, log *ledger.Log, depth int) *Transport {
	return &Transport{orch: orch, log: log, bus: transport.NewBroadcaster(depth)}
}

// Append validates and publishes env through the orchestrator, then fans
// the accepted envelope out to subscribers. If a subscriber has already
// fallen behind by a full depth's worth of envelopes, the append is
// rejected with Backpressure before it ever reaches the orchestrator
// (spec.md §5 law 7: the failed attempt must not commit).
func (t *Transport) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	if t.bus.Full() {
		return nil, &transport.BackpressureError{Depth: t.bus.Depth()}
	}
	receipt, err := t.orch.Append(ctx, env)
	if err != nil {
		return nil, err
	}
	t.bus.Publish(env)
	return receipt, nil
}

// Read is a snapshot read straight through to the log.
func (t *Transport) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	return t.log.Read(offset, limit)
}

// Subscribe returns a live feed of envelopes appended after this call.
func (t *Transport) Subscribe(ctx context.Context) (transport.Subscription, error) {
	return t.bus.Subscribe(), nil
}

var _ transport.Transport = (*Transport)(nil)
