// Package mailbox implements the bounded ring-slot transport (spec component
// O) modeling a fixed-size exchange between two trust domains — host and
// accelerator, or host and enclave. Unlike loopback and Unix-IPC, admission
// is gated twice: once on the serialized envelope's size against slot_bytes,
// once on the ring's remaining slot_count. Reads and subscriptions behave as
// for loopback — the ring only gates append, the log remains the durable
// source of truth.
package mailbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/transport"
)

// SlotError is returned when an envelope can't be admitted to the ring: its
// serialized form exceeds slot_bytes, or every slot is occupied.
type SlotError struct {
	Detail string
}

func (e *SlotError) Error() string { return "mailbox: " + e.Detail }

// Transport is the mailbox adapter. It owns a fixed number of slots; each
// occupies one until the consuming trust domain acknowledges it with Ack.
type Transport struct {
	orch *orchestrator.Orchestrator
	log  *ledger.Log
	bus  *transport.Broadcaster

	slotBytes int
	slotCount int

	mu      sync.Mutex
	occupied int
}

// New wires a mailbox transport with the given ring geometry atop an
// already-constructed orchestrator and the log it writes to.
func New(orch *orchestrator.Orchestrator, log *ledger.Log, depth, slotBytes, slotCount int) *Transport {
	return &Transport{
		orch:      orch,
		log:       log,
		bus:       transport.NewBroadcaster(depth),
		slotBytes: slotBytes,
		slotCount: slotCount,
	}
}

// Append serializes env, rejects it if it won't fit a slot or every slot is
// occupied, then admits it through the orchestrator and occupies one slot
// until the consumer calls Ack.
func (t *Transport) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	if t.bus.Full() {
		return nil, &transport.BackpressureError{Depth: t.bus.Depth()}
	}

	data, err := msgpack.Marshal(env)
	if err != nil {
		return nil, &SlotError{Detail: fmt.Sprintf("envelope could not be serialized: %v", err)}
	}
	if len(data) > t.slotBytes {
		return nil, &SlotError{Detail: fmt.Sprintf("serialized envelope is %d bytes, exceeds slot_bytes %d", len(data), t.slotBytes)}
	}

	t.mu.Lock()
	if t.occupied >= t.slotCount {
		t.mu.Unlock()
		return nil, &SlotError{Detail: fmt.Sprintf("ring full: %d/%d slots occupied, no overwrite", t.occupied, t.slotCount)}
	}
	t.occupied++
	t.mu.Unlock()

	receipt, err := t.orch.Append(ctx, env)
	if err != nil {
		t.mu.Lock()
		t.occupied--
		t.mu.Unlock()
		return nil, err
	}
	t.bus.Publish(env)
	return receipt, nil
}

// Ack frees n occupied slots, as the consuming trust domain would after
// copying that many envelopes out of the physical ring. n is clamped to the
// number currently occupied.
func (t *Transport) Ack(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.occupied -= n
	if t.occupied < 0 {
		t.occupied = 0
	}
}

// OccupiedSlots reports how many of slot_count are currently in use.
func (t *Transport) OccupiedSlots() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.occupied
}

// Read is a snapshot read straight through to the log — the ring only gates
// append, per spec.
func (t *Transport) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	return t.log.Read(offset, limit)
}

// Subscribe returns a live feed of envelopes appended after this call.
func (t *Transport) Subscribe(ctx context.Context) (transport.Subscription, error) {
	return t.bus.Subscribe(), nil
}

var _ transport.Transport = (*Transport)(nil)
