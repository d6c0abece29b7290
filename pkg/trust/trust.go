// Package trust provides an append-only, event-sourced audit trail for
// channel signer lifecycle changes: who added or revoked which key, and
// when. It is operator tooling built atop the core, not itself a core
// operation — registry.ChannelRegistry remains the live, current-value-only
// view the validator evaluates (see registry.ChannelRegistry's doc comment);
// this package answers "how did we get here" for the `ledgerd trust` CLI and
// future compliance reporting, without feeding replay back into validation.
package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// EventType enumerates the signer lifecycle transitions this package tracks.
type EventType string

const (
	KeyAdded   EventType = "KEY_ADDED"
	KeyRevoked EventType = "KEY_REVOKED"
)

// SignerEvent records a single lifecycle transition for one channel's
// signer set. Sequence orders events within a channel; it is caller-supplied
// (typically the ledger index at which the operator's change was recorded)
// rather than wall-clock time, so history stays reproducible.
type SignerEvent struct {
	EventType    EventType `json:"event_type"`
	Channel      string    `json:"channel"`
	KeyID        string    `json:"key_id"`
	PublicKeyHex string    `json:"public_key_hex"`
	Sequence     uint64    `json:"sequence"`
}

// Ledger replays SignerEvents into a per-channel authorized-signer set. Safe
// for concurrent use.
type Ledger struct {
	mu     sync.RWMutex
	events []SignerEvent
}

// New returns an empty signer lifecycle ledger.
func New() *Ledger {
	return &Ledger{}
}

// Apply appends event after validating it against the ledger's current
// state: KEY_ADDED must not duplicate a live key, KEY_REVOKED must name one.
func (l *Ledger) Apply(event SignerEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := l.resolveLocked(event.Channel, ^uint64(0))
	switch event.EventType {
	case KeyAdded:
		if _, ok := live[event.KeyID]; ok {
			return fmt.Errorf("trust: key %q already live on channel %q", event.KeyID, event.Channel)
		}
	case KeyRevoked:
		if _, ok := live[event.KeyID]; !ok {
			return fmt.Errorf("trust: key %q is not live on channel %q", event.KeyID, event.Channel)
		}
	default:
		return fmt.Errorf("trust: unknown event type %q", event.EventType)
	}

	l.events = append(l.events, event)
	return nil
}

// ResolveAuthorizedKeys returns the hex-encoded public keys live on channel
// as of sequence (inclusive), for point-in-time audit queries. Pass
// math.MaxUint64 for the current state.
func (l *Ledger) ResolveAuthorizedKeys(channel string, asOfSequence uint64) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	live := l.resolveLocked(channel, asOfSequence)
	keys := make([]string, 0, len(live))
	for keyID, hexKey := range live {
		keys = append(keys, hexKey)
		_ = keyID
	}
	return keys
}

// resolveLocked replays events for channel up to and including asOfSequence,
// returning the set of keys live at that point keyed by KeyID. Callers must
// hold l.mu.
func (l *Ledger) resolveLocked(channel string, asOfSequence uint64) map[string]string {
	live := make(map[string]string)
	for _, e := range l.events {
		if e.Channel != channel || e.Sequence > asOfSequence {
			continue
		}
		switch e.EventType {
		case KeyAdded:
			live[e.KeyID] = e.PublicKeyHex
		case KeyRevoked:
			delete(live, e.KeyID)
		}
	}
	return live
}

// EventCount returns the total number of applied events, across all channels.
func (l *Ledger) EventCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// LoadFile reads a JSON array of SignerEvents from path and replays them in
// order, returning an error on the first event Apply rejects.
func LoadFile(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("trust: read %s: %w", path, err)
	}
	var events []SignerEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("trust: decode %s: %w", path, err)
	}
	l := New()
	for _, e := range events {
		if err := l.Apply(e); err != nil {
			return nil, fmt.Errorf("trust: replay %s: %w", path, err)
		}
	}
	return l, nil
}

// AppendFile loads path's existing events (if any), applies event, and
// rewrites path with the full history. Used by `ledgerd trust add/revoke` to
// persist operator changes between CLI invocations.
func AppendFile(path string, event SignerEvent) error {
	l, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := l.Apply(event); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.events, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
