package ledger

import (
	"sync"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/hashkit"
	"github.com/ea-systems/ledger/pkg/merkle"
)

// Log is the ordered, append-only sequence of envelopes. Reads (Read, Len,
// MerkleRoot, InclusionProof) may proceed concurrently; Append holds the
// writer lock exclusively (spec.md §5's reader-writer model).
type Log struct {
	mu       sync.RWMutex
	storage  Storage
	channels map[string]envelope.ChannelState
}

// New returns a Log backed by storage. Pass NewMemoryStorage() for the
// default in-process log.
func New(storage Storage) *Log {
	return &Log{storage: storage, channels: make(map[string]envelope.ChannelState)}
}

// Append validates env against registry and the channel's prior state,
// filling header.Prev from that state if it is empty, then persists it.
// Appends that fail validation never reach storage.
func (l *Log) Append(env *envelope.Envelope, reg envelope.Registry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prior := l.channels[env.Header.Channel]
	if env.Header.Prev == "" && prior.HasLastHash {
		env.Header.Prev = prior.LastHash
	}

	next, err := envelope.Validate(env, reg, prior)
	if err != nil {
		return err
	}

	if err := l.storage.Append(env); err != nil {
		return err
	}
	l.channels[env.Header.Channel] = next
	return nil
}

// Read returns a copy of the envelope slice [offset, offset+limit). Offsets
// beyond the end yield an empty slice, never an error.
func (l *Log) Read(offset, limit int) ([]*envelope.Envelope, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.storage.ReadRange(offset, limit)
}

// Len returns the current log length.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.storage.Len()
}

// ChannelState returns the current state of a channel, for orchestrator
// introspection and status endpoints.
func (l *Log) ChannelState(channel string) envelope.ChannelState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.channels[channel]
}

// leafHashes computes envelope_hash for every stored envelope, the Merkle
// tree's leaf layer. Held under the read lock by callers.
func (l *Log) leafHashes() ([]hashkit.Digest, error) {
	all, err := l.storage.All()
	if err != nil {
		return nil, err
	}
	leaves := make([]hashkit.Digest, len(all))
	for i, e := range all {
		h, err := envelope.Hash(e)
		if err != nil {
			return nil, err
		}
		leaves[i] = h
	}
	return leaves, nil
}

// MerkleRoot returns the root over the full log, or (zero, false) for an
// empty log.
func (l *Log) MerkleRoot() (hashkit.Digest, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	leaves, err := l.leafHashes()
	if err != nil {
		return "", false, err
	}
	return merkle.Root(leaves)
}

// InclusionProof returns the sibling-hash path for the leaf at index under
// the log's current Merkle root.
func (l *Log) InclusionProof(index int) ([]hashkit.Digest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	leaves, err := l.leafHashes()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(leaves) {
		return nil, errOutOfRange
	}
	return merkle.InclusionProof(leaves, index)
}

// VerifyChain re-reads every stored envelope and confirms its header.prev
// correctly chains to its channel predecessor — the recovery-time analogue
// of the corpus's Ledger.Verify. It does not recompute the Merkle root.
func (l *Log) VerifyChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all, err := l.storage.All()
	if err != nil {
		return err
	}
	lastByChannel := make(map[string]hashkit.Digest)
	for _, e := range all {
		prior, seen := lastByChannel[e.Header.Channel]
		if seen && e.Header.Prev != prior {
			return &ChainVerificationError{Channel: e.Header.Channel}
		}
		if !seen && e.Header.Prev != "" {
			return &ChainVerificationError{Channel: e.Header.Channel}
		}
		h, err := envelope.Hash(e)
		if err != nil {
			return err
		}
		lastByChannel[e.Header.Channel] = h
	}
	return nil
}

// ChainVerificationError indicates a stored envelope's header.prev does not
// chain correctly to its channel's predecessor — signals storage-level
// tampering or corruption, distinct from an in-flight ValidationError.
type ChainVerificationError struct {
	Channel string
}

func (e *ChainVerificationError) Error() string {
	return "ledger: chain verification failed for channel " + e.Channel
}
