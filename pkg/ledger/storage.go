// Package ledger implements the append-only log (spec component E): hash
// chaining per channel, a Merkle root over the full sequence, inclusion
// proofs, and an advisory checkpoint writer (component F). Grounded on the
// teacher corpus's pkg/ledger.Ledger (RWMutex-guarded slice, head hash,
// injectable clock, chain-recomputing Verify) generalized from a single flat
// hash chain to per-channel chain state plus a cross-channel Merkle index.
package ledger

import (
	"fmt"
	"sync"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// Storage is the pluggable persistence boundary (SPEC_FULL §4.E.1): the Log
// type itself (chaining, Merkle root, inclusion proofs) is storage-agnostic
// and only ever asks Storage to append or retrieve envelope slices.
type Storage interface {
	Append(env *envelope.Envelope) error
	Len() int
	ReadRange(offset, limit int) ([]*envelope.Envelope, error)
	All() ([]*envelope.Envelope, error)
}

// MemoryStorage is the default in-process Storage, used by every transport
// unless configured otherwise.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []*envelope.Envelope
}

// NewMemoryStorage returns an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Append(env *envelope.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, env)
	return nil
}

func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStorage) ReadRange(offset, limit int) ([]*envelope.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset >= len(s.entries) || limit <= 0 {
		return []*envelope.Envelope{}, nil
	}
	end := offset + limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	out := make([]*envelope.Envelope, end-offset)
	copy(out, s.entries[offset:end])
	return out, nil
}

func (s *MemoryStorage) All() ([]*envelope.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*envelope.Envelope, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

var errOutOfRange = fmt.Errorf("ledger: index out of range")
