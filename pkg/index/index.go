// Package index implements the domain index (spec component I): two
// secondary mappings built incrementally as envelopes are appended to the
// log, each preserving append order so the nth envelope of a channel or
// domain can be fetched in O(1).
//
// Grounded on the teacher corpus's store.AuditStore secondary-map pattern
// (entryByID/entryByHash populated inline in Append, under the same lock
// that appends the entry) — generalized here from single-key lookup maps to
// ordered-offset-list maps, since the ledger's index answers "which log
// positions" rather than "which single entry".
package index

import (
	"encoding/json"
	"sync"
)

// Index holds the by-channel and by-domain offset lists. The zero value is
// ready to use.
type Index struct {
	mu        sync.RWMutex
	byChannel map[string][]uint64
	byDomain  map[string][]uint64
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byChannel: make(map[string][]uint64),
		byDomain:  make(map[string][]uint64),
	}
}

// Observe records that the envelope at logIndex was appended to channel,
// with the given raw payload bytes inspected for a string-typed top-level
// "domain" field (spec.md §4.I). A payload that isn't a JSON object, or has
// no "domain" field, or has a non-string one, simply isn't added to
// byDomain — that is not an error.
func (idx *Index) Observe(channel string, logIndex uint64, payload json.RawMessage) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.byChannel == nil {
		idx.byChannel = make(map[string][]uint64)
	}
	if idx.byDomain == nil {
		idx.byDomain = make(map[string][]uint64)
	}
	idx.byChannel[channel] = append(idx.byChannel[channel], logIndex)

	if domain, ok := extractDomain(payload); ok {
		idx.byDomain[domain] = append(idx.byDomain[domain], logIndex)
	}
}

func extractDomain(payload json.RawMessage) (string, bool) {
	if len(payload) == 0 {
		return "", false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return "", false
	}
	raw, ok := obj["domain"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// OffsetsForChannel returns the ordered log indices appended to channel, in
// append order. The returned slice is a copy and safe to retain.
func (idx *Index) OffsetsForChannel(channel string) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneOffsets(idx.byChannel[channel])
}

// OffsetsForDomain returns the ordered log indices whose payload carried the
// given domain value.
func (idx *Index) OffsetsForDomain(domain string) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneOffsets(idx.byDomain[domain])
}

func cloneOffsets(src []uint64) []uint64 {
	if len(src) == 0 {
		return nil
	}
	out := make([]uint64, len(src))
	copy(out, src)
	return out
}
