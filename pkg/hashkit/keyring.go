package hashkit

import (
	"fmt"
	"sort"
	"sync"
)

// KeyRing holds a rotating set of signers, keyed by key ID, so a channel's
// active signing key can change without invalidating the chain of prior
// signatures (old keys remain in the ring for verification until revoked).
type KeyRing struct {
	mu      sync.RWMutex
	signers map[string]Signer
}

// NewKeyRing returns an empty ring.
func NewKeyRing() *KeyRing {
	return &KeyRing{signers: make(map[string]Signer)}
}

// Add registers a signer under its own KeyID.
func (r *KeyRing) Add(s Signer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signers[s.KeyID()] = s
}

// Revoke removes a key from the ring. Envelopes already signed with it keep
// their signature bytes but will fail re-verification once the verifying
// side's registry also revokes the corresponding public key.
func (r *KeyRing) Revoke(keyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.signers, keyID)
}

// Active returns the deterministically-selected current signing key: the
// lexicographically last key ID in the ring. Deterministic selection (rather
// than "most recently added") keeps signer choice reproducible when a ring
// is rebuilt from a sorted key list, e.g. during replay.
func (r *KeyRing) Active() (Signer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.signers))
	for id := range r.signers {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("hashkit: keyring is empty")
	}
	sort.Strings(ids)
	return r.signers[ids[len(ids)-1]], nil
}

// Sign signs data with the ring's active key.
func (r *KeyRing) Sign(data []byte) (sigHex, keyID string, err error) {
	s, err := r.Active()
	if err != nil {
		return "", "", err
	}
	sig, err := s.Sign(data)
	if err != nil {
		return "", "", err
	}
	return sig, s.KeyID(), nil
}

// PublicKeyHex returns the hex public key for a specific key ID, used by
// verifiers that received a signature tagged with that key ID.
func (r *KeyRing) PublicKeyHex(keyID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.signers[keyID]
	if !ok {
		return "", false
	}
	return s.PublicKeyHex(), true
}

// KeyIDs returns all key IDs currently in the ring, sorted.
func (r *KeyRing) KeyIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.signers))
	for id := range r.signers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
