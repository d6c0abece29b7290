// Package registry implements the channel registry (spec component C): a
// mapping from channel name to policy, mutable by the operator and read-only
// during validation.
package registry

import (
	"sync"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// ChannelPolicy is the full operator-facing policy for a channel. Its
// envelope.Policy subset is what the §4.D validator actually consumes;
// PolicyExpr and PolicyExprFields are the SPEC_FULL CEL extension point
// (§4.J.1), evaluated by the orchestrator as an additional gate.
type ChannelPolicy struct {
	MinSigners               int
	AllowedSigners            []string // hex-encoded Ed25519 public keys
	RequireAttestations       bool
	EnforceTimestampOrdering  bool
	SupportedVersions         string // semver range, e.g. ">=1.0.0 <3.0.0"; empty means unconstrained
	PolicyExpr                string // optional CEL boolean expression
	PolicyExprFields          []string // payload fields the operator opts into exposing to PolicyExpr
}

// ChannelRegistry maps channel names to policies. Safe for concurrent use;
// Upsert/Remove take the write lock, Get takes the read lock, matching the
// corpus's event-sourced trust registry pattern (mu sync.RWMutex guarding a
// map) while dropping that code's Lamport-height replay — channel policies
// here are evaluated only at current value, never replayed against history
// (spec.md §3 Lifecycles: "old envelopes remain valid under the historical
// policy evaluated at their append time").
type ChannelRegistry struct {
	mu       sync.RWMutex
	policies map[string]ChannelPolicy
}

// New returns an empty registry.
func New() *ChannelRegistry {
	return &ChannelRegistry{policies: make(map[string]ChannelPolicy)}
}

// Upsert creates or replaces the policy for name. No ordering or uniqueness
// constraint beyond channel-name uniqueness (spec.md §4.C).
func (r *ChannelRegistry) Upsert(name string, policy ChannelPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[name] = policy
}

// Remove deletes a channel's policy. Not a core operation per spec.md §5
// ("post-construction mutation is not thread-safe and is not a core
// operation") but provided for operator tooling built atop the core.
func (r *ChannelRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.policies, name)
}

// GetFull returns the full ChannelPolicy, for callers (the orchestrator,
// CLI) that need the CEL/semver extensions beyond the validator's view.
func (r *ChannelRegistry) GetFull(name string) (ChannelPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// Get implements envelope.Registry: the validator's narrow, read-only view.
func (r *ChannelRegistry) Get(name string) (envelope.Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	if !ok {
		return envelope.Policy{}, false
	}
	allowed := make(map[string]struct{}, len(p.AllowedSigners))
	for _, s := range p.AllowedSigners {
		allowed[s] = struct{}{}
	}
	return envelope.Policy{
		MinSigners:               p.MinSigners,
		AllowedSigners:           allowed,
		RequireAttestations:      p.RequireAttestations,
		EnforceTimestampOrdering: p.EnforceTimestampOrdering,
	}, true
}

// Channels returns all registered channel names, for status/CLI listing.
func (r *ChannelRegistry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	return names
}
