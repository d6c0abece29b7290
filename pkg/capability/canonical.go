package capability

import (
	"github.com/ea-systems/ledger/pkg/codec"
	"github.com/ea-systems/ledger/pkg/hashkit"
)

// Canonicalize returns adv's RFC 8785 canonical byte form — the same
// encoding used for envelope hashing, so an advertisement can be folded into
// an envelope payload and hashed identically by every reader.
func Canonicalize(adv CapabilityAdvertisement) ([]byte, error) {
	return codec.Canonicalize(adv)
}

// Hash returns the digest of adv's canonical form, domain-tagged like every
// other hashed structure in this module.
func Hash(adv CapabilityAdvertisement) (hashkit.Digest, error) {
	b, err := Canonicalize(adv)
	if err != nil {
		return "", err
	}
	return hashkit.Hash(hashkit.DomainCapability, b), nil
}
