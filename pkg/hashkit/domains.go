// Package hashkit provides the domain-separated keyed-BLAKE3 hashing and
// Ed25519 signing primitives shared by every component that touches an
// envelope, attestation statement, Merkle node, or payload: no two of those
// categories are ever allowed to collide under the same hash, even if their
// canonical bytes happen to coincide.
package hashkit

// Domain tags. Each names a disjoint hashing context; Hash(domain, b) for one
// domain can never be confused with Hash(otherDomain, b) for the same bytes
// b, because the domain key is folded into the BLAKE3 MAC key rather than
// prepended to the message.
const (
	DomainEnvelopeBody    = "ea:envelope:body:v1"
	DomainAttestationStmt = "ea:attestation:stmt:v1"
	DomainMerkleLeaf      = "ea:merkle:leaf:v1"
	DomainMerkleNode      = "ea:merkle:node:v1"
	DomainPayload         = "ea:payload:v1"
	DomainLogEntry        = "ea:log:entry:v1"
	DomainCheckpoint      = "ea:checkpoint:v1"
	DomainCapability      = "ea:capability:v1"
)
