package ledger

import (
	"github.com/ea-systems/ledger/pkg/hashkit"
	"github.com/ea-systems/ledger/pkg/merkle"
)

// Receipt is returned for every successful append and every query-with-proof
// read: enough for a third party to independently re-run merkle.Verify.
type Receipt struct {
	Index          int              `json:"index"`
	EnvelopeHash   hashkit.Digest   `json:"envelope_hash"`
	MerkleRoot     hashkit.Digest   `json:"merkle_root"`
	InclusionProof []hashkit.Digest `json:"inclusion_proof"`
}

// Verify checks this receipt's proof against its own stated root — a
// self-consistency check distinct from verifying against the log's current
// (possibly since-advanced) root.
func (r Receipt) Verify() bool {
	return merkle.Verify(r.EnvelopeHash, r.InclusionProof, r.Index, r.MerkleRoot)
}
