//go:build property
// +build property

package merkle

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

func leavesFrom(labels []string) []hashkit.Digest {
	out := make([]hashkit.Digest, len(labels))
	for i, l := range labels {
		out[i] = hashkit.Hash(hashkit.DomainMerkleLeaf, []byte(l))
	}
	return out
}

// TestInclusionProofSoundness verifies spec.md §4.E's inclusion-soundness
// commitment: for any non-empty set of leaves and any valid index into it,
// the proof InclusionProof produces for that index verifies against the
// tree's own root.
// Property: Verify(leaves[i], InclusionProof(leaves, i), i, Root(leaves)) == true
// for every i in range.
func TestInclusionProofSoundness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every leaf's inclusion proof verifies against the tree root", prop.ForAll(
		func(labels []string) bool {
			if len(labels) == 0 {
				return true
			}
			leaves := leavesFrom(labels)
			root, ok, err := Root(leaves)
			if err != nil || !ok {
				return false
			}
			for i := range leaves {
				proof, err := InclusionProof(leaves, i)
				if err != nil {
					return false
				}
				if !Verify(leaves[i], proof, i, root) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(7, gen.AlphaString()),
	))

	properties.Property("root is deterministic regardless of how many times it is recomputed", prop.ForAll(
		func(labels []string) bool {
			if len(labels) == 0 {
				return true
			}
			leaves := leavesFrom(labels)
			r1, ok1, err1 := Root(leaves)
			r2, ok2, err2 := Root(leaves)
			if err1 != nil || err2 != nil {
				return false
			}
			return ok1 == ok2 && r1 == r2
		},
		gen.SliceOfN(5, gen.AlphaString()),
	))

	properties.Property("a proof never verifies against a root built from different leaves", prop.ForAll(
		func(labels []string, extra string) bool {
			if len(labels) == 0 || extra == "" {
				return true
			}
			leaves := leavesFrom(labels)
			tampered := append(append([]hashkit.Digest{}, leaves...), hashkit.Hash(hashkit.DomainMerkleLeaf, []byte(extra)))

			root, ok, err := Root(leaves)
			if err != nil || !ok {
				return false
			}
			tamperedRoot, ok, err := Root(tampered)
			if err != nil || !ok {
				return false
			}
			if root == tamperedRoot {
				return true // hash collision, vacuously fine
			}
			proof, err := InclusionProof(leaves, 0)
			if err != nil {
				return false
			}
			return !Verify(leaves[0], proof, 0, tamperedRoot)
		},
		gen.SliceOfN(4, gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
