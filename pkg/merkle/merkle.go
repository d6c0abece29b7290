// Package merkle builds the append-only log's Merkle tree over envelope
// hashes and produces/verifies per-offset inclusion proofs (spec.md §4.E).
// Structurally grounded on the teacher corpus's evidence-tree builder
// (duplicate-last-node level reduction, domain-separated node hashing) but
// rebuilt over raw hashkit.Digest leaves instead of canonicalized JSON
// fields, since this ledger's leaves are already envelope hashes.
package merkle

import "github.com/ea-systems/ledger/pkg/hashkit"

// node combines two child hashes into a parent, domain-separated so a
// Merkle node hash can never be mistaken for a leaf, body, or payload hash.
func node(left, right hashkit.Digest) (hashkit.Digest, error) {
	lb, err := left.Bytes()
	if err != nil {
		return "", err
	}
	rb, err := right.Bytes()
	if err != nil {
		return "", err
	}
	return hashkit.HashConcat(hashkit.DomainMerkleNode, lb, rb), nil
}

// levels returns every level of the tree, levels[0] being the leaves
// themselves and the last entry a single-element slice holding the root.
// Odd-length levels duplicate their last node before pairing (spec.md's
// "duplicate-last rule").
func levels(leaves []hashkit.Digest) ([][]hashkit.Digest, error) {
	if len(leaves) == 0 {
		return nil, nil
	}
	all := [][]hashkit.Digest{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([]hashkit.Digest, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			left := cur[i]
			right := left
			if i+1 < len(cur) {
				right = cur[i+1]
			}
			n, err := node(left, right)
			if err != nil {
				return nil, err
			}
			next = append(next, n)
		}
		all = append(all, next)
		cur = next
	}
	return all, nil
}

// Root computes the Merkle root over leaves. Returns ("", false) for an
// empty log, matching spec.md's `Option<32 bytes>` ("None iff the log is
// empty").
func Root(leaves []hashkit.Digest) (hashkit.Digest, bool, error) {
	if len(leaves) == 0 {
		return "", false, nil
	}
	lv, err := levels(leaves)
	if err != nil {
		return "", false, err
	}
	top := lv[len(lv)-1]
	return top[0], true, nil
}

// InclusionProof returns the sibling-hash path from leaf index to the root,
// leaf-to-root order. At each level the sibling is the partner this node
// pairs with; a node with no right neighbor pairs with (and the proof
// records) itself, per the duplicate-last rule.
func InclusionProof(leaves []hashkit.Digest, index int) ([]hashkit.Digest, error) {
	if index < 0 || index >= len(leaves) {
		return nil, nil
	}
	lv, err := levels(leaves)
	if err != nil {
		return nil, err
	}
	proof := make([]hashkit.Digest, 0, len(lv)-1)
	idx := index
	for level := 0; level < len(lv)-1; level++ {
		cur := lv[level]
		var sibIdx int
		if idx%2 == 0 {
			sibIdx = idx + 1
			if sibIdx >= len(cur) {
				sibIdx = idx // duplicate-last rule
			}
		} else {
			sibIdx = idx - 1
		}
		proof = append(proof, cur[sibIdx])
		idx /= 2
	}
	return proof, nil
}

// Verify folds proof into leaf following index's bit pattern (bit k == 0
// means leaf/acc is the left child at step k, so acc = H(acc, sibling);
// bit k == 1 means acc is the right child, so acc = H(sibling, acc)) and
// accepts iff the final value equals root.
func Verify(leaf hashkit.Digest, proof []hashkit.Digest, index int, root hashkit.Digest) bool {
	acc := leaf
	idx := index
	for _, sib := range proof {
		var err error
		if idx&1 == 0 {
			acc, err = node(acc, sib)
		} else {
			acc, err = node(sib, acc)
		}
		if err != nil {
			return false
		}
		idx >>= 1
	}
	return acc == root
}
