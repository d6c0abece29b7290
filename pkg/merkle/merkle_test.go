package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

func leaf(s string) hashkit.Digest {
	return hashkit.Hash(hashkit.DomainMerkleLeaf, []byte(s))
}

func TestRoot_EmptyIsNone(t *testing.T) {
	_, ok, err := Root(nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoot_SingleLeafIsItself(t *testing.T) {
	l := leaf("a")
	root, ok, err := Root([]hashkit.Digest{l})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, l, root, "a one-leaf tree's root is the leaf itself")
}

func TestRoot_OddLeafCountDuplicatesLast(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c")}
	root, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	// Manually fold: level1 = [H(a,b), H(c,c)], root = H(level1[0], level1[1]).
	n01, err := node(leaves[0], leaves[1])
	require.NoError(t, err)
	n22, err := node(leaves[2], leaves[2])
	require.NoError(t, err)
	want, err := node(n01, n22)
	require.NoError(t, err)

	require.Equal(t, want, root)
}

func TestRoot_Deterministic(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d")}
	r1, _, err := Root(leaves)
	require.NoError(t, err)
	r2, _, err := Root(leaves)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestRoot_OrderSensitive(t *testing.T) {
	a := []hashkit.Digest{leaf("a"), leaf("b")}
	b := []hashkit.Digest{leaf("b"), leaf("a")}
	ra, _, err := Root(a)
	require.NoError(t, err)
	rb, _, err := Root(b)
	require.NoError(t, err)
	require.NotEqual(t, ra, rb)
}

func TestInclusionProof_EveryLeafVerifiesAgainstRoot(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d"), leaf("e")}
	root, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	for i, l := range leaves {
		proof, err := InclusionProof(leaves, i)
		require.NoError(t, err)
		require.True(t, Verify(l, proof, i, root), "leaf %d must verify", i)
	}
}

func TestInclusionProof_OddCountDuplicateLastLeafVerifies(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c")}
	root, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	proof, err := InclusionProof(leaves, 2)
	require.NoError(t, err)
	require.True(t, Verify(leaves[2], proof, 2, root))
}

func TestInclusionProof_OutOfRangeIndexReturnsNil(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b")}
	proof, err := InclusionProof(leaves, 5)
	require.NoError(t, err)
	require.Nil(t, proof)
}

func TestVerify_RejectsWrongLeaf(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d")}
	root, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	proof, err := InclusionProof(leaves, 1)
	require.NoError(t, err)
	require.False(t, Verify(leaf("not-b"), proof, 1, root))
}

func TestVerify_RejectsWrongIndex(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d")}
	root, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	proof, err := InclusionProof(leaves, 1)
	require.NoError(t, err)
	require.False(t, Verify(leaves[1], proof, 2, root), "proof for index 1 must not verify against a different index")
}

func TestVerify_RejectsTamperedRoot(t *testing.T) {
	leaves := []hashkit.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d")}
	_, ok, err := Root(leaves)
	require.NoError(t, err)
	require.True(t, ok)

	proof, err := InclusionProof(leaves, 0)
	require.NoError(t, err)
	require.False(t, Verify(leaves[0], proof, 0, leaf("bogus-root")))
}
