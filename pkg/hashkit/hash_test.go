package hashkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_DomainSeparation(t *testing.T) {
	data := []byte("same bytes")
	a := Hash(DomainEnvelopeBody, data)
	b := Hash(DomainMerkleLeaf, data)
	require.NotEqual(t, a, b, "identical bytes under different domains must not collide")
}

func TestHash_Deterministic(t *testing.T) {
	data := []byte("payload")
	a := Hash(DomainPayload, data)
	b := Hash(DomainPayload, data)
	require.Equal(t, a, b)
}

func TestHashConcat_MatchesManualConcatenation(t *testing.T) {
	left := []byte("left")
	right := []byte("right")
	got := HashConcat(DomainMerkleNode, left, right)
	want := Hash(DomainMerkleNode, append(append([]byte{}, left...), right...))
	require.Equal(t, want, got)
}

func TestHashConcat_OrderMatters(t *testing.T) {
	a := HashConcat(DomainMerkleNode, []byte("left"), []byte("right"))
	b := HashConcat(DomainMerkleNode, []byte("right"), []byte("left"))
	require.NotEqual(t, a, b)
}

func TestDigest_BytesRoundTrip(t *testing.T) {
	d := Hash(DomainPayload, []byte("round trip me"))
	b, err := d.Bytes()
	require.NoError(t, err)
	require.Len(t, b, 32)
	require.Equal(t, string(d), d.String())
}

func TestDigest_BytesRejectsInvalidHex(t *testing.T) {
	_, err := Digest("not-hex-zzz").Bytes()
	require.Error(t, err)
}

func TestDigest_BytesRejectsWrongLength(t *testing.T) {
	_, err := Digest("abcd").Bytes()
	require.Error(t, err)
}

func TestZero_Is32ZeroBytes(t *testing.T) {
	b, err := Zero.Bytes()
	require.NoError(t, err)
	require.Len(t, b, 32)
	for _, v := range b {
		require.Equal(t, byte(0), v)
	}
}

func TestEd25519_SignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewEd25519Signer("k1")
	require.NoError(t, err)

	data := []byte("sign me")
	sigHex, err := signer.Sign(data)
	require.NoError(t, err)

	ok, err := Verify(signer.PublicKeyHex(), sigHex, data)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEd25519_VerifyRejectsTamperedData(t *testing.T) {
	signer, err := NewEd25519Signer("k1")
	require.NoError(t, err)

	sigHex, err := signer.Sign([]byte("original"))
	require.NoError(t, err)

	ok, err := Verify(signer.PublicKeyHex(), sigHex, []byte("tampered"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEd25519_VerifyRejectsWrongKey(t *testing.T) {
	signer, err := NewEd25519Signer("k1")
	require.NoError(t, err)
	other, err := NewEd25519Signer("k2")
	require.NoError(t, err)

	data := []byte("sign me")
	sigHex, err := signer.Sign(data)
	require.NoError(t, err)

	ok, err := Verify(other.PublicKeyHex(), sigHex, data)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEd25519_FromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	a, err := NewEd25519SignerFromSeed(seed, "k1")
	require.NoError(t, err)
	b, err := NewEd25519SignerFromSeed(seed, "k1")
	require.NoError(t, err)
	require.Equal(t, a.PublicKeyHex(), b.PublicKeyHex())
}

func TestKeyRing_ActiveIsLexicographicallyLast(t *testing.T) {
	ring := NewKeyRing()
	a, err := NewEd25519Signer("alpha")
	require.NoError(t, err)
	z, err := NewEd25519Signer("zeta")
	require.NoError(t, err)
	ring.Add(a)
	ring.Add(z)

	active, err := ring.Active()
	require.NoError(t, err)
	require.Equal(t, "zeta", active.KeyID())
}

func TestKeyRing_ActiveEmptyErrors(t *testing.T) {
	ring := NewKeyRing()
	_, err := ring.Active()
	require.Error(t, err)
}

func TestKeyRing_RevokeRemovesKey(t *testing.T) {
	ring := NewKeyRing()
	signer, err := NewEd25519Signer("k1")
	require.NoError(t, err)
	ring.Add(signer)
	ring.Revoke("k1")

	_, found := ring.PublicKeyHex("k1")
	require.False(t, found)
}

func TestKeyRing_SignUsesActiveKey(t *testing.T) {
	ring := NewKeyRing()
	signer, err := NewEd25519Signer("k1")
	require.NoError(t, err)
	ring.Add(signer)

	sigHex, keyID, err := ring.Sign([]byte("data"))
	require.NoError(t, err)
	require.Equal(t, "k1", keyID)

	ok, err := Verify(signer.PublicKeyHex(), sigHex, []byte("data"))
	require.NoError(t, err)
	require.True(t, ok)
}
