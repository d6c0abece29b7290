package capability

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testAdvertisement() CapabilityAdvertisement {
	return CapabilityAdvertisement{
		Domain:            "ea.runtime.demo",
		SupportedVersions: ">=1.0.0 <2.0.0",
		MaxMessageBytes:   1 << 20,
		Adapters: []AdapterCapability{
			{Kind: AdapterLoopback},
			{Kind: AdapterRemoteStreaming, Endpoint: "ledger.internal:9443", ALPN: "h2"},
			{Kind: AdapterMailbox, MailboxID: "accel-0", SlotBytes: 4096, SlotCount: 8},
		},
	}
}

func TestCanonicalize_IsDeterministic(t *testing.T) {
	adv := testAdvertisement()
	a, err := Canonicalize(adv)
	require.NoError(t, err)
	b, err := Canonicalize(adv)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSignVerifyJWT_RoundTrips(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	adv := testAdvertisement()
	token, err := SignJWT(adv, "runtime-demo", "runtime-1", "stmt-hash-abc", priv, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(token, adv, pub)
	require.NoError(t, err)
	require.Equal(t, "runtime-demo", claims.Issuer)
	require.Equal(t, "runtime-1", claims.ExpectedRuntimeID)
	require.Equal(t, "stmt-hash-abc", claims.ExpectedStatementHash)
}

func TestVerifyJWT_RejectsMismatchedAdvertisement(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	adv := testAdvertisement()
	token, err := SignJWT(adv, "runtime-demo", "", "", priv, 0)
	require.NoError(t, err)

	tampered := adv
	tampered.MaxMessageBytes = adv.MaxMessageBytes + 1
	_, err = VerifyJWT(token, tampered, pub)
	require.Error(t, err)
}

func TestVerifyJWT_RejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	adv := testAdvertisement()
	token, err := SignJWT(adv, "runtime-demo", "", "", priv, 0)
	require.NoError(t, err)

	_, err = VerifyJWT(token, adv, otherPub)
	require.Error(t, err)
}
