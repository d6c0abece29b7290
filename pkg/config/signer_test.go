package config_test

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ea-systems/ledger/pkg/config"
)

func TestLoadSigner_GeneratesEphemeralWithoutSeed(t *testing.T) {
	t.Setenv("LEDGER_SIGNER_SEED", "")
	signer, err := config.LoadSigner("k1")
	require.NoError(t, err)
	require.Equal(t, "k1", signer.KeyID())
}

func TestLoadSigner_StableFromSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	t.Setenv("LEDGER_SIGNER_SEED", hex.EncodeToString(seed))

	a, err := config.LoadSigner("k1")
	require.NoError(t, err)
	b, err := config.LoadSigner("k1")
	require.NoError(t, err)
	require.Equal(t, a.PublicKeyHex(), b.PublicKeyHex())
}
