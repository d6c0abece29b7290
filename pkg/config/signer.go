package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// LoadSigner provisions the process's signing identity. LEDGER_SIGNER_SEED,
// if set, is a hex-encoded 32-byte Ed25519 seed (for a stable identity
// across restarts); otherwise a fresh keypair is generated and lost on
// process exit — fine for loopback/dev use, unsuitable for a channel whose
// registry pins this key as an allowed signer across restarts.
func LoadSigner(keyID string) (*hashkit.Ed25519Signer, error) {
	seedHex := os.Getenv("LEDGER_SIGNER_SEED")
	if seedHex == "" {
		return hashkit.NewEd25519Signer(keyID)
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("config: LEDGER_SIGNER_SEED is not valid hex: %w", err)
	}
	return hashkit.NewEd25519SignerFromSeed(seed, keyID)
}
