package hashkit

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Signer is implemented by anything that can produce an Ed25519 signature
// over already-canonicalized bytes and report the public key that verifies
// it. Envelopes, attestation statements, checkpoints, and capability
// advertisements all sign through this interface.
type Signer interface {
	Sign(data []byte) (sigHex string, err error)
	KeyID() string
	PublicKeyHex() string
}

// Verifier checks a signature against a known public key.
type Verifier interface {
	Verify(pubKeyHex, sigHex string, data []byte) (bool, error)
}

// Ed25519Signer is the default Signer/Verifier: no ecosystem Ed25519
// implementation improves on crypto/ed25519's constant-time reference
// implementation, so this wraps the standard library directly.
type Ed25519Signer struct {
	priv  ed25519.PrivateKey
	pub   ed25519.PublicKey
	keyID string
}

// NewEd25519Signer generates a fresh keypair under keyID.
func NewEd25519Signer(keyID string) (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("hashkit: generate ed25519 key: %w", err)
	}
	return &Ed25519Signer{priv: priv, pub: pub, keyID: keyID}, nil
}

// NewEd25519SignerFromSeed reconstructs a signer from a 32-byte seed, for
// keys loaded from a credential store rather than generated in-process.
func NewEd25519SignerFromSeed(seed []byte, keyID string) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("hashkit: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey), keyID: keyID}, nil
}

func (s *Ed25519Signer) Sign(data []byte) (string, error) {
	return hex.EncodeToString(ed25519.Sign(s.priv, data)), nil
}

func (s *Ed25519Signer) KeyID() string          { return s.keyID }
func (s *Ed25519Signer) PublicKeyHex() string   { return hex.EncodeToString(s.pub) }
func (s *Ed25519Signer) PublicKeyBytes() []byte { return s.pub }

// PrivateKeyBytes exposes the raw ed25519.PrivateKey for callers that need to
// hand it to a library with its own signing method (e.g. golang-jwt's EdDSA
// signer for capability-advertisement JWTs), rather than the hex Sign API.
func (s *Ed25519Signer) PrivateKeyBytes() ed25519.PrivateKey { return s.priv }

// Verify checks a hex-encoded Ed25519 signature against a hex-encoded public
// key. It is a package-level function (rather than a method) so verification
// never requires holding a private key.
func Verify(pubKeyHex, sigHex string, data []byte) (bool, error) {
	pub, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return false, fmt.Errorf("hashkit: invalid public key hex: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("hashkit: public key is %d bytes, want %d", len(pub), ed25519.PublicKeySize)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("hashkit: invalid signature hex: %w", err)
	}
	return ed25519.Verify(ed25519.PublicKey(pub), data, sig), nil
}
