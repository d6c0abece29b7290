package capability

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// advertisementClaims wraps a CapabilityAdvertisement's hash and the
// handshake identity it binds into standard JWT claims (SPEC_FULL's
// capability-advertisement-signing addition). Per spec.md §6, the JWT is
// transport-layer convenience on top of the remote streaming handshake — it
// never substitutes for attestation-statement verification.
type advertisementClaims struct {
	jwt.RegisteredClaims
	AdvertisementHash     string `json:"advertisement_hash"`
	ExpectedRuntimeID     string `json:"expected_runtime_id,omitempty"`
	ExpectedStatementHash string `json:"expected_statement_hash,omitempty"`
}

// SignJWT wraps adv in an EdDSA-signed JWT binding the handshake identity
// claims an endpoint should present alongside it. duration <= 0 means the
// token never expires.
func SignJWT(adv CapabilityAdvertisement, issuer string, expectedRuntimeID, expectedStatementHash string, priv ed25519.PrivateKey, duration time.Duration) (string, error) {
	digest, err := Hash(adv)
	if err != nil {
		return "", fmt.Errorf("capability: hash advertisement: %w", err)
	}

	now := time.Now().UTC()
	claims := advertisementClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   issuer,
		},
		AdvertisementHash:     digest.String(),
		ExpectedRuntimeID:     expectedRuntimeID,
		ExpectedStatementHash: expectedStatementHash,
	}
	if duration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(duration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(priv)
}

// VerifiedClaims is VerifyJWT's result: the handshake identity fields a
// caller should fold into a transport.Handshake, plus the advertisement hash
// the signer committed to.
type VerifiedClaims struct {
	Issuer                string
	AdvertisementHash     string
	ExpectedRuntimeID     string
	ExpectedStatementHash string
}

// VerifyJWT checks tokenString's EdDSA signature against pub, that it isn't
// expired, and that its advertisement_hash claim matches Hash(adv).
func VerifyJWT(tokenString string, adv CapabilityAdvertisement, pub ed25519.PublicKey) (*VerifiedClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &advertisementClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("capability: unexpected signing method %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("capability: jwt parse: %w", err)
	}
	claims, ok := token.Claims.(*advertisementClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("capability: jwt invalid")
	}

	digest, err := Hash(adv)
	if err != nil {
		return nil, fmt.Errorf("capability: hash advertisement: %w", err)
	}
	if claims.AdvertisementHash != digest.String() {
		return nil, fmt.Errorf("capability: advertisement_hash claim does not match presented advertisement")
	}

	return &VerifiedClaims{
		Issuer:                claims.Issuer,
		AdvertisementHash:     claims.AdvertisementHash,
		ExpectedRuntimeID:     claims.ExpectedRuntimeID,
		ExpectedStatementHash: claims.ExpectedStatementHash,
	}, nil
}
