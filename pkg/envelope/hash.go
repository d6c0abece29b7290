package envelope

import (
	"fmt"

	"github.com/ea-systems/ledger/pkg/codec"
	"github.com/ea-systems/ledger/pkg/hashkit"
)

// BodyHash computes H_body(body): the keyed-BLAKE3 hash of body's canonical
// encoding, domain-separated so it can never collide with an attestation or
// Merkle hash over the same bytes.
func BodyHash(b Body) (hashkit.Digest, error) {
	canon, err := codec.Canonicalize(b)
	if err != nil {
		return "", fmt.Errorf("envelope: canonicalize body: %w", err)
	}
	return hashkit.Hash(hashkit.DomainEnvelopeBody, canon), nil
}

// StatementHash computes H_att(statement).
func StatementHash(s Statement) (hashkit.Digest, error) {
	canon, err := codec.Canonicalize(s)
	if err != nil {
		return "", fmt.Errorf("envelope: canonicalize statement: %w", err)
	}
	return hashkit.Hash(hashkit.DomainAttestationStmt, canon), nil
}

// unsignedView is the subset of an envelope that envelope_hash binds: header,
// body, and attestations — explicitly excluding the signature list, so that
// adding a signature never invalidates signatures already collected (spec.md
// §3 invariant 3).
type unsignedView struct {
	Header       Header        `json:"header"`
	Body         Body          `json:"body"`
	Attestations []Attestation `json:"attestations"`
}

// Hash computes envelope_hash(env): the canonical hash over header ∥ body ∥
// attestations, excluding signatures. This is also the Merkle leaf hash for
// the envelope (pkg/merkle hashes this value directly), so it is keyed under
// DomainMerkleLeaf — its own domain, disjoint from DomainEnvelopeBody, so an
// envelope_hash can never collide with a body hash over the same bytes.
func Hash(e *Envelope) (hashkit.Digest, error) {
	view := unsignedView{Header: e.Header, Body: e.Body, Attestations: e.Attestations}
	canon, err := codec.Canonicalize(view)
	if err != nil {
		return "", fmt.Errorf("envelope: canonicalize envelope: %w", err)
	}
	return hashkit.Hash(hashkit.DomainMerkleLeaf, canon), nil
}

// Sign appends a new Signature to e, computed by signer over envelope_hash.
// Callers must have already set BodyHash and filled in any attestations
// before signing — signing after mutating the header or body invalidates
// earlier signatures by construction (they hash different bytes).
func Sign(e *Envelope, signer hashkit.Signer) error {
	h, err := Hash(e)
	if err != nil {
		return err
	}
	hb, err := h.Bytes()
	if err != nil {
		return err
	}
	sigHex, err := signer.Sign(hb)
	if err != nil {
		return fmt.Errorf("envelope: sign: %w", err)
	}
	e.Signatures = append(e.Signatures, Signature{
		Signer:    hashkit.Digest(signer.PublicKeyHex()),
		Signature: sigHex,
	})
	return nil
}

// SignAttestation computes Issuer/StatementHash/Signature for att in place,
// using issuer to sign StatementHash bytes (§4.D step 2's verification
// counterpart).
func SignAttestation(att *Attestation, issuer hashkit.Signer) error {
	sh, err := StatementHash(att.Statement)
	if err != nil {
		return err
	}
	att.StatementHash = sh
	shBytes, err := sh.Bytes()
	if err != nil {
		return err
	}
	sigHex, err := issuer.Sign(shBytes)
	if err != nil {
		return fmt.Errorf("envelope: sign attestation: %w", err)
	}
	att.Issuer = hashkit.Digest(issuer.PublicKeyHex())
	att.Signature = sigHex
	return nil
}
