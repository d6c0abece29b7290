package envelope

import (
	"strconv"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// Policy is the subset of a channel's registered policy the validator reads.
// It is intentionally independent of the registry package's richer
// ChannelPolicy (which also carries CEL extension expressions and storage
// concerns) to keep this package — the pure §4.D validator — free of any
// dependency on how policies are stored or extended.
type Policy struct {
	MinSigners               int
	AllowedSigners           map[string]struct{} // hex pubkey set
	RequireAttestations      bool
	EnforceTimestampOrdering bool
}

// Registry is the read-only view the validator needs: channel name to
// policy. Satisfied by *registry.ChannelRegistry.
type Registry interface {
	Get(channel string) (Policy, bool)
}

// ChannelState is the per-channel state the validator consumes and produces.
// The zero value is the channel-genesis state (no last hash, no last
// timestamp).
type ChannelState struct {
	LastHash         hashkit.Digest
	HasLastHash      bool
	LastTimestamp    uint64
	HasLastTimestamp bool
}

// ErrorCode enumerates the §7 validation-error taxonomy. Each is a distinct,
// stable string so it round-trips through logs, alerts, and transport error
// responses without information loss.
type ErrorCode string

const (
	ErrBodyHashMismatch  ErrorCode = "BodyHashMismatch"
	ErrAttestationInvalid ErrorCode = "AttestationInvalid"
	ErrAttestationRequired ErrorCode = "AttestationRequired"
	ErrChainBroken       ErrorCode = "ChainBroken"
	ErrTimestampRegression ErrorCode = "TimestampRegression"
	ErrInsufficientSigners ErrorCode = "InsufficientSigners"
	ErrUntrustedSigner   ErrorCode = "UntrustedSigner"
	ErrUnknownChannel    ErrorCode = "UnknownChannel"
)

// ValidationError is the error type returned by Validate; it carries the
// stable Code plus a human-readable Detail for logs and alerts.
type ValidationError struct {
	Code   ErrorCode
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Detail
}

func newErr(code ErrorCode, detail string) *ValidationError {
	return &ValidationError{Code: code, Detail: detail}
}

// Validate performs the §4.D algorithm in order, returning the next channel
// state on success. On error, prior state is returned unchanged by
// convention (callers should discard the returned state when err != nil).
func Validate(env *Envelope, reg Registry, prior ChannelState) (ChannelState, error) {
	// 1. body hash.
	bh, err := BodyHash(env.Body)
	if err != nil {
		return prior, newErr(ErrBodyHashMismatch, err.Error())
	}
	if bh != env.Header.BodyHash {
		return prior, newErr(ErrBodyHashMismatch, "computed body hash does not match header.body_hash")
	}

	// 2. attestation statement hashes + issuer signatures.
	for i, att := range env.Attestations {
		sh, err := StatementHash(att.Statement)
		if err != nil || sh != att.StatementHash {
			return prior, newErr(ErrAttestationInvalid, "attestation statement_hash mismatch at index "+strconv.Itoa(i))
		}
		shBytes, err := sh.Bytes()
		if err != nil {
			return prior, newErr(ErrAttestationInvalid, err.Error())
		}
		ok, err := hashkit.Verify(string(att.Issuer), att.Signature, shBytes)
		if err != nil || !ok {
			return prior, newErr(ErrAttestationInvalid, "attestation signature invalid at index "+strconv.Itoa(i))
		}
	}

	// 3. channel exists.
	policy, ok := reg.Get(env.Header.Channel)
	if !ok {
		return prior, newErr(ErrUnknownChannel, env.Header.Channel)
	}

	// 4. chain linkage.
	if prior.HasLastHash {
		if env.Header.Prev != prior.LastHash {
			return prior, newErr(ErrChainBroken, "header.prev does not match channel's last_hash")
		}
	} else if env.Header.Prev != "" {
		return prior, newErr(ErrChainBroken, "header.prev set at channel genesis")
	}

	// 5. timestamp ordering.
	if policy.EnforceTimestampOrdering && prior.HasLastTimestamp {
		if env.Header.Timestamp < prior.LastTimestamp {
			return prior, newErr(ErrTimestampRegression, "timestamp precedes channel's last_timestamp")
		}
	}

	// 6. signer set + threshold.
	h, err := Hash(env)
	if err != nil {
		return prior, newErr(ErrBodyHashMismatch, err.Error())
	}
	hBytes, err := h.Bytes()
	if err != nil {
		return prior, newErr(ErrBodyHashMismatch, err.Error())
	}
	seen := make(map[string]struct{}, len(env.Signatures))
	valid := 0
	for _, sig := range env.Signatures {
		signerHex := string(sig.Signer)
		if _, ok := policy.AllowedSigners[signerHex]; !ok {
			return prior, newErr(ErrUntrustedSigner, "signer not in channel's allowed_signers")
		}
		ok, err := hashkit.Verify(signerHex, sig.Signature, hBytes)
		if err != nil || !ok {
			return prior, newErr(ErrUntrustedSigner, "signature does not verify against envelope_hash")
		}
		if _, dup := seen[signerHex]; !dup {
			seen[signerHex] = struct{}{}
			valid++
		}
	}
	if len(env.Signatures) == 0 {
		return prior, newErr(ErrInsufficientSigners, "an envelope with zero signatures never passes")
	}
	if valid < policy.MinSigners {
		return prior, newErr(ErrInsufficientSigners, "fewer distinct valid signers than policy.min_signers")
	}

	// 7. attestation requirement.
	if policy.RequireAttestations && len(env.Attestations) == 0 {
		return prior, newErr(ErrAttestationRequired, env.Header.Channel)
	}

	return ChannelState{LastHash: h, HasLastHash: true, LastTimestamp: env.Header.Timestamp, HasLastTimestamp: true}, nil
}
