// Package cas implements the content-addressable payload store (spec
// component H): deduplicating storage keyed by H_payload, the keyed-BLAKE3
// digest of the canonical payload bytes. Grounded on the teacher corpus's
// artifacts.Store contract and FileStore (sha256 digest, write-to-temp-then-
// rename idempotent commit), adapted to hashkit's domain-separated digest
// and a configurable max-byte ceiling (spec.md §4.H: "enforces a configured
// maximum-byte limit").
package cas

import (
	"context"
	"fmt"
)

// Store is the CAS contract, implemented by FileStore (the spec-mandated
// default) and the S3Store/GCSStore SPEC_FULL adapters (§4.H.1).
type Store interface {
	// Put computes H_payload(payload) and writes payload under its digest
	// if not already present. Returns the digest either way (idempotent).
	Put(ctx context.Context, payload []byte) (string, error)
	// Get retrieves payload bytes by digest.
	Get(ctx context.Context, digest string) ([]byte, error)
	// Exists reports whether a digest is already stored, without a full Get.
	Exists(ctx context.Context, digest string) (bool, error)
}

// InvariantViolationError is raised when Put is asked to store a payload
// larger than the store's configured MaxBytes (spec.md §4.H/§7).
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string { return "cas: invariant violation: " + e.Message }

func checkSize(payload []byte, maxBytes int) error {
	if maxBytes > 0 && len(payload) > maxBytes {
		return &InvariantViolationError{Message: fmt.Sprintf("payload is %d bytes, exceeds max %d", len(payload), maxBytes)}
	}
	return nil
}
