// Package codec provides the canonical wire encoding used everywhere an
// envelope, attestation, or checkpoint is hashed or signed. Two values that
// are struct-equal must canonicalize to byte-identical output regardless of
// field insertion order, map iteration order, or platform.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Canonicalize encodes v using encoding/json (so struct tags, omitempty, and
// custom MarshalJSON methods are respected) and then applies RFC 8785 byte
// canonicalization: object members sorted by UTF-16 code unit, no
// insignificant whitespace, no HTML escaping, numbers in their shortest exact
// form. Two calls on deep-equal values always return identical bytes.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("codec: jcs transform: %w", err)
	}
	return out, nil
}

// CanonicalizeToString is Canonicalize with a string result, for callers that
// fold the canonical form into a larger signed string (capability
// advertisements, JWT claims).
func CanonicalizeToString(v interface{}) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MustCanonicalize panics on error. Reserved for call sites where the input
// type is statically known to be canonicalizable (no channels, funcs, or
// cyclic pointers) — e.g. hashing a value this package itself constructed.
func MustCanonicalize(v interface{}) []byte {
	b, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	return b
}
