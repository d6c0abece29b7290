package hashkit

import (
	"encoding/hex"
	"fmt"
	"sync"

	"lukechampine.com/blake3"
)

// Digest is the hex encoding of a 32-byte hash, the wire/display form used
// everywhere a hash appears in an envelope, log entry, or proof.
type Digest string

// Hash computes the keyed-BLAKE3 digest of data under domain. The domain key
// is itself derived by an unkeyed BLAKE3 hash of the domain tag, so callers
// never need to manage or distribute domain keys — only the fixed set of
// constants in domains.go.
func Hash(domain string, data []byte) Digest {
	key := domainKey(domain)
	h, err := blake3.New(32, key[:])
	if err != nil {
		// Only fails for a key of the wrong length; domainKey always
		// produces exactly 32 bytes.
		panic(fmt.Sprintf("hashkit: keyed blake3 init: %v", err))
	}
	h.Write(data)
	sum := h.Sum(nil)
	return Digest(hex.EncodeToString(sum))
}

// HashConcat hashes the concatenation of parts under domain, used by the
// Merkle node combiner (left||right) without requiring callers to
// pre-concatenate.
func HashConcat(domain string, parts ...[]byte) Digest {
	key := domainKey(domain)
	h, err := blake3.New(32, key[:])
	if err != nil {
		panic(fmt.Sprintf("hashkit: keyed blake3 init: %v", err))
	}
	for _, p := range parts {
		h.Write(p)
	}
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

var domainKeyCache sync.Map // string -> [32]byte

func domainKey(domain string) [32]byte {
	if v, ok := domainKeyCache.Load(domain); ok {
		return v.([32]byte)
	}
	key := blake3.Sum256([]byte(domain))
	domainKeyCache.Store(domain, key)
	return key
}

// Bytes decodes the digest back to raw bytes. Returns an error if the digest
// is not valid hex or not 32 bytes — callers that trust an internally
// produced Digest can ignore the error.
func (d Digest) Bytes() ([]byte, error) {
	b, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("hashkit: invalid digest %q: %w", d, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("hashkit: digest %q is %d bytes, want 32", d, len(b))
	}
	return b, nil
}

func (d Digest) String() string { return string(d) }

// Zero is the all-zero digest used as PrevHash for the first entry of a log
// or the base case of a Merkle fold.
const Zero Digest = "0000000000000000000000000000000000000000000000000000000000000000"
