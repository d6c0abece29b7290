//go:build property
// +build property

package ledger

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/hashkit"
	"github.com/ea-systems/ledger/pkg/registry"
)

func buildChainFixture(n int) (*Log, *registry.ChannelRegistry, *hashkit.Ed25519Signer, error) {
	signer, err := hashkit.NewEd25519Signer("k1")
	if err != nil {
		return nil, nil, nil, err
	}
	reg := registry.New()
	reg.Upsert("c", registry.ChannelPolicy{MinSigners: 1, AllowedSigners: []string{signer.PublicKeyHex()}})

	log := New(NewMemoryStorage())
	prev := hashkit.Digest("")
	for i := 0; i < n; i++ {
		body := envelope.Body{Payload: json.RawMessage(`{"n":` + strconv.Itoa(i) + `}`)}
		bh, err := envelope.BodyHash(body)
		if err != nil {
			return nil, nil, nil, err
		}
		env := &envelope.Envelope{Header: envelope.Header{Channel: "c", Version: 1, Prev: prev, BodyHash: bh, Timestamp: uint64(i)}, Body: body}
		if err := envelope.Sign(env, signer); err != nil {
			return nil, nil, nil, err
		}
		if err := log.Append(env, reg); err != nil {
			return nil, nil, nil, err
		}
		h, err := envelope.Hash(env)
		if err != nil {
			return nil, nil, nil, err
		}
		prev = h
	}
	return log, reg, signer, nil
}

// TestChainClosure verifies spec.md §4.E's chain-closure commitment: a log
// built entirely through valid, correctly-chained Append calls always
// re-verifies clean under VerifyChain, regardless of chain length.
// Property: for any n >= 0, a log of n sequentially-chained envelopes passes
// VerifyChain.
func TestChainClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("a log built from a valid chain always verifies", prop.ForAll(
		func(n int) bool {
			if n < 0 {
				n = 0
			}
			if n > 20 {
				n = 20
			}
			log, _, _, err := buildChainFixture(n)
			if err != nil {
				return false
			}
			return log.VerifyChain() == nil
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
