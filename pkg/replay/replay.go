// Package replay re-validates a byte-for-byte serialized envelope sequence
// from empty channel state (spec.md §4.G), used for recovery after a
// process restart and for end-to-end audit tooling. Grounded on the
// teacher corpus's receipt-chain replay engine and its ReplayResult summary,
// adapted from a flat receipt chain to this ledger's per-channel envelope
// chains. Replay stops at the first failing envelope and reports its index;
// it does not detect duplicate envelopes or count chain breaks.
package replay

import (
	"strconv"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// Result summarizes a replay run end to end, mirroring the corpus's
// ReplayResult shape (counts + a human summary) over this domain's
// validation outcome instead of a receipt chain's.
type Result struct {
	TotalEnvelopes int
	Valid          bool
	FailedAt       int // index of the first failing envelope, -1 if none
	FailureError   error
	Summary        string
}

// Validate re-runs spec.md §4.D over sequence from empty channel state,
// exactly as if every envelope were being appended to a fresh log under
// registry. It stops at the first failure (replay equivalence, §8 law 5:
// replay succeeds iff every historical append succeeded, so a historical
// sequence that only ever contained successful appends must replay clean
// end to end).
func Validate(sequence []*envelope.Envelope, reg envelope.Registry) Result {
	states := make(map[string]envelope.ChannelState)
	for i, env := range sequence {
		prior := states[env.Header.Channel]
		next, err := envelope.Validate(env, reg, prior)
		if err != nil {
			return Result{
				TotalEnvelopes: len(sequence),
				Valid:          false,
				FailedAt:       i,
				FailureError:   err,
				Summary:        "replay failed at index " + strconv.Itoa(i) + ": " + err.Error(),
			}
		}
		states[env.Header.Channel] = next
	}
	return Result{
		TotalEnvelopes: len(sequence),
		Valid:          true,
		FailedAt:       -1,
		Summary:        "replay validated " + strconv.Itoa(len(sequence)) + " envelopes across " + strconv.Itoa(len(states)) + " channels",
	}
}
