package index

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestIndex_ObserveChannel(t *testing.T) {
	idx := New()
	idx.Observe("alpha", 0, nil)
	idx.Observe("beta", 1, nil)
	idx.Observe("alpha", 2, nil)

	if got := idx.OffsetsForChannel("alpha"); !reflect.DeepEqual(got, []uint64{0, 2}) {
		t.Errorf("alpha offsets = %v, want [0 2]", got)
	}
	if got := idx.OffsetsForChannel("beta"); !reflect.DeepEqual(got, []uint64{1}) {
		t.Errorf("beta offsets = %v, want [1]", got)
	}
	if got := idx.OffsetsForChannel("missing"); got != nil {
		t.Errorf("missing channel offsets = %v, want nil", got)
	}
}

func TestIndex_ObserveDomain(t *testing.T) {
	idx := New()
	idx.Observe("c", 0, json.RawMessage(`{"n":1,"domain":"alpha"}`))
	idx.Observe("c", 1, json.RawMessage(`{"n":2,"domain":"beta"}`))
	idx.Observe("c", 2, json.RawMessage(`{"n":3,"domain":"alpha"}`))

	if got := idx.OffsetsForDomain("alpha"); !reflect.DeepEqual(got, []uint64{0, 2}) {
		t.Errorf("alpha domain offsets = %v, want [0 2]", got)
	}
	if got := idx.OffsetsForDomain("beta"); !reflect.DeepEqual(got, []uint64{1}) {
		t.Errorf("beta domain offsets = %v, want [1]", got)
	}
}

func TestIndex_DomainFieldEdgeCases(t *testing.T) {
	idx := New()
	idx.Observe("c", 0, json.RawMessage(`{"n":1}`))              // no domain field
	idx.Observe("c", 1, json.RawMessage(`{"domain":42}`))        // non-string domain
	idx.Observe("c", 2, json.RawMessage(`[1,2,3]`))              // not an object
	idx.Observe("c", 3, nil)                                     // no payload
	idx.Observe("c", 4, json.RawMessage(`{"domain":"gamma"}`))

	if got := idx.OffsetsForDomain("gamma"); !reflect.DeepEqual(got, []uint64{4}) {
		t.Errorf("gamma domain offsets = %v, want [4]", got)
	}
	if got := idx.OffsetsForChannel("c"); !reflect.DeepEqual(got, []uint64{0, 1, 2, 3, 4}) {
		t.Errorf("channel offsets = %v, want all five", got)
	}
}

func TestIndex_ReturnedSliceIsACopy(t *testing.T) {
	idx := New()
	idx.Observe("c", 0, nil)

	got := idx.OffsetsForChannel("c")
	got[0] = 99

	if fresh := idx.OffsetsForChannel("c"); fresh[0] != 0 {
		t.Errorf("mutating returned slice leaked into index: %v", fresh)
	}
}
