package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelRegistry_UpsertAndGetFull(t *testing.T) {
	reg := New()
	reg.Upsert("c", ChannelPolicy{MinSigners: 2, AllowedSigners: []string{"pk1", "pk2"}})

	policy, ok := reg.GetFull("c")
	require.True(t, ok)
	require.Equal(t, 2, policy.MinSigners)
	require.Equal(t, []string{"pk1", "pk2"}, policy.AllowedSigners)
}

func TestChannelRegistry_GetUnknownChannel(t *testing.T) {
	reg := New()
	_, ok := reg.GetFull("missing")
	require.False(t, ok)
}

func TestChannelRegistry_GetSatisfiesEnvelopeRegistry(t *testing.T) {
	reg := New()
	reg.Upsert("c", ChannelPolicy{
		MinSigners:               1,
		AllowedSigners:           []string{"pk1"},
		RequireAttestations:      true,
		EnforceTimestampOrdering: true,
	})

	policy, ok := reg.Get("c")
	require.True(t, ok)
	require.Equal(t, 1, policy.MinSigners)
	require.True(t, policy.RequireAttestations)
	require.True(t, policy.EnforceTimestampOrdering)
	_, allowed := policy.AllowedSigners["pk1"]
	require.True(t, allowed)
}

func TestChannelRegistry_Remove(t *testing.T) {
	reg := New()
	reg.Upsert("c", ChannelPolicy{MinSigners: 1})
	reg.Remove("c")

	_, ok := reg.GetFull("c")
	require.False(t, ok)
}

func TestChannelRegistry_UpsertReplaces(t *testing.T) {
	reg := New()
	reg.Upsert("c", ChannelPolicy{MinSigners: 1})
	reg.Upsert("c", ChannelPolicy{MinSigners: 5})

	policy, ok := reg.GetFull("c")
	require.True(t, ok)
	require.Equal(t, 5, policy.MinSigners)
}

func TestChannelRegistry_Channels(t *testing.T) {
	reg := New()
	reg.Upsert("a", ChannelPolicy{})
	reg.Upsert("b", ChannelPolicy{})

	names := reg.Channels()
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestCheckVersion_UnconstrainedAlwaysPasses(t *testing.T) {
	p := ChannelPolicy{}
	require.NoError(t, p.CheckVersion(99))
}

func TestCheckVersion_WithinRange(t *testing.T) {
	p := ChannelPolicy{SupportedVersions: ">=1 <3"}
	require.NoError(t, p.CheckVersion(1))
	require.NoError(t, p.CheckVersion(2))
}

func TestCheckVersion_OutOfRangeRejects(t *testing.T) {
	p := ChannelPolicy{SupportedVersions: ">=1 <3"}
	err := p.CheckVersion(5)
	require.Error(t, err)
	var uv *UnsupportedVersionError
	require.ErrorAs(t, err, &uv)
	require.Equal(t, uint16(5), uv.Version)
}

func TestCheckVersion_InvalidConstraintErrors(t *testing.T) {
	p := ChannelPolicy{SupportedVersions: "not-a-constraint garbage ~~"}
	require.Error(t, p.CheckVersion(1))
}

func TestEvaluatePolicyExpr_EmptyAlwaysPasses(t *testing.T) {
	p := ChannelPolicy{}
	ok, err := p.EvaluatePolicyExpr("domain-a", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluatePolicyExpr_DomainMatch(t *testing.T) {
	p := ChannelPolicy{PolicyExpr: `domain == "telemetry"`}

	ok, err := p.EvaluatePolicyExpr("telemetry", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.EvaluatePolicyExpr("other", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluatePolicyExpr_ExposedField(t *testing.T) {
	p := ChannelPolicy{
		PolicyExpr:       `domain == "telemetry" && priority > 5`,
		PolicyExprFields: []string{"priority"},
	}

	ok, err := p.EvaluatePolicyExpr("telemetry", map[string]interface{}{"priority": 10})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.EvaluatePolicyExpr("telemetry", map[string]interface{}{"priority": 1})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluatePolicyExpr_NonBoolExpressionErrors(t *testing.T) {
	p := ChannelPolicy{PolicyExpr: `"not a bool"`}
	_, err := p.EvaluatePolicyExpr("d", nil)
	require.Error(t, err)
}

func TestParse_ValidDocument(t *testing.T) {
	doc := []byte(`{
		"channels": {
			"c": {
				"min_signers": 1,
				"allowed_signers": ["pk1"],
				"require_attestations": true
			}
		}
	}`)

	reg, err := Parse(doc)
	require.NoError(t, err)

	policy, ok := reg.GetFull("c")
	require.True(t, ok)
	require.Equal(t, 1, policy.MinSigners)
	require.True(t, policy.RequireAttestations)
}

func TestParse_RejectsMissingRequiredField(t *testing.T) {
	doc := []byte(`{
		"channels": {
			"c": {
				"allowed_signers": ["pk1"]
			}
		}
	}`)

	_, err := Parse(doc)
	require.Error(t, err)
}

func TestParse_RejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	require.Error(t, err)
}

func TestParse_AllowsZeroMinSigners(t *testing.T) {
	doc := []byte(`{
		"channels": {
			"c": {
				"min_signers": 0,
				"allowed_signers": []
			}
		}
	}`)

	reg, err := Parse(doc)
	require.NoError(t, err)
	policy, ok := reg.GetFull("c")
	require.True(t, ok)
	require.Equal(t, 0, policy.MinSigners)
}

func TestLoadFile_MissingFileErrors(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/registry.json")
	require.Error(t, err)
}
