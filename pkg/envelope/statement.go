package envelope

import (
	"fmt"
)

// StatementKind tags the variant carried by Statement. Encoded as the `kind`
// field of the canonical JSON form — the "tag byte + canonical inner bytes"
// representation spec.md §9 recommends, adapted to JSON's tagged-object
// idiom instead of a literal byte.
type StatementKind string

const (
	StatementBuild   StatementKind = "build"
	StatementRuntime StatementKind = "runtime"
	StatementPolicy  StatementKind = "policy"
	StatementCustom  StatementKind = "custom"
)

// BuildStatement attests to the provenance of a build artifact.
type BuildStatement struct {
	CommitHash        string `json:"commit_hash"`
	BuilderID         string `json:"builder_id"`
	ReproducibleDigest string `json:"reproducible_digest,omitempty"`
}

// RuntimeStatement attests to the identity of a running environment — the
// variant the remote streaming handshake's `expected_runtime_id` checks
// against (§6).
type RuntimeStatement struct {
	RuntimeID       string `json:"runtime_id"`
	HostAttestation string `json:"host_attestation,omitempty"`
	ImageDigest     string `json:"image_digest,omitempty"`
}

// PolicyStatement attests to the outcome of a policy evaluation performed
// out-of-band before the envelope was admitted.
type PolicyStatement struct {
	PolicyID      string `json:"policy_id"`
	PolicyVersion string `json:"policy_version"`
	Verdict       string `json:"verdict"`
}

// CustomStatement is the general escape hatch for attestation kinds not
// otherwise modeled; Fields is a flat string map so canonicalization stays
// well-defined without nested schema negotiation.
type CustomStatement struct {
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Statement is the tagged-union attestation payload. Exactly one of Build,
// Runtime, Policy, Custom is non-nil, selected by Kind.
type Statement struct {
	Kind    StatementKind     `json:"kind"`
	Build   *BuildStatement   `json:"build,omitempty"`
	Runtime *RuntimeStatement `json:"runtime,omitempty"`
	Policy  *PolicyStatement  `json:"policy,omitempty"`
	Custom  *CustomStatement  `json:"custom,omitempty"`
}

// Validate checks that Kind names exactly the populated variant field,
// rejecting malformed tagged unions before they are ever hashed.
func (s Statement) Validate() error {
	present := 0
	var kindOK bool
	if s.Build != nil {
		present++
		kindOK = kindOK || s.Kind == StatementBuild
	}
	if s.Runtime != nil {
		present++
		kindOK = kindOK || s.Kind == StatementRuntime
	}
	if s.Policy != nil {
		present++
		kindOK = kindOK || s.Kind == StatementPolicy
	}
	if s.Custom != nil {
		present++
		kindOK = kindOK || s.Kind == StatementCustom
	}
	if present != 1 {
		return fmt.Errorf("envelope: statement must carry exactly one variant, got %d", present)
	}
	if !kindOK {
		return fmt.Errorf("envelope: statement kind %q does not match its populated variant", s.Kind)
	}
	return nil
}

// NewRuntimeStatement is a convenience constructor used by the remote
// transport's handshake presenter.
func NewRuntimeStatement(runtimeID, hostAttestation, imageDigest string) Statement {
	return Statement{
		Kind: StatementRuntime,
		Runtime: &RuntimeStatement{
			RuntimeID:       runtimeID,
			HostAttestation: hostAttestation,
			ImageDigest:     imageDigest,
		},
	}
}
