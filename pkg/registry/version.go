package registry

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CheckVersion validates an envelope header.version against the channel's
// SupportedVersions range (SPEC_FULL §4.J.2). An empty range is
// unconstrained. version is the raw u16 the wire format carries; it is
// compared as a bare major-version semver constraint ("1", "2", ...) since
// header.version has no minor/patch component — the range syntax still lets
// an operator express e.g. ">=1 <3".
func (p ChannelPolicy) CheckVersion(version uint16) error {
	if p.SupportedVersions == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(p.SupportedVersions)
	if err != nil {
		return fmt.Errorf("registry: invalid supported_versions constraint %q: %w", p.SupportedVersions, err)
	}
	v, err := semver.NewVersion(fmt.Sprintf("%d.0.0", version))
	if err != nil {
		return fmt.Errorf("registry: version %d is not representable as semver: %w", version, err)
	}
	if !constraint.Check(v) {
		return &UnsupportedVersionError{Version: version, Constraint: p.SupportedVersions}
	}
	return nil
}

// UnsupportedVersionError is raised when an envelope's header.version falls
// outside a channel's SupportedVersions range. The orchestrator returns it
// wrapped in an OrchestratorError with code Validation; it is a separate type
// from transport.UnsupportedError.
type UnsupportedVersionError struct {
	Version    uint16
	Constraint string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("registry: version %d outside supported range %q", e.Version, e.Constraint)
}
