// Package capability implements capability advertisement (spec.md §6): a
// declaration of which transport adapters a ledger endpoint supports, the
// protocol versions it accepts, and the message-size ceiling it enforces.
// Advertisements round-trip through the same canonical form (pkg/codec) used
// to hash envelopes, so they can be embedded in one verbatim when the ledger
// publishes its own capabilities as an entry.
package capability

// AdapterKind enumerates the transport adapters a CapabilityAdvertisement
// may list (spec.md §6).
type AdapterKind string

const (
	AdapterLoopback        AdapterKind = "loopback"
	AdapterUnixIPC         AdapterKind = "unix_ipc"
	AdapterRemoteStreaming AdapterKind = "remote_streaming"
	AdapterMailbox         AdapterKind = "mailbox"
	AdapterEnclaveProxy    AdapterKind = "enclave_proxy" // reserved, never implemented
)

// AdapterCapability describes one adapter's configuration and, optionally,
// the attestation backing it.
type AdapterCapability struct {
	Kind     AdapterKind `json:"kind"`
	Features []string    `json:"features,omitempty"`

	// Remote streaming.
	Endpoint string `json:"endpoint,omitempty"`
	ALPN     string `json:"alpn,omitempty"`

	// Mailbox.
	MailboxID string `json:"mailbox_id,omitempty"`
	SlotBytes int    `json:"slot_bytes,omitempty"`
	SlotCount int    `json:"slot_count,omitempty"`

	Attestation []byte `json:"attestation,omitempty"` // canonical-form envelope.Attestation, opaque here
}

// CapabilityAdvertisement is what an endpoint presents describing what it
// can do (spec.md §6).
type CapabilityAdvertisement struct {
	Domain            string              `json:"domain"`
	SupportedVersions string              `json:"supported_versions"` // semver range, SPEC_FULL §4.J.2
	MaxMessageBytes   int                 `json:"max_message_bytes"`
	Adapters          []AdapterCapability `json:"adapters"`
}
