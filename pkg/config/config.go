// Package config implements environment/flag-driven bootstrap (spec
// component P): the ledgerd process configuration and signer provisioning,
// following the corpus's convention of an env-var-driven Load() plus small
// typed sub-configs. Registry-file loading and schema validation live in
// pkg/registry.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// TransportKind selects which adapter ledgerd binds on startup.
type TransportKind string

const (
	TransportLoopback TransportKind = "loopback"
	TransportUnix     TransportKind = "unix"
	TransportRemote   TransportKind = "remote"
)

// Config is ledgerd's full runtime configuration, built by Load from
// environment variables and overridable by CLI flags (cmd/ledgerd calls Load
// first, then overwrites these fields with any flags that were set).
type Config struct {
	Transport      TransportKind
	UnixPath       string
	RemoteEndpoint string
	RegistryPath   string
	TrustPath      string // signer lifecycle audit log consumed by `ledgerd trust`; optional

	CheckpointEvery int
	BackpressureDepth int

	CASBackend  string // delegated to cas.NewStoreFromEnv via the same env vars
	LogBackend  string // "memory" or "sql"; "sql" selects ledger.SQLStorage in cmd/ledgerd

	MetricsAddr string // empty disables the /metrics, /healthz HTTP surface
}

// Load reads ledgerd's configuration from the environment, applying the
// documented LEDGER_* defaults (spec.md §6 "CLI surface").
func Load() *Config {
	cfg := &Config{
		Transport:         TransportKind(envOr("LEDGER_TRANSPORT", string(TransportLoopback))),
		UnixPath:          envOr("LEDGER_UNIX_PATH", "/tmp/ledgerd.sock"),
		RemoteEndpoint:    os.Getenv("LEDGER_REMOTE_ENDPOINT"),
		RegistryPath:      os.Getenv("LEDGER_REGISTRY"),
		TrustPath:         envOr("LEDGER_TRUST_LOG", "trust.json"),
		CheckpointEvery:   envInt("LEDGER_CHECKPOINT_EVERY", 100),
		BackpressureDepth: envInt("LEDGER_BACKPRESSURE_DEPTH", 1024),
		CASBackend:        envOr("LEDGER_CAS_BACKEND", "file"),
		LogBackend:        envOr("LEDGER_LOG_BACKEND", "memory"),
		MetricsAddr:       os.Getenv("LEDGER_METRICS_ADDR"),
	}
	return cfg
}

// Validate reports a precise error for any field combination that would
// leave ledgerd unable to start (e.g. a remote transport with no endpoint).
func (c *Config) Validate() error {
	if c.RegistryPath == "" {
		return fmt.Errorf("config: --registry/LEDGER_REGISTRY is required")
	}
	switch c.Transport {
	case TransportLoopback:
	case TransportUnix:
		if c.UnixPath == "" {
			return fmt.Errorf("config: --unix-path/LEDGER_UNIX_PATH is required for transport=unix")
		}
	case TransportRemote:
		if c.RemoteEndpoint == "" {
			return fmt.Errorf("config: --remote-endpoint/LEDGER_REMOTE_ENDPOINT is required for transport=remote")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
