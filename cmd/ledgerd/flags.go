package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/ea-systems/ledger/pkg/config"
)

// globalFlags binds the CLI flags spec.md §6 places before the subcommand
// onto a config.Config, falling back to config.Load's env-var defaults for
// anything left unset.
type globalFlags struct {
	transport      string
	unixPath       string
	remoteEndpoint string
	registryPath   string
	trustPath      string
}

func newGlobalFlags() *globalFlags { return &globalFlags{} }

func (g *globalFlags) flagSet(stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("ledgerd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.transport, "transport", "", "transport adapter: loopback, unix, or remote")
	fs.StringVar(&g.unixPath, "unix-path", "", "Unix socket path for transport=unix")
	fs.StringVar(&g.remoteEndpoint, "remote-endpoint", "", "gRPC target for transport=remote")
	fs.StringVar(&g.registryPath, "registry", "", "path to the channel registry file (required)")
	fs.StringVar(&g.trustPath, "trust-file", "", "path to the signer lifecycle audit log (used by the trust subcommand)")
	return fs
}

// resolve merges flag overrides onto config.Load()'s environment defaults
// and validates the result.
func (g *globalFlags) resolve() (*config.Config, error) {
	cfg := config.Load()
	if g.transport != "" {
		cfg.Transport = config.TransportKind(g.transport)
	}
	if g.unixPath != "" {
		cfg.UnixPath = g.unixPath
	}
	if g.remoteEndpoint != "" {
		cfg.RemoteEndpoint = g.remoteEndpoint
	}
	if g.registryPath != "" {
		cfg.RegistryPath = g.registryPath
	}
	if g.trustPath != "" {
		cfg.TrustPath = g.trustPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledgerd: %w", err)
	}
	return cfg, nil
}
