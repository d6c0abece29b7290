package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/ea-systems/ledger/pkg/trust"
)

// runTrustCmd implements `ledgerd trust add|revoke|list`: operator-driven
// signer lifecycle management against the audit log at cfg.TrustPath. This
// does not touch the live registry file the validator reads from — an
// operator applies trust changes here, then reconciles registry.json
// separately, matching spec.md's invariant that a channel's policy at
// evaluation time is whatever was live when the envelope was appended.
func runTrustCmd(ctx context.Context, global *globalFlags, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "ledgerd trust: expected a subcommand: add, revoke, list")
		return 2
	}

	cfg, err := global.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch args[0] {
	case "add":
		return runTrustAdd(cfg.TrustPath, args[1:], stdout, stderr)
	case "revoke":
		return runTrustRevoke(cfg.TrustPath, args[1:], stdout, stderr)
	case "list":
		return runTrustList(cfg.TrustPath, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "ledgerd trust: unknown subcommand %q\n", args[0])
		return 2
	}
}

func runTrustAdd(path string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trust add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	channel := fs.String("channel", "", "channel name (required)")
	keyID := fs.String("key-id", "", "operator-facing key identifier (required)")
	pubKeyHex := fs.String("public-key", "", "hex-encoded Ed25519 public key (required)")
	sequence := fs.Uint64("sequence", 0, "audit sequence number for this event")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *channel == "" || *keyID == "" || *pubKeyHex == "" {
		fmt.Fprintln(stderr, "ledgerd trust add: --channel, --key-id, and --public-key are required")
		return 2
	}

	event := trust.SignerEvent{
		EventType:    trust.KeyAdded,
		Channel:      *channel,
		KeyID:        *keyID,
		PublicKeyHex: *pubKeyHex,
		Sequence:     *sequence,
	}
	if err := trust.AppendFile(path, event); err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd trust add: %w", err))
		return 1
	}
	fmt.Fprintf(stdout, "added key %s to channel %s\n", *keyID, *channel)
	return 0
}

func runTrustRevoke(path string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trust revoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	channel := fs.String("channel", "", "channel name (required)")
	keyID := fs.String("key-id", "", "key identifier to revoke (required)")
	sequence := fs.Uint64("sequence", 0, "audit sequence number for this event")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *channel == "" || *keyID == "" {
		fmt.Fprintln(stderr, "ledgerd trust revoke: --channel and --key-id are required")
		return 2
	}

	event := trust.SignerEvent{
		EventType: trust.KeyRevoked,
		Channel:   *channel,
		KeyID:     *keyID,
		Sequence:  *sequence,
	}
	if err := trust.AppendFile(path, event); err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd trust revoke: %w", err))
		return 1
	}
	fmt.Fprintf(stdout, "revoked key %s from channel %s\n", *keyID, *channel)
	return 0
}

func runTrustList(path string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trust list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	channel := fs.String("channel", "", "channel name (required)")
	asOf := fs.Uint64("as-of", math.MaxUint64, "audit sequence to evaluate as of (default: current)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *channel == "" {
		fmt.Fprintln(stderr, "ledgerd trust list: --channel is required")
		return 2
	}

	l, err := trust.LoadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd trust list: %w", err))
		return 1
	}

	keys := l.ResolveAuthorizedKeys(*channel, *asOf)
	out, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}
