package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// runAppendCmd implements `ledgerd append --file ENV.json`: decode the
// envelope, append it through the configured transport, print the receipt.
func runAppendCmd(ctx context.Context, global *globalFlags, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("file", "", "path to a JSON-encoded envelope (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		fmt.Fprintln(stderr, "ledgerd append: --file is required")
		return 2
	}

	cfg, err := global.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: read %s: %w", *path, err))
		return 1
	}

	var env envelope.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: decode envelope: %w", err))
		return 1
	}

	t, closer, err := resolveTransport(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closer()

	receipt, err := t.Append(ctx, &env)
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: append: %w", err))
		return 1
	}

	out, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}
