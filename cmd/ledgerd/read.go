package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
)

// runReadCmd implements `ledgerd read --offset N --limit M`: fetch a slice
// of the log through the configured transport and print it as JSON.
func runReadCmd(ctx context.Context, global *globalFlags, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	fs.SetOutput(stderr)
	offset := fs.Int("offset", 0, "starting log index")
	limit := fs.Int("limit", 100, "maximum number of envelopes to return")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := global.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	t, closer, err := resolveTransport(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closer()

	envs, err := t.Read(ctx, *offset, *limit)
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: read: %w", err))
		return 1
	}

	out, err := json.MarshalIndent(envs, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}
