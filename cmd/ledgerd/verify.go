package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ea-systems/ledger/pkg/replay"
)

// runVerifyCmd implements `ledgerd verify`: re-validates the full configured
// log from empty channel state against the current registry (spec.md §4.G),
// for recovery after a restart and for end-to-end audit tooling.
func runVerifyCmd(ctx context.Context, global *globalFlags, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := global.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	rt, err := buildCoreRuntime(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	sequence, err := rt.log.Read(0, rt.log.Len())
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: verify: read log: %w", err))
		return 1
	}

	result := replay.Validate(sequence, rt.reg)
	fmt.Fprintln(stdout, result.Summary)
	if !result.Valid {
		fmt.Fprintln(stderr, result.FailureError)
		return 1
	}
	return 0
}
