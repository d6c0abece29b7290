package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/ea-systems/ledger/pkg/config"
	"github.com/ea-systems/ledger/pkg/observability"
	"github.com/ea-systems/ledger/pkg/transport/remote"
	"github.com/ea-systems/ledger/pkg/transport/unixipc"
)

// runDaemonCmd binds the configured transport and serves it until a
// termination signal arrives, matching the teacher's runServer shutdown
// handling (signal.NotifyContext on SIGINT/SIGTERM, then waiting on the
// context's Done channel).
func runDaemonCmd(ctx context.Context, global *globalFlags, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	checkpoint := fs.Int("checkpoint", 0, "override LEDGER_CHECKPOINT_EVERY")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := global.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *checkpoint > 0 {
		cfg.CheckpointEvery = *checkpoint
	}

	rt, err := buildCoreRuntime(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	provider, err := observability.New(ctx, observability.DefaultConfig())
	if err != nil {
		fmt.Fprintln(stderr, fmt.Errorf("ledgerd: observability: %w", err))
		return 1
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if cfg.MetricsAddr != "" {
		mux := provider.Handler(func() uint64 { return uint64(rt.log.Len()) })
		go func() {
			slog.Info("ledgerd: status endpoints listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil { //nolint:gosec
				slog.Error("ledgerd: status server failed", "error", err)
			}
		}()
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.Transport {
	case config.TransportLoopback:
		fmt.Fprintf(stdout, "%sledgerd%s: loopback transport has no network listener; idling until shutdown\n", ColorBold+ColorBlue, ColorReset)
		<-sigCtx.Done()

	case config.TransportUnix:
		srv := unixipc.NewServer(cfg.UnixPath, rt.orch, rt.log, cfg.BackpressureDepth)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe(sigCtx) }()
		fmt.Fprintf(stdout, "%sledgerd%s: unix-ipc listening on %s\n", ColorBold+ColorBlue, ColorReset, cfg.UnixPath)
		select {
		case <-sigCtx.Done():
			_ = srv.Close()
		case err := <-errCh:
			if err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
		}

	case config.TransportRemote:
		ln, err := net.Listen("tcp", cfg.RemoteEndpoint)
		if err != nil {
			fmt.Fprintln(stderr, fmt.Errorf("ledgerd: listen %s: %w", cfg.RemoteEndpoint, err))
			return 1
		}
		grpcServer := grpc.NewServer()
		remoteSrv := remote.NewServer(rt.orch, rt.log, cfg.BackpressureDepth)
		grpcServer.RegisterService(&remote.ServiceDesc, remoteSrv)

		go func() {
			<-sigCtx.Done()
			grpcServer.GracefulStop()
		}()

		fmt.Fprintf(stdout, "%sledgerd%s: remote streaming listening on %s\n", ColorBold+ColorBlue, ColorReset, cfg.RemoteEndpoint)
		if err := grpcServer.Serve(ln); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}

	default:
		fmt.Fprintf(stderr, "ledgerd: unknown transport %q\n", cfg.Transport)
		return 2
	}

	fmt.Fprintln(stdout, "ledgerd: shut down")
	return 0
}
