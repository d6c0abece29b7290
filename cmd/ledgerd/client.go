package main

import (
	"context"
	"fmt"

	"github.com/ea-systems/ledger/pkg/config"
	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/transport"
	"github.com/ea-systems/ledger/pkg/transport/remote"
	"github.com/ea-systems/ledger/pkg/transport/unixipc"
)

// resolveTransport returns a transport.Transport for append/read per cfg's
// transport kind. loopback opens its own in-process orchestrator (there is
// no daemon to dial); unix and remote dial a daemon already running via
// `ledgerd daemon`. closer, if non-nil, must be called once the command
// finishes.
func resolveTransport(ctx context.Context, cfg *config.Config) (transport.Transport, func(), error) {
	switch cfg.Transport {
	case config.TransportLoopback:
		rt, err := buildCoreRuntime(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return loopbackDirect{rt: rt}, func() {}, nil

	case config.TransportUnix:
		return unixipc.NewClient(cfg.UnixPath), func() {}, nil

	case config.TransportRemote:
		conn, err := remote.Dial(cfg.RemoteEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("ledgerd: dial %s: %w", cfg.RemoteEndpoint, err)
		}
		client := remote.NewClient(conn, nil)
		return client, func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("ledgerd: unknown transport %q", cfg.Transport)
	}
}

// loopbackDirect adapts a freshly-built coreRuntime's orchestrator to
// transport.Transport for one-shot CLI commands, without a broadcaster —
// append/read subcommands never subscribe.
type loopbackDirect struct {
	rt *coreRuntime
}

func (l loopbackDirect) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	return l.rt.orch.Append(ctx, env)
}

func (l loopbackDirect) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	return l.rt.log.Read(offset, limit)
}

func (l loopbackDirect) Subscribe(ctx context.Context) (transport.Subscription, error) {
	return nil, &transport.UnsupportedError{Detail: "loopbackDirect does not support subscribe; use the loopback package directly in-process"}
}
