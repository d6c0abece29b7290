package unixipc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/transport"
)

// BindTransport is the spec.md §4.M `bind_transport(config)` helper: if a
// Unix socket already exists and answers at path, this process is joining
// an existing server and gets back a Client; otherwise it is the first
// process at that path, so it binds and starts a Server, accepting
// connections in the background for the lifetime of ctx. Either way the
// caller receives a transport.Transport and never needs to know which.
func BindTransport(ctx context.Context, path string, orch *orchestrator.Orchestrator, log *ledger.Log, depth int) (transport.Transport, error) {
	if reachable(path) {
		return NewClient(path), nil
	}

	srv := NewServer(path, orch, log, depth)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			slog.Error("unixipc: server stopped", "path", path, "error", err)
		}
	}()
	return srv, nil
}

func reachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
