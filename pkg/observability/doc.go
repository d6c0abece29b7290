// Package observability provides OpenTelemetry tracing and metrics for
// ledgerd, plus the GET /metrics and GET /healthz status endpoints.
//
// # Tracing and metrics
//
// Initialize at application startup:
//
//	p, err := observability.New(ctx, observability.DefaultConfig())
//	defer p.Shutdown(ctx)
//
// Track an operation from start to finish:
//
//	ctx, finish := p.TrackOperation(ctx, "ledger.append", observability.AppendOperation(channel)...)
//	defer finish(err)
//
// TrackAppend wraps one append the same way and also updates the plain
// Status counters exposed by /metrics. orchestrator.Append does not call it;
// those counters change only through TrackAppend and RecordBackpressure:
//
//	ctx, finish := p.TrackAppend(ctx, channel)
//	defer finish(err)
//
// # Status endpoints
//
// Handler returns an http.Handler serving both status routes:
//
//	http.ListenAndServe(cfg.MetricsAddr, p.Handler(func() uint64 { return uint64(log.Len()) }))
//
// GET /metrics returns text/plain counters (appends, validation failures,
// backpressure events). GET /healthz returns JSON: {"status":"ok","log_length":N}.
package observability
