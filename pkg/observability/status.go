package observability

import "sync/atomic"

// Status holds the plain counters spec.md §6 requires GET /metrics to
// expose. Provider.TrackAppend increments Appends or ValidationFailures,
// Provider.RecordBackpressure increments BackpressureEvents, and Handler
// reads them back, independent of whether OTLP export is enabled.
type Status struct {
	Appends            atomic.Int64
	ValidationFailures atomic.Int64
	BackpressureEvents atomic.Int64
}

// NewStatus returns a zeroed Status.
func NewStatus() *Status { return &Status{} }

// LogLengthFunc reports the current length of the append-only log, for
// /healthz. Supplied by whatever owns the log (orchestrator or a transport
// wrapping it) since Status itself has no log reference.
type LogLengthFunc func() uint64
