package observability

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status    string `json:"status"`
	LogLength uint64 `json:"log_length"`
}

// Handler builds the status mux spec.md §6 describes: GET /metrics
// (text/plain counters) and GET /healthz (JSON {status, log_length}).
// logLength is called fresh on every /healthz request so the reported
// length always reflects the live log.
func (p *Provider) Handler(logLength LogLengthFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", p.handleMetrics)
	mux.HandleFunc("/healthz", p.handleHealthz(logLength))
	return mux
}

func (p *Provider) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ledger_appends_total %d\n", p.status.Appends.Load())
	fmt.Fprintf(w, "ledger_validation_failures_total %d\n", p.status.ValidationFailures.Load())
	fmt.Fprintf(w, "ledger_backpressure_events_total %d\n", p.status.BackpressureEvents.Load())
}

func (p *Provider) handleHealthz(logLength LogLengthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var length uint64
		if logLength != nil {
			length = logLength()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", LogLength: length})
	}
}
