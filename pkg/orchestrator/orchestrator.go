// Package orchestrator implements the ledger's single-writer front door
// (spec component J, "the brainstem"): the only code path that mutates the
// log, the CAS, the domain index, and the checkpoint writer. Every other
// package in this module is a pure function or a passive store; this is
// where they are composed into one atomic append.
//
// Grounded on the teacher corpus's console.MetricsManager for the bounded,
// mutex-guarded alert list (AddAlert/GetActiveAlerts, RWMutex-protected), and
// on store.AuditStore's Append for the shape of a single-writer operation
// that touches several pieces of internal state under one lock before
// returning.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ea-systems/ledger/pkg/cas"
	"github.com/ea-systems/ledger/pkg/codec"
	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/index"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/registry"
)

// versionChecker is implemented by *registry.ChannelRegistry. Asserted out
// of the narrow envelope.Registry the orchestrator is constructed with, so a
// test double satisfying only envelope.Registry simply skips this step.
type versionChecker interface {
	GetFull(channel string) (registry.ChannelPolicy, bool)
}

// ErrorCode enumerates the orchestrator's own error taxonomy, layered above
// envelope.ErrorCode and cas.InvariantViolationError: codes a transport can
// map onto a wire-level admission response (spec.md §7).
type ErrorCode string

const (
	ErrReservedKey        ErrorCode = "ReservedKey"
	ErrBodyHashMismatch   ErrorCode = "BodyHashMismatch"
	ErrAttestationInvalid ErrorCode = "AttestationInvalid"
	ErrValidation         ErrorCode = "Validation"
	ErrInvariantViolation ErrorCode = "InvariantViolation"
	ErrStorageFailure     ErrorCode = "StorageFailure"
)

// OrchestratorError is returned by Append for every rejected admission.
// Cause, when set, is the underlying error (an *envelope.ValidationError or
// *cas.InvariantViolationError) for callers that want to type-switch past
// the orchestrator's own taxonomy.
type OrchestratorError struct {
	Code   ErrorCode
	Detail string
	Cause  error
}

func (e *OrchestratorError) Error() string {
	if e.Detail == "" {
		return "orchestrator: " + string(e.Code)
	}
	return fmt.Sprintf("orchestrator: %s: %s", e.Code, e.Detail)
}

func (e *OrchestratorError) Unwrap() error { return e.Cause }

// Alert is a structured, non-fatal notice raised alongside certain rejected
// appends (self-check mismatches, checkpoint disagreement) — evidence that
// something is wrong even when the admission path itself recovers or fails
// safely. Bounded to the orchestrator's configured capacity; oldest alerts
// are dropped first.
type Alert struct {
	Time    time.Time
	Message string
	Err     error
}

// QuerySlice is the result of QueryWithProofs: the requested envelopes
// alongside a receipt per envelope, all against the same root.
type QuerySlice struct {
	Envelopes []*envelope.Envelope
	Receipts  []ledger.Receipt
}

const defaultMaxAlerts = 256

// Orchestrator composes the validator, CAS, log, domain index, and
// checkpoint writer behind one exclusive write path. It is safe for
// concurrent use: Append serializes writers, while reads (QueryWithProofs,
// Alerts) only ever take the narrower locks they need.
type Orchestrator struct {
	writeMu    sync.Mutex
	log        *ledger.Log
	store      cas.Store
	idx        *index.Index
	reg        envelope.Registry
	checkpoint *ledger.CheckpointWriter

	alertsMu  sync.Mutex
	alerts    []Alert
	maxAlerts int
}

// New wires a ledger.Log, a cas.Store, a domain index.Index, a channel
// registry, and a checkpoint interval into one Orchestrator. checkpointEvery
// <= 0 disables automatic checkpointing.
func New(log *ledger.Log, store cas.Store, idx *index.Index, reg envelope.Registry, checkpointEvery int) *Orchestrator {
	var cpw *ledger.CheckpointWriter
	if checkpointEvery > 0 {
		cpw = ledger.NewCheckpointWriter(checkpointEvery)
	}
	return &Orchestrator{
		log:        log,
		store:      store,
		idx:        idx,
		reg:        reg,
		checkpoint: cpw,
		maxAlerts:  defaultMaxAlerts,
	}
}

func (o *Orchestrator) alert(message string, err error) {
	slog.Default().Error(message, "error", err)
	o.alertsMu.Lock()
	defer o.alertsMu.Unlock()
	o.alerts = append(o.alerts, Alert{Time: time.Now().UTC(), Message: message, Err: err})
	if len(o.alerts) > o.maxAlerts {
		o.alerts = o.alerts[len(o.alerts)-o.maxAlerts:]
	}
}

// Alerts returns a copy of the currently retained alerts, oldest first.
func (o *Orchestrator) Alerts() []Alert {
	o.alertsMu.Lock()
	defer o.alertsMu.Unlock()
	out := make([]Alert, len(o.alerts))
	copy(out, o.alerts)
	return out
}

// Append runs the spec.md §4.J algorithm: reserved-key rejection, self-check
// of body and attestation hashes (alerting on mismatch), chain linkage,
// validation, CAS put, log append (itself re-validating, the "defense in
// depth" pass), domain index update, Merkle proof computation, and an
// advisory checkpoint — returning a Receipt a third party can independently
// verify.
func (o *Orchestrator) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	// 1. Reject payloads carrying reserved keys.
	if key, bad := env.HasReservedKeys(); bad {
		return nil, &OrchestratorError{Code: ErrReservedKey, Detail: "payload contains reserved key " + key}
	}

	// 2. Self-check body hash.
	bh, err := envelope.BodyHash(env.Body)
	if err != nil {
		o.alert("body hash computation failed", err)
		return nil, &OrchestratorError{Code: ErrBodyHashMismatch, Detail: err.Error(), Cause: err}
	}
	if bh != env.Header.BodyHash {
		mismatchErr := errors.New("computed body hash does not match header.body_hash")
		o.alert("body hash self-check failed", mismatchErr)
		return nil, &OrchestratorError{Code: ErrBodyHashMismatch, Detail: mismatchErr.Error()}
	}

	// 3. Self-check every attestation's statement hash.
	for i, att := range env.Attestations {
		sh, err := envelope.StatementHash(att.Statement)
		if err != nil || sh != att.StatementHash {
			detail := fmt.Sprintf("attestation %d statement_hash mismatch", i)
			o.alert("attestation self-check failed", errors.New(detail))
			return nil, &OrchestratorError{Code: ErrAttestationInvalid, Detail: detail}
		}
	}

	// 4. Read channel tail, build prior state, fill header.prev if empty.
	prior := o.log.ChannelState(env.Header.Channel)
	if env.Header.Prev == "" && prior.HasLastHash {
		env.Header.Prev = prior.LastHash
	}

	// 4.5. Semver-gate header.version against the channel's supported range
	// (SPEC_FULL §4.J.2) and evaluate the channel's PolicyExpr (§4.J.1), when
	// the registry exposes the full policy.
	if vc, ok := o.reg.(versionChecker); ok {
		if policy, found := vc.GetFull(env.Header.Channel); found {
			if err := policy.CheckVersion(env.Header.Version); err != nil {
				o.alert("version check rejected envelope", err)
				return nil, &OrchestratorError{Code: ErrValidation, Detail: err.Error(), Cause: err}
			}
			if policy.PolicyExpr != "" {
				var fields map[string]interface{}
				_ = json.Unmarshal(env.Body.Payload, &fields)
				pass, err := policy.EvaluatePolicyExpr(env.Domain(), fields)
				if err == nil && !pass {
					err = fmt.Errorf("channel policy expression %q rejected envelope", policy.PolicyExpr)
				}
				if err != nil {
					o.alert("policy expression rejected envelope", err)
					return nil, &OrchestratorError{Code: ErrValidation, Detail: err.Error(), Cause: err}
				}
			}
		}
	}

	// 5. Validate (first of two defense-in-depth passes).
	if _, err := envelope.Validate(env, o.reg, prior); err != nil {
		o.alert("validation rejected envelope", err)
		return nil, &OrchestratorError{Code: ErrValidation, Detail: err.Error(), Cause: err}
	}

	// 6. CAS put. spec.md §4.H computes H_payload(canonical(payload)): two
	// envelopes carrying the same logical payload under different key order
	// or whitespace must dedupe to the same CAS entry.
	canonicalPayload, err := codec.Canonicalize(env.Body.Payload)
	if err != nil {
		return nil, &OrchestratorError{Code: ErrValidation, Detail: "canonicalize payload: " + err.Error(), Cause: err}
	}
	if _, err := o.store.Put(ctx, canonicalPayload); err != nil {
		var inv *cas.InvariantViolationError
		if errors.As(err, &inv) {
			return nil, &OrchestratorError{Code: ErrInvariantViolation, Detail: err.Error(), Cause: err}
		}
		return nil, &OrchestratorError{Code: ErrStorageFailure, Detail: err.Error(), Cause: err}
	}

	// 7. Append to log — re-runs validation under the same registry.
	if err := o.log.Append(env, o.reg); err != nil {
		o.alert("log append rejected envelope after CAS put", err)
		return nil, &OrchestratorError{Code: ErrValidation, Detail: err.Error(), Cause: err}
	}
	idx := o.log.Len() - 1

	// 8. Domain index.
	o.idx.Observe(env.Header.Channel, uint64(idx), env.Body.Payload)

	// 9. Merkle root + inclusion proof for the new leaf.
	root, ok, err := o.log.MerkleRoot()
	if err != nil || !ok {
		return nil, &OrchestratorError{Code: ErrStorageFailure, Detail: "merkle root unavailable immediately after append"}
	}
	proof, err := o.log.InclusionProof(idx)
	if err != nil {
		return nil, &OrchestratorError{Code: ErrStorageFailure, Detail: err.Error(), Cause: err}
	}

	// 10. Advisory checkpoint; disagreement is a warning, never a failure.
	if o.checkpoint != nil {
		cp, err := o.checkpoint.MaybeCheckpoint(o.log)
		if err != nil {
			o.alert("checkpoint computation failed", err)
		} else if cp != nil && cp.Root != root {
			o.alert("checkpoint root disagrees with just-computed root",
				fmt.Errorf("checkpoint root %s != append root %s", cp.Root, root))
		}
	}

	envHash, err := envelope.Hash(env)
	if err != nil {
		return nil, &OrchestratorError{Code: ErrStorageFailure, Detail: err.Error(), Cause: err}
	}

	// 11. Receipt.
	return &ledger.Receipt{Index: idx, EnvelopeHash: envHash, MerkleRoot: root, InclusionProof: proof}, nil
}

// QueryWithProofs reads the [offset, offset+limit) slice and returns a
// receipt per envelope, all computed against the log's root at the moment
// of the call. An empty log yields an empty QuerySlice, never an error.
func (o *Orchestrator) QueryWithProofs(offset, limit int) (*QuerySlice, error) {
	envs, err := o.log.Read(offset, limit)
	if err != nil {
		return nil, err
	}
	root, ok, err := o.log.MerkleRoot()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &QuerySlice{}, nil
	}
	receipts := make([]ledger.Receipt, len(envs))
	for i, e := range envs {
		leafIndex := offset + i
		proof, err := o.log.InclusionProof(leafIndex)
		if err != nil {
			return nil, err
		}
		h, err := envelope.Hash(e)
		if err != nil {
			return nil, err
		}
		receipts[i] = ledger.Receipt{Index: leafIndex, EnvelopeHash: h, MerkleRoot: root, InclusionProof: proof}
	}
	return &QuerySlice{Envelopes: envs, Receipts: receipts}, nil
}
