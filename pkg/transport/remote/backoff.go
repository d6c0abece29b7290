package remote

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/transport"
)

// retryContext identifies a single retry attempt for deterministic-jitter
// seeding — the same attempt always computes the same delay, so a replayed
// append produces an identical backoff schedule for debugging.
type retryContext struct {
	Method       string
	EnvelopeHash string
	AttemptIndex int
}

// RetryPolicy bounds a RetryingClient's reattempts of a failed Append.
type RetryPolicy struct {
	BaseMs      int64
	MaxMs       int64
	MaxJitterMs int64
	MaxAttempts int
}

// DefaultRetryPolicy matches the teacher's conservative default: short base
// delay, capped growth, small bounded jitter.
var DefaultRetryPolicy = RetryPolicy{BaseMs: 100, MaxMs: 5000, MaxJitterMs: 250, MaxAttempts: 5}

func computeBackoff(rc retryContext, policy RetryPolicy) time.Duration {
	factor := int64(1)
	if rc.AttemptIndex > 0 {
		if rc.AttemptIndex > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << rc.AttemptIndex
		}
	}

	baseDelay := policy.BaseMs * factor
	if baseDelay > policy.MaxMs {
		baseDelay = policy.MaxMs
	}

	jitter := computeDeterministicJitter(rc, policy)
	return time.Duration(baseDelay+jitter) * time.Millisecond
}

func computeDeterministicJitter(rc retryContext, policy RetryPolicy) int64 {
	seed := fmt.Sprintf("%s:%s:%d", rc.Method, rc.EnvelopeHash, rc.AttemptIndex)
	hash := sha256.Sum256([]byte(seed))
	jitterBasis := binary.BigEndian.Uint64(hash[:8])

	if policy.MaxJitterMs == 0 {
		return 0
	}
	return int64(jitterBasis % uint64(policy.MaxJitterMs)) //nolint:gosec // MaxJitterMs is always positive
}

// RetryingClient wraps a Client with bounded, deterministically-jittered
// reattempts of Append. Only transport-level failures are retried —
// validation and permission errors are the orchestrator's final word and
// retrying them would just repeat the same rejection.
type RetryingClient struct {
	inner  *Client
	policy RetryPolicy
}

// NewRetryingClient wraps an already-constructed Client.
func NewRetryingClient(inner *Client, policy RetryPolicy) *RetryingClient {
	return &RetryingClient{inner: inner, policy: policy}
}

// Append retries inner.Append up to policy.MaxAttempts times, sleeping the
// deterministic backoff between attempts, and gives up immediately on any
// non-transport error.
func (c *RetryingClient) Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error) {
	digest, err := envelope.Hash(env)
	if err != nil {
		return nil, err
	}
	envHash := digest.String()

	var lastErr error
	attempts := c.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := computeBackoff(retryContext{Method: "Append", EnvelopeHash: envHash, AttemptIndex: attempt}, c.policy)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		receipt, err := c.inner.Append(ctx, env)
		if err == nil {
			return receipt, nil
		}
		lastErr = err

		var transportErr *transport.TransportError
		if !errors.As(err, &transportErr) {
			return nil, err
		}
	}
	return nil, lastErr
}

// Read passes straight through to the inner client — only Append carries
// retry semantics, since Read has no side effects to guard against
// duplication.
func (c *RetryingClient) Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error) {
	return c.inner.Read(ctx, offset, limit)
}

// Subscribe passes straight through to the inner client.
func (c *RetryingClient) Subscribe(ctx context.Context) (transport.Subscription, error) {
	return c.inner.Subscribe(ctx)
}

var _ transport.Transport = (*RetryingClient)(nil)
