package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// RedisFanout bridges a Server's Subscribe broadcast across processes: an
// Append on replica A is published here and every replica's Subscribe
// streams see it (SPEC_FULL §4.N.2). The wire form is plain JSON rather
// than the envelope's canonical signing form — this is an internal relay
// between trusted replicas, not a hashed artifact.
type RedisFanout struct {
	client  *redis.Client
	channel string
}

// NewRedisFanout wires a fanout bridge atop an already-configured
// redis.Client and a dedicated Pub/Sub channel name.
func NewRedisFanout(client *redis.Client, channel string) *RedisFanout {
	return &RedisFanout{client: client, channel: channel}
}

// Publish relays env to every other replica subscribed to the same channel.
// Errors are swallowed to a warning: a fanout miss degrades to "local
// subscribers only see it", never to a failed Append.
func (f *RedisFanout) Publish(ctx context.Context, env *envelope.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Warn("remote: fanout marshal failed", "error", err)
		return
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		slog.Warn("remote: fanout publish failed", "error", err)
	}
}

// Subscribe opens a Pub/Sub subscription and forwards decoded envelopes
// into a locally bounded channel.
func (f *RedisFanout) Subscribe(ctx context.Context) (*redisSubscription, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{ps: ps, ch: make(chan *envelope.Envelope, 64)}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	ch        chan *envelope.Envelope
	closeOnce sync.Once
}

func (s *redisSubscription) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		var env envelope.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			slog.Warn("remote: fanout decode failed", "error", err)
			continue
		}
		select {
		case s.ch <- &env:
		default:
			slog.Warn("remote: fanout subscriber backpressure, dropping envelope")
		}
	}
}

func (s *redisSubscription) Envelopes() <-chan *envelope.Envelope { return s.ch }

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() { _ = s.ps.Close() })
	return nil
}
