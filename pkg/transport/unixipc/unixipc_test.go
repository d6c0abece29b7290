package unixipc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ea-systems/ledger/pkg/cas"
	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/hashkit"
	"github.com/ea-systems/ledger/pkg/index"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/registry"
)

func newTestServer(t *testing.T, signer hashkit.Signer, path string) (*Server, context.CancelFunc) {
	t.Helper()
	reg := registry.New()
	reg.Upsert("c", registry.ChannelPolicy{MinSigners: 1, AllowedSigners: []string{signer.PublicKeyHex()}})
	store, err := cas.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	log := ledger.New(ledger.NewMemoryStorage())
	orch := orchestrator.New(log, store, index.New(), reg, 1)
	srv := NewServer(path, orch, log, 4)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.ListenAndServe(ctx) }()
	require.Eventually(t, func() bool { return reachable(path) }, time.Second, 10*time.Millisecond)
	return srv, cancel
}

func sealedEnvelope(t *testing.T, signer hashkit.Signer, channel string, ts uint64, payload string) *envelope.Envelope {
	t.Helper()
	body := envelope.Body{Payload: json.RawMessage(payload)}
	bh, err := envelope.BodyHash(body)
	require.NoError(t, err)
	env := &envelope.Envelope{Header: envelope.Header{Channel: channel, Version: 1, BodyHash: bh, Timestamp: ts}, Body: body}
	require.NoError(t, envelope.Sign(env, signer))
	return env
}

func TestUnixIPC_AppendReadSubscribe(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ledger.sock")
	_, cancel := newTestServer(t, signer, path)
	defer cancel()

	client := NewClient(path)
	ctx := context.Background()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	env := sealedEnvelope(t, signer, "c", 1, `{"n":1}`)
	receipt, err := client.Append(ctx, env)
	require.NoError(t, err)
	require.Equal(t, 0, receipt.Index)
	require.True(t, receipt.Verify())

	select {
	case got := <-sub.Envelopes():
		require.Equal(t, env.Header.Channel, got.Header.Channel)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribed event")
	}

	envs, err := client.Read(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, envs, 1)
}

func TestUnixIPC_AppendRejectsUnknownChannel(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ledger.sock")
	_, cancel := newTestServer(t, signer, path)
	defer cancel()

	client := NewClient(path)
	env := sealedEnvelope(t, signer, "unknown-channel", 1, `{"n":1}`)
	_, err = client.Append(context.Background(), env)
	require.Error(t, err)
}

func TestBindTransport_FirstCallerBindsSecondJoinsAsClient(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ledger.sock")

	reg := registry.New()
	reg.Upsert("c", registry.ChannelPolicy{MinSigners: 1, AllowedSigners: []string{signer.PublicKeyHex()}})
	store, err := cas.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	log := ledger.New(ledger.NewMemoryStorage())
	orch := orchestrator.New(log, store, index.New(), reg, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := BindTransport(ctx, path, orch, log, 4)
	require.NoError(t, err)
	_, isServer := first.(*Server)
	require.True(t, isServer, "first caller at a fresh path should bind a server")

	require.Eventually(t, func() bool { return reachable(path) }, time.Second, 10*time.Millisecond)

	second, err := BindTransport(ctx, path, orch, log, 4)
	require.NoError(t, err)
	_, isClient := second.(*Client)
	require.True(t, isClient, "second caller at an already-bound path should get a client")
}
