package mailbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ea-systems/ledger/pkg/cas"
	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/hashkit"
	"github.com/ea-systems/ledger/pkg/index"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/registry"
)

func newTestMailbox(t *testing.T, signer hashkit.Signer, slotBytes, slotCount int) *Transport {
	t.Helper()
	reg := registry.New()
	reg.Upsert("c", registry.ChannelPolicy{MinSigners: 1, AllowedSigners: []string{signer.PublicKeyHex()}})
	store, err := cas.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	log := ledger.New(ledger.NewMemoryStorage())
	orch := orchestrator.New(log, store, index.New(), reg, 1)
	return New(orch, log, 4, slotBytes, slotCount)
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

func TestMailbox_AppendReadSubscribe(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	mb := newTestMailbox(t, signer, 4096, 2)
	ctx := context.Background()

	sub, err := mb.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	env := sealedEnvelope(t, signer, "c", 1, `{"n":1}`)
	receipt, err := mb.Append(ctx, env)
	require.NoError(t, err)
	require.True(t, receipt.Verify())
	require.Equal(t, 1, mb.OccupiedSlots())

	got := <-sub.Envelopes()
	require.Equal(t, env.Header.Channel, got.Header.Channel)

	envs, err := mb.Read(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, envs, 1)
}

func TestMailbox_RejectsOversizeEnvelope(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	mb := newTestMailbox(t, signer, 16, 4)

	env := sealedEnvelope(t, signer, "c", 1, `{"n":1}`)
	_, err = mb.Append(context.Background(), env)
	require.Error(t, err)
	var slotErr *SlotError
	require.ErrorAs(t, err, &slotErr)
}

func TestMailbox_FullRingRejectsWithoutOverwrite(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	mb := newTestMailbox(t, signer, 4096, 1)
	ctx := context.Background()

	first := sealedEnvelope(t, signer, "c", 1, `{"n":1}`)
	_, err = mb.Append(ctx, first)
	require.NoError(t, err)

	second := sealedEnvelope(t, signer, "c", 2, `{"n":2}`)
	_, err = mb.Append(ctx, second)
	require.Error(t, err)
	var slotErr *SlotError
	require.ErrorAs(t, err, &slotErr)

	mb.Ack(1)
	require.Equal(t, 0, mb.OccupiedSlots())

	_, err = mb.Append(ctx, second)
	require.NoError(t, err)
}
