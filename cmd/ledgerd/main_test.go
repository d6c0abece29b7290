package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/hashkit"
)

func writeRegistry(t *testing.T, signer hashkit.Signer) string {
	t.Helper()
	doc := map[string]any{
		"channels": map[string]any{
			"telemetry": map[string]any{
				"min_signers":     1,
				"allowed_signers": []string{signer.PublicKeyHex()},
			},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeEnvelope(t *testing.T, signer hashkit.Signer) string {
	t.Helper()
	body := envelope.Body{Payload: json.RawMessage(`{"n":1,"domain":"alpha"}`)}
	bh, err := envelope.BodyHash(body)
	require.NoError(t, err)
	env := &envelope.Envelope{
		Header: envelope.Header{Channel: "telemetry", Version: 1, BodyHash: bh, Timestamp: 1},
		Body:   body,
	}
	require.NoError(t, envelope.Sign(env, signer))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "envelope.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_AppendTwiceOverLoopback(t *testing.T) {
	signer, err := hashkit.NewEd25519Signer("k1")
	require.NoError(t, err)
	registryPath := writeRegistry(t, signer)
	envPath := writeEnvelope(t, signer)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerd", "--registry", registryPath, "append", "--file", envPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), `"index": 0`)

	// A second loopback invocation opens a fresh in-process log, since
	// loopback has no daemon to persist state across CLI calls, so the same
	// genesis envelope is accepted again at index 0.
	stdout.Reset()
	stderr.Reset()
	code = Run([]string{"ledgerd", "--registry", registryPath, "append", "--file", envPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), `"index": 0`)
}

func TestRun_MissingRegistryFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerd", "read"}, &stdout, &stderr)
	require.NotEqual(t, 0, code)
	require.Contains(t, stderr.String(), "registry")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerd", "--registry", "x.json", "bogus"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "Unknown command")
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerd", "help"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "ledgerd")
}
