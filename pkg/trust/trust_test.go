package trust

import (
	"path/filepath"
	"testing"
)

func TestLedger_AddAndResolve(t *testing.T) {
	l := New()

	err := l.Apply(SignerEvent{
		EventType:    KeyAdded,
		Channel:      "telemetry",
		KeyID:        "k-1",
		PublicKeyHex: "aabbcc",
		Sequence:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	keys := l.ResolveAuthorizedKeys("telemetry", ^uint64(0))
	if len(keys) != 1 || keys[0] != "aabbcc" {
		t.Fatalf("expected 1 key aabbcc, got %v", keys)
	}
}

func TestLedger_RevokeKey(t *testing.T) {
	l := New()
	if err := l.Apply(SignerEvent{EventType: KeyAdded, Channel: "c1", KeyID: "k1", PublicKeyHex: "11", Sequence: 1}); err != nil {
		t.Fatal(err)
	}
	if err := l.Apply(SignerEvent{EventType: KeyRevoked, Channel: "c1", KeyID: "k1", Sequence: 2}); err != nil {
		t.Fatal(err)
	}

	if keys := l.ResolveAuthorizedKeys("c1", ^uint64(0)); len(keys) != 0 {
		t.Fatalf("expected no live keys after revoke, got %v", keys)
	}
	// Historical query before the revoke still sees the key.
	if keys := l.ResolveAuthorizedKeys("c1", 1); len(keys) != 1 {
		t.Fatalf("expected 1 key as of sequence 1, got %v", keys)
	}
}

func TestLedger_RejectsDuplicateAdd(t *testing.T) {
	l := New()
	if err := l.Apply(SignerEvent{EventType: KeyAdded, Channel: "c1", KeyID: "k1", PublicKeyHex: "11", Sequence: 1}); err != nil {
		t.Fatal(err)
	}
	if err := l.Apply(SignerEvent{EventType: KeyAdded, Channel: "c1", KeyID: "k1", PublicKeyHex: "11", Sequence: 2}); err == nil {
		t.Fatal("expected error re-adding a live key")
	}
}

func TestLedger_RejectsRevokeOfUnknownKey(t *testing.T) {
	l := New()
	if err := l.Apply(SignerEvent{EventType: KeyRevoked, Channel: "c1", KeyID: "ghost", Sequence: 1}); err == nil {
		t.Fatal("expected error revoking a key that was never added")
	}
}

func TestLedger_ChannelsAreIndependent(t *testing.T) {
	l := New()
	if err := l.Apply(SignerEvent{EventType: KeyAdded, Channel: "a", KeyID: "k1", PublicKeyHex: "aa", Sequence: 1}); err != nil {
		t.Fatal(err)
	}
	if keys := l.ResolveAuthorizedKeys("b", ^uint64(0)); len(keys) != 0 {
		t.Fatalf("expected channel b to be unaffected, got %v", keys)
	}
}

func TestAppendFileAndLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")

	if err := AppendFile(path, SignerEvent{EventType: KeyAdded, Channel: "c1", KeyID: "k1", PublicKeyHex: "aa", Sequence: 1}); err != nil {
		t.Fatal(err)
	}
	if err := AppendFile(path, SignerEvent{EventType: KeyAdded, Channel: "c1", KeyID: "k2", PublicKeyHex: "bb", Sequence: 2}); err != nil {
		t.Fatal(err)
	}

	l, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := l.EventCount(), 2; got != want {
		t.Fatalf("EventCount() = %d, want %d", got, want)
	}
	if keys := l.ResolveAuthorizedKeys("c1", ^uint64(0)); len(keys) != 2 {
		t.Fatalf("expected 2 live keys, got %v", keys)
	}
}

func TestLoadFile_MissingFileReturnsEmptyLedger(t *testing.T) {
	l, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if l.EventCount() != 0 {
		t.Fatalf("expected empty ledger, got %d events", l.EventCount())
	}
}
