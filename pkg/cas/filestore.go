package cas

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// FileStore is the spec-mandated default CAS: a directory whose files are
// named lowercase-hex(H_payload(payload)) (spec.md §6 "CAS layout").
type FileStore struct {
	baseDir  string
	maxBytes int
	mu       sync.RWMutex
}

// NewFileStore creates the backing directory (if needed) and returns a
// FileStore rooted there. maxBytes <= 0 means no ceiling.
func NewFileStore(baseDir string, maxBytes int) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("cas: create base dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, maxBytes: maxBytes}, nil
}

func (s *FileStore) path(digest string) string {
	return filepath.Join(s.baseDir, digest)
}

func (s *FileStore) Put(ctx context.Context, payload []byte) (string, error) {
	if err := checkSize(payload, s.maxBytes); err != nil {
		return "", err
	}
	digest := string(hashkit.Hash(hashkit.DomainPayload, payload))

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil // idempotent: already present
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("cas: write temp blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("cas: commit blob: %w", err)
	}
	return digest, nil
}

func (s *FileStore) Get(ctx context.Context, digest string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cas: digest %s not found", digest)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (s *FileStore) Exists(ctx context.Context, digest string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path(digest))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
