//go:build gcp

package cas

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// GCSStore is a CAS adapter over Google Cloud Storage, build-tagged `gcp`
// exactly as the teacher corpus tags its GCSStore — operators who don't need
// GCP support never link the dependency. Grounded directly on
// artifacts/gcs_store.go with the digest swapped from sha256 to H_payload.
type GCSStore struct {
	client   *storage.Client
	bucket   string
	prefix   string
	maxBytes int
}

// GCSStoreConfig configures a GCSStore.
type GCSStoreConfig struct {
	Bucket   string
	Prefix   string
	MaxBytes int
}

// NewGCSStore builds a GCS-backed CAS using Application Default Credentials.
func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cas: create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, maxBytes: cfg.MaxBytes}, nil
}

func (s *GCSStore) objectPath(digest string) string { return s.prefix + digest + ".blob" }

func (s *GCSStore) Put(ctx context.Context, payload []byte) (string, error) {
	if err := checkSize(payload, s.maxBytes); err != nil {
		return "", err
	}
	digest := string(hashkit.Hash(hashkit.DomainPayload, payload))
	obj := s.client.Bucket(s.bucket).Object(s.objectPath(digest))

	if _, err := obj.Attrs(ctx); err == nil {
		return digest, nil
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("cas: gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("cas: gcs close: %w", err)
	}
	return digest, nil
}

func (s *GCSStore) Get(ctx context.Context, digest string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.objectPath(digest)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("cas: gcs get %s: %w", digest, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

func (s *GCSStore) Exists(ctx context.Context, digest string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(s.objectPath(digest)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("cas: gcs attrs: %w", err)
	}
	return true, nil
}

// Close releases the underlying GCS client.
func (s *GCSStore) Close() error { return s.client.Close() }
