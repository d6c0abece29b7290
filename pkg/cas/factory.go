package cas

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// BackendKind selects a Store implementation at startup.
type BackendKind string

const (
	BackendFile BackendKind = "file"
	BackendS3   BackendKind = "s3"
	BackendGCS  BackendKind = "gcs"
)

// NewStoreFromEnv builds a Store from environment variables, mirroring the
// teacher corpus's artifacts.NewStoreFromEnv: one switch over a storage-type
// variable, one env-driven constructor per backend.
//
//   - LEDGER_CAS_BACKEND: "file" (default), "s3", or "gcs"
//   - LEDGER_CAS_MAX_BYTES: optional payload size ceiling, any backend
//
// file: LEDGER_CAS_DIR (default "data/cas")
// s3:   LEDGER_CAS_S3_BUCKET (required), LEDGER_CAS_S3_REGION, LEDGER_CAS_S3_ENDPOINT, LEDGER_CAS_S3_PREFIX
// gcs:  LEDGER_CAS_GCS_BUCKET (required), LEDGER_CAS_GCS_PREFIX (requires -tags gcp)
func NewStoreFromEnv(ctx context.Context) (Store, error) {
	kind := BackendKind(os.Getenv("LEDGER_CAS_BACKEND"))
	if kind == "" {
		kind = BackendFile
	}
	maxBytes := 0
	if v := os.Getenv("LEDGER_CAS_MAX_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("cas: invalid LEDGER_CAS_MAX_BYTES: %w", err)
		}
		maxBytes = n
	}

	switch kind {
	case BackendFile:
		return newFileStoreFromEnv(maxBytes)
	case BackendS3:
		return newS3StoreFromEnv(ctx, maxBytes)
	case BackendGCS:
		return newGCSStoreFromEnv(ctx, maxBytes)
	default:
		return nil, fmt.Errorf("cas: unsupported backend %q", kind)
	}
}

func newFileStoreFromEnv(maxBytes int) (Store, error) {
	dir := os.Getenv("LEDGER_CAS_DIR")
	if dir == "" {
		dir = filepath.Join("data", "cas")
	}
	return NewFileStore(dir, maxBytes)
}

func newS3StoreFromEnv(ctx context.Context, maxBytes int) (Store, error) {
	bucket := os.Getenv("LEDGER_CAS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("cas: LEDGER_CAS_S3_BUCKET is required for s3 backend")
	}
	region := os.Getenv("LEDGER_CAS_S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	return NewS3Store(ctx, S3StoreConfig{
		Bucket:   bucket,
		Region:   region,
		Endpoint: os.Getenv("LEDGER_CAS_S3_ENDPOINT"),
		Prefix:   os.Getenv("LEDGER_CAS_S3_PREFIX"),
		MaxBytes: maxBytes,
	})
}
