//go:build gcp

package cas

import (
	"context"
	"fmt"
	"os"
)

func newGCSStoreFromEnv(ctx context.Context, maxBytes int) (Store, error) {
	bucket := os.Getenv("LEDGER_CAS_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("cas: LEDGER_CAS_GCS_BUCKET is required for gcs backend")
	}
	return NewGCSStore(ctx, GCSStoreConfig{
		Bucket:   bucket,
		Prefix:   os.Getenv("LEDGER_CAS_GCS_PREFIX"),
		MaxBytes: maxBytes,
	})
}
