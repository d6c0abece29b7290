//go:build !gcp

package cas

import (
	"context"
	"fmt"
)

func newGCSStoreFromEnv(ctx context.Context, maxBytes int) (Store, error) {
	return nil, fmt.Errorf("cas: gcs backend not compiled in (build with -tags gcp)")
}
