package cas

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// S3Store is a CAS adapter over AWS S3 (or any S3-compatible endpoint, e.g.
// MinIO/LocalStack via S3StoreConfig.Endpoint), for cross-trust-domain
// durability. Grounded directly on the teacher corpus's artifacts.S3Store —
// same idempotent HeadObject-before-PutObject commit, same bucket/prefix
// config shape — with the key digest swapped from sha256 to H_payload.
type S3Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	maxBytes int
}

// S3StoreConfig configures an S3Store.
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint for MinIO/LocalStack
	Prefix   string
	MaxBytes int
}

// NewS3Store builds an S3-backed CAS using the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("cas: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, maxBytes: cfg.MaxBytes}, nil
}

func (s *S3Store) key(digest string) string { return s.prefix + digest + ".blob" }

func (s *S3Store) Put(ctx context.Context, payload []byte) (string, error) {
	if err := checkSize(payload, s.maxBytes); err != nil {
		return "", err
	}
	digest := string(hashkit.Hash(hashkit.DomainPayload, payload))
	key := s.key(digest)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err == nil {
		return digest, nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("cas: s3 put: %w", err)
	}
	return digest, nil
}

func (s *S3Store) Get(ctx context.Context, digest string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(digest))})
	if err != nil {
		return nil, fmt.Errorf("cas: s3 get %s: %w", digest, err)
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

func (s *S3Store) Exists(ctx context.Context, digest string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(digest))})
	return err == nil, nil
}
