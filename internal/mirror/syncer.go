package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mmr-tortoise/shipyard/internal/github"
)

// Config carries the object-store connection settings. Credentials are
// passed in explicitly by the composition root, never read from the
// environment here.
type Config struct {
	// Endpoint is the S3-compatible endpoint host[:port].
	Endpoint string

	// Region for bucket creation; defaults to us-east-1.
	Region string

	// AccessKey and SecretKey authenticate against the store.
	AccessKey string
	SecretKey string

	// Bucket receives the synced artifacts; created if absent.
	Bucket string

	// UseSSL enables TLS to the endpoint.
	UseSSL bool
}

// Syncer copies a candidate run's artifact files into an S3-compatible
// bucket so downstream distribution mirrors can pick them up.
type Syncer struct {
	client *minio.Client
	bucket string
	region string
}

// NewSyncer validates the configuration and builds the object-store
// client. No network traffic happens until Sync is called.
func NewSyncer(cfg Config) (*Syncer, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("mirror endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("mirror access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build mirror client: %w", err)
	}

	return &Syncer{client: client, bucket: bucket, region: region}, nil
}

// Sync uploads every regular file in dir to the bucket under the given
// prefix, in sorted name order. Object names are "<prefix>/<file-name>";
// uploads overwrite existing objects, so re-running a sync for the same
// candidate converges. Returns the number of files uploaded.
func (s *Syncer) Sync(ctx context.Context, prefix, dir string) (int, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure mirror bucket %s: %w", s.bucket, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		key := prefix + "/" + name
		path := filepath.Join(dir, name)
		opts := minio.PutObjectOptions{ContentType: github.ContentTypeForName(name)}
		if _, err := s.client.FPutObject(ctx, s.bucket, key, path, opts); err != nil {
			return 0, fmt.Errorf("failed to upload %s to mirror: %w", name, err)
		}
	}
	return len(names), nil
}

// ensureBucket creates the bucket when it does not exist yet.
func (s *Syncer) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
}
