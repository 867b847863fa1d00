package kvstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

type bucketStore struct {
	bucket *blob.Bucket
	name   string
	driver Driver
	closed bool
}

var _ Store = (*bucketStore)(nil)

// OpenFile opens a local directory. In CreateMode the directory is created if
// it does not exist.
func OpenFile(dir string, mode Mode) (Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if mode == CreateMode {
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", abs, err)
		}
	}
	bucket, err := fileblob.OpenBucket(abs, &fileblob.Options{
		Metadata: fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", abs, err)
	}
	return &bucketStore{bucket: bucket, name: abs, driver: File}, nil
}

// OpenCloud opens a bucket URL such as "gs://bucket/path/image.zarr". The URL
// path becomes the key prefix of the store.
func OpenCloud(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bucket url %q: %w", rawURL, err)
	}
	if p := strings.Trim(u.Path, "/"); p != "" {
		q := u.Query()
		q.Set("prefix", p+"/")
		u.RawQuery = q.Encode()
		u.Path = ""
	}
	bucket, err := blob.OpenBucket(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", rawURL, err)
	}
	return &bucketStore{bucket: bucket, name: rawURL, driver: Cloud}, nil
}

func (s *bucketStore) Name() string   { return s.name }
func (s *bucketStore) Driver() Driver { return s.driver }

func (s *bucketStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *bucketStore) Put(ctx context.Context, key string, val []byte) error {
	if err := s.bucket.WriteAll(ctx, key, val, nil); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *bucketStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.bucket.Close()
}
