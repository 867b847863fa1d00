package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"

	"github.com/TuSKan/zarr-ngff/internal/logging"
)

// zipStore keeps the entries of a zip archive in a memory bucket. The archive
// is read once on open and written back on Close if anything was Put.
type zipStore struct {
	*bucketStore
	path string

	mu    sync.Mutex
	dirty bool
}

var _ Store = (*zipStore)(nil)

// OpenZip opens a zip archive on disk or an in-memory archive named by
// MemoryFileName. In CreateMode the previous contents are discarded.
func OpenZip(ctx context.Context, path string, mode Mode) (Store, error) {
	bucket := memblob.OpenBucket(nil)
	s := &zipStore{
		bucketStore: &bucketStore{bucket: bucket, name: path, driver: Zip},
		path:        path,
	}
	if mode == CreateMode {
		if isMemoryName(path) {
			if _, ok := LookupBuffer(path); !ok {
				bucket.Close()
				return nil, fmt.Errorf("%w: memory buffer %s", ErrNotFound, path)
			}
		}
		return s, nil
	}

	data, err := readArchive(path)
	if err != nil {
		bucket.Close()
		return nil, err
	}
	if err := loadArchive(ctx, bucket, data); err != nil {
		bucket.Close()
		return nil, fmt.Errorf("failed to load zip archive %s: %w", path, err)
	}
	return s, nil
}

func readArchive(path string) ([]byte, error) {
	if isMemoryName(path) {
		b, ok := LookupBuffer(path)
		if !ok {
			return nil, fmt.Errorf("%w: memory buffer %s", ErrNotFound, path)
		}
		return b.Data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

func loadArchive(ctx context.Context, bucket *blob.Bucket, data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
		}
		val, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to read entry %s: %w", f.Name, err)
		}
		if err := bucket.WriteAll(ctx, strings.TrimPrefix(f.Name, "/"), val, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *zipStore) Put(ctx context.Context, key string, val []byte) error {
	if err := s.bucketStore.Put(ctx, key, val); err != nil {
		return err
	}
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Close writes the archive back if it was modified and releases the handle.
func (s *zipStore) Close() error {
	if s.closed {
		return nil
	}
	s.mu.Lock()
	dirty := s.dirty
	s.dirty = false
	s.mu.Unlock()

	var flushErr error
	if dirty {
		flushErr = s.flush(context.Background())
	}
	if err := s.bucketStore.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

func (s *zipStore) flush(ctx context.Context) error {
	var keys []string
	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list zip entries: %w", err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, key := range keys {
		val, err := s.bucket.ReadAll(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: key, Method: zip.Store})
		if err != nil {
			return err
		}
		if _, err := w.Write(val); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", key, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	logging.Debugf("writing zip archive %s with %d entries (%d bytes)", s.path, len(keys), buf.Len())
	if isMemoryName(s.path) {
		b, ok := LookupBuffer(s.path)
		if !ok {
			return fmt.Errorf("%w: memory buffer %s", ErrNotFound, s.path)
		}
		b.Data = buf.Bytes()
		return nil
	}
	return os.WriteFile(s.path, buf.Bytes(), 0644)
}
