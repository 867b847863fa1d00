package kvstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr-ngff/kvstore"
)

func TestDriverFor(t *testing.T) {
	tests := []struct {
		path string
		want kvstore.Driver
	}{
		{"/data/image.ome.zarr", kvstore.File},
		{"image.zarr", kvstore.File},
		{"C:/Dev/v0.4/cyx.ome.zarr", kvstore.File},
		{"file:///data/image.zarr", kvstore.File},
		{"/data/image.zip", kvstore.Zip},
		{"140234567.memory", kvstore.Zip},
		{"http://localhost/yx.ome.zarr", kvstore.HTTP},
		{"https://s3.embl.de/i2k-2020/ngff-example-data/v0.4/yx.ome.zarr", kvstore.HTTP},
		{"https://example.org/image.zip", kvstore.HTTP},
		{"gs://bucket/image.zarr", kvstore.Cloud},
		{"mem://", kvstore.Cloud},
		{"abc", kvstore.File},
	}
	for _, tt := range tests {
		if got := kvstore.DriverFor(tt.path); got != tt.want {
			t.Errorf("DriverFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	require.Equal(t, "0/.zarray", kvstore.Join("0", ".zarray"))
	require.Equal(t, ".zattrs", kvstore.Join("", ".zattrs"))
	require.Equal(t, "a/b/c", kvstore.Join("/a/", ".", "b", "c/"))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "image.zarr")

	s, err := kvstore.Open(ctx, dir, kvstore.CreateMode)
	require.NoError(t, err)
	require.Equal(t, kvstore.File, s.Driver())
	require.NoError(t, s.Put(ctx, ".zgroup", []byte(`{"zarr_format":2}`)))
	require.NoError(t, s.Put(ctx, "0/.zarray", []byte(`{}`)))
	require.NoError(t, s.Close())

	// Stored as plain files, no sidecars.
	data, err := os.ReadFile(filepath.Join(dir, "0", ".zarray"))
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
	_, err = os.Stat(filepath.Join(dir, ".zgroup.attrs"))
	require.True(t, os.IsNotExist(err))

	s, err = kvstore.Open(ctx, dir, kvstore.ReadMode)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, ".zgroup")
	require.NoError(t, err)
	require.JSONEq(t, `{"zarr_format":2}`, string(got))

	_, err = s.Get(ctx, ".zattrs")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestFileStoreMissingDir(t *testing.T) {
	_, err := kvstore.Open(context.Background(), filepath.Join(t.TempDir(), "nope.zarr"), kvstore.ReadMode)
	require.Error(t, err)
}

func TestHTTPStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img.zarr", "0"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img.zarr", ".zgroup"), []byte(`{"zarr_format":2}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img.zarr", "0", "0.0"), []byte{1, 2, 3}, 0644))

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	ctx := context.Background()
	s, err := kvstore.Open(ctx, srv.URL+"/img.zarr", kvstore.ReadMode)
	require.NoError(t, err)
	require.Equal(t, kvstore.HTTP, s.Driver())

	got, err := s.Get(ctx, ".zgroup")
	require.NoError(t, err)
	require.JSONEq(t, `{"zarr_format":2}`, string(got))

	got, err = s.Get(ctx, "0/0.0")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	_, err = s.Get(ctx, "0/1.0")
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	err = s.Put(ctx, ".zattrs", []byte("{}"))
	require.ErrorIs(t, err, kvstore.ErrReadOnly)

	_, err = kvstore.Open(ctx, srv.URL+"/out.zarr", kvstore.CreateMode)
	require.True(t, errors.Is(err, kvstore.ErrReadOnly))
}
