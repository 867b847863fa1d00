package main

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ngff "github.com/TuSKan/zarr-ngff"
	"github.com/TuSKan/zarr-ngff/zarr"
)

func TestRegionImagePinnedChannel(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Declared x, y, z, c: one plane, three channels.
	shape := []int{4, 4, 1, 3}
	data := make([]byte, 2*zarr.NumElements(shape))
	for i := 0; i < len(data)/2; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(i))
	}
	src := filepath.Join(dir, "src.zarr")
	require.NoError(t, ngff.Write(ctx, src, ngff.Image{Shape: shape, ElementType: zarr.Uint16, Data: data},
		ngff.DefaultWriteOptions()))

	opts := ngff.DefaultOptions()
	opts.ChannelIndex = 2
	r, err := ngff.Open(ctx, src, opts)
	require.NoError(t, err)
	defer r.Close()

	region := ngff.Region{Index: []int{1, 1, 0, 0}, Size: []int{2, 2, 1, 3}}
	req := r.Request(region)
	sr, err := r.StoreRegion(req)
	require.NoError(t, err)
	require.NotNil(t, sr)
	got, err := r.Read(ctx, req)
	require.NoError(t, err)

	img := regionImage(r.Info(), region, sr, got)
	require.Equal(t, []int{2, 2, 1, 1}, img.Shape)
	require.Equal(t, []float64{1, 1, 0, 0}, img.Geometry.Origin)

	dst := filepath.Join(dir, "dst.zarr")
	require.NoError(t, ngff.Write(ctx, dst, img, ngff.DefaultWriteOptions()))
	out, err := ngff.Open(ctx, dst, ngff.DefaultOptions())
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, []int{2, 2, 1, 1}, out.Info().Shape)
	all, err := out.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, got, all)

	// Channel 2 starts at element 32; (x=1, y=1) is 5 elements in.
	require.Equal(t, uint16(37), binary.LittleEndian.Uint16(all))
}

func TestRegionImageWhole(t *testing.T) {
	info := ngff.Info{
		Shape:       []int{4, 2},
		Geometry:    ngff.Geometry{Spacing: []float64{0.5, 2}, Origin: []float64{1, 1}},
		ElementType: zarr.Uint8,
	}
	data := make([]byte, 8)
	img := regionImage(info, ngff.WholeRegion(info.Shape), nil, data)
	require.Equal(t, info.Shape, img.Shape)
	require.Equal(t, info.Geometry.Spacing, img.Geometry.Spacing)
	img.Shape[0] = 9
	require.Equal(t, 4, info.Shape[0])
}
