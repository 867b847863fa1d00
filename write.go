package ngff

import (
	"context"
	"fmt"

	"github.com/TuSKan/zarr-ngff/internal/logging"
	"github.com/TuSKan/zarr-ngff/kvstore"
	"github.com/TuSKan/zarr-ngff/zarr"
)

// Image is an in-memory image to write. Shape and Geometry are in declared
// order; Data is little-endian with the first declared axis fastest.
type Image struct {
	Shape       []int
	Geometry    Geometry
	ElementType zarr.DataType
	Data        []byte
}

// WriteOptions configures Write.
type WriteOptions struct {
	// Context holds exclusive store handles. If nil a private context is used.
	Context *kvstore.Context
	// Compressor is "", "zstd", "gzip" or "zlib".
	Compressor       string
	CompressionLevel int
	// ChunkSize caps the chunk edge along every axis.
	ChunkSize          int
	DimensionSeparator string
	// Levels is the number of resolution levels to write. Each level halves
	// the spatial axes of the one before.
	Levels      int
	Concurrency int
}

// DefaultWriteOptions writes a single uncompressed level in 64-element chunks.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		ChunkSize:          64,
		DimensionSeparator: "/",
		Levels:             1,
	}
}

// Write stores img as an NGFF image at path: .zgroup, .zattrs and one array
// per resolution level, at "0", "1" and so on.
func Write(ctx context.Context, path string, img Image, opts WriteOptions) (err error) {
	n := len(img.Shape)
	if n == 0 || n > MaxDimensions {
		return fmt.Errorf("%w: cannot write a %d-dimensional image", ErrDimensionMismatch, n)
	}
	for i, d := range img.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: axis %d has extent %d", ErrDimensionMismatch, i, d)
		}
	}
	geom := img.Geometry
	if geom.Dimensions() == 0 {
		geom = NewGeometry(n)
	}
	if geom.Dimensions() != n {
		return fmt.Errorf("%w: geometry has %d axes, image has %d", ErrDimensionMismatch, geom.Dimensions(), n)
	}
	itemSize := img.ElementType.Size()
	if itemSize == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedElementType, img.ElementType)
	}
	if want := zarr.NumElements(img.Shape) * itemSize; len(img.Data) != want {
		return fmt.Errorf("%w: %d bytes of data, shape %v of %s needs %d",
			ErrDimensionMismatch, len(img.Data), img.Shape, img.ElementType, want)
	}
	compressor, err := zarr.NewCompressor(opts.Compressor, opts.CompressionLevel)
	if err != nil {
		return err
	}
	levels := max(opts.Levels, 1)

	group, attrs, err := SerializeMultiscale(geom, img.Shape, levels)
	if err != nil {
		return err
	}

	kctx := opts.Context
	if kctx == nil {
		kctx = kvstore.NewContext()
	}
	store, err := kctx.Open(ctx, path, kvstore.CreateMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := kctx.CloseStore(path, store); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		zarr.Invalidate(store.Name())
	}()

	if err := store.Put(ctx, GroupKey, group); err != nil {
		return err
	}
	if err := store.Put(ctx, AttributesKey, attrs); err != nil {
		return err
	}

	declared, err := CanonicalAxes(n)
	if err != nil {
		return err
	}
	spatial := make([]bool, n)
	for i, a := range StoreOrderAxes(declared) {
		spatial[i] = a.Kind == KindSpace
	}

	shape := make([]int, n)
	for i := range shape {
		shape[i] = img.Shape[n-1-i]
	}
	data := img.Data
	for l := 0; l < levels; l++ {
		if l > 0 {
			data, shape = downsample(data, shape, spatial, itemSize)
		}
		meta := &zarr.Metadata{
			ZarrFormat:         2,
			Shape:              shape,
			Chunks:             chunkShape(shape, opts.ChunkSize),
			DType:              img.ElementType.DType(),
			Compressor:         compressor,
			FillValue:          0,
			Order:              "C",
			DimensionSeparator: opts.DimensionSeparator,
		}
		a, err := zarr.CreateArray(ctx, store, LevelPath(l), meta, zarr.WithConcurrency(opts.Concurrency))
		if err != nil {
			return fmt.Errorf("failed to create level %d: %w", l, err)
		}
		if err := a.WriteFull(ctx, data); err != nil {
			return fmt.Errorf("failed to write level %d: %w", l, err)
		}
		logging.Debugf("wrote level %d of %s, shape %v", l, path, shape)
	}
	return nil
}

func chunkShape(shape []int, size int) []int {
	if size <= 0 {
		size = 64
	}
	chunks := make([]int, len(shape))
	for i, d := range shape {
		chunks[i] = max(min(d, size), 1)
	}
	return chunks
}

// downsample halves the spatial axes of a store-order buffer by keeping every
// other element. Sizes are rounded down; axes of size 1 stay 1, matching the
// spacing written by SerializeMultiscale.
func downsample(data []byte, shape []int, spatial []bool, itemSize int) ([]byte, []int) {
	out := make([]int, len(shape))
	for i, d := range shape {
		out[i] = d
		if spatial[i] && d > 1 {
			out[i] = d / 2
		}
	}
	step := make([]int, len(shape))
	for i := range shape {
		step[i] = 1
		if out[i] != shape[i] {
			step[i] = 2
		}
	}

	srcStrides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		srcStrides[i] = stride
		stride *= shape[i]
	}

	result := make([]byte, zarr.NumElements(out)*itemSize)
	idx := make([]int, len(out))
	for dst := 0; dst < zarr.NumElements(out); dst++ {
		src := 0
		for i := range idx {
			src += idx[i] * step[i] * srcStrides[i]
		}
		copy(result[dst*itemSize:(dst+1)*itemSize], data[src*itemSize:(src+1)*itemSize])
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < out[i] {
				break
			}
			idx[i] = 0
		}
	}
	return result, out
}
