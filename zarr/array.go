package zarr

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/TuSKan/zarr-ngff/kvstore"
)

const arrayMetaKey = ".zarray"

// Array is one Zarr V2 array inside a store.
type Array struct {
	store       kvstore.Store
	path        string
	meta        *Metadata
	dtype       DataType
	fill        []byte
	cache       *ChunkCache
	concurrency int
}

// Option configures an Array.
type Option func(*Array)

// WithCache shares a decoded-chunk cache with the array.
func WithCache(c *ChunkCache) Option {
	return func(a *Array) { a.cache = c }
}

// WithConcurrency bounds the number of chunks read or written at once.
func WithConcurrency(n int) Option {
	return func(a *Array) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// OpenArray reads the .zarray metadata at path within store.
func OpenArray(ctx context.Context, store kvstore.Store, path string, opts ...Option) (*Array, error) {
	data, err := store.Get(ctx, kvstore.Join(path, arrayMetaKey))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", kvstore.Join(path, arrayMetaKey), err)
	}
	meta, err := LoadMetadata(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	return newArray(store, path, meta, opts)
}

// CreateArray writes meta as the .zarray of a new array at path.
func CreateArray(ctx context.Context, store kvstore.Store, path string, meta *Metadata, opts ...Option) (*Array, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	a, err := newArray(store, path, meta, opts)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, kvstore.Join(path, arrayMetaKey), data); err != nil {
		return nil, err
	}
	Invalidate(store.Name())
	return a, nil
}

func newArray(store kvstore.Store, path string, meta *Metadata, opts []Option) (*Array, error) {
	dt, err := ParseDType(meta.DType)
	if err != nil {
		return nil, err
	}
	fill, err := fillElement(dt, meta.FillValue)
	if err != nil {
		return nil, err
	}
	a := &Array{
		store:       store,
		path:        path,
		meta:        meta,
		dtype:       dt,
		fill:        fill,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Array) Metadata() *Metadata { return a.meta }
func (a *Array) DataType() DataType  { return a.dtype }
func (a *Array) Path() string        { return a.path }

// Shape returns a copy of the array shape, outermost dimension first.
func (a *Array) Shape() []int {
	return append([]int(nil), a.meta.Shape...)
}

func (a *Array) chunkKey(coords []int) string {
	return kvstore.Join(a.path, ChunkKey(coords, a.meta.Separator()))
}

func (a *Array) chunkBytes() int {
	return NumElements(a.meta.Chunks) * a.dtype.Size()
}

// ReadChunk reads and decodes a single chunk. A missing chunk is returned
// filled with the array's fill value.
func (a *Array) ReadChunk(ctx context.Context, coords []int) ([]byte, error) {
	key := a.chunkKey(coords)
	ck := cacheKey(a.store.Name(), key)
	if data, ok := a.cache.get(ck); ok {
		return data, nil
	}

	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return a.filledChunk(), nil
		}
		return nil, fmt.Errorf("failed to open chunk %s: %w", key, err)
	}
	data, err := decodeChunk(a.meta.Compressor, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress chunk %s: %w", key, err)
	}
	if len(data) != a.chunkBytes() {
		return nil, fmt.Errorf("chunk %s has %d bytes, expected %d", key, len(data), a.chunkBytes())
	}
	a.cache.set(ck, data)
	return data, nil
}

func (a *Array) filledChunk() []byte {
	n := NumElements(a.meta.Chunks)
	return bytes.Repeat(a.fill, n)
}

// ReadFull reads the entire array into a flat C-order byte slice.
func (a *Array) ReadFull(ctx context.Context) ([]byte, error) {
	return a.ReadRegion(ctx, make([]int, len(a.meta.Shape)), a.meta.Shape)
}

// ReadRegion reads an N-dimensional box of the array, given by its start
// index and shape, into a flat C-order byte slice.
func (a *Array) ReadRegion(ctx context.Context, start, shape []int) ([]byte, error) {
	if len(start) != len(a.meta.Shape) || len(shape) != len(a.meta.Shape) {
		return nil, fmt.Errorf("start %v and shape %v must match array rank %d", start, shape, len(a.meta.Shape))
	}
	for i := range a.meta.Shape {
		if start[i] < 0 || shape[i] <= 0 || start[i]+shape[i] > a.meta.Shape[i] {
			return nil, fmt.Errorf("region out of bounds at dimension %d", i)
		}
	}

	itemSize := a.dtype.Size()
	out := make([]byte, NumElements(shape)*itemSize)

	if len(a.meta.Shape) == 0 {
		chunk, err := a.ReadChunk(ctx, []int{})
		if err != nil {
			return nil, err
		}
		copy(out, chunk)
		return out, nil
	}

	minChunk := make([]int, len(start))
	endChunk := make([]int, len(start))
	for i := range start {
		minChunk[i] = start[i] / a.meta.Chunks[i]
		endChunk[i] = (start[i]+shape[i]-1)/a.meta.Chunks[i] + 1
	}

	dstStrides := strides(shape)
	chunkStrides := strides(a.meta.Chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	err := iterateSubGrid(minChunk, endChunk, func(indices []int) error {
		coords := append([]int(nil), indices...)
		g.Go(func() error {
			chunk, err := a.ReadChunk(gctx, coords)
			if err != nil {
				return err
			}

			copyShape := make([]int, len(coords))
			srcOffset := make([]int, len(coords))
			dstOffset := make([]int, len(coords))
			for i := range coords {
				chunkStart := coords[i] * a.meta.Chunks[i]
				lo := max(chunkStart, start[i])
				hi := min(chunkStart+a.meta.Chunks[i], start[i]+shape[i], a.meta.Shape[i])
				copyShape[i] = hi - lo
				srcOffset[i] = lo - chunkStart
				dstOffset[i] = lo - start[i]
			}
			copyND(out, dstStrides, dstOffset, chunk, chunkStrides, srcOffset, copyShape, itemSize)
			return nil
		})
		return gctx.Err()
	})
	if werr := g.Wait(); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteFull splits data, a flat C-order buffer covering the whole array, into
// chunks and writes them. Edge chunks are padded with the fill value.
func (a *Array) WriteFull(ctx context.Context, data []byte) error {
	itemSize := a.dtype.Size()
	if want := NumElements(a.meta.Shape) * itemSize; len(data) != want {
		return fmt.Errorf("buffer has %d bytes, array needs %d", len(data), want)
	}

	if len(a.meta.Shape) == 0 {
		return a.writeChunk(ctx, []int{}, data)
	}

	srcStrides := strides(a.meta.Shape)
	chunkStrides := strides(a.meta.Chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	err := iterateSubGrid(make([]int, len(a.meta.Shape)), GridShape(a.meta.Shape, a.meta.Chunks), func(indices []int) error {
		coords := append([]int(nil), indices...)
		g.Go(func() error {
			chunk := a.filledChunk()
			copyShape := make([]int, len(coords))
			srcOffset := make([]int, len(coords))
			for i := range coords {
				srcOffset[i] = coords[i] * a.meta.Chunks[i]
				copyShape[i] = min(a.meta.Chunks[i], a.meta.Shape[i]-srcOffset[i])
			}
			copyND(chunk, chunkStrides, make([]int, len(coords)), data, srcStrides, srcOffset, copyShape, itemSize)
			return a.writeChunk(gctx, coords, chunk)
		})
		return gctx.Err()
	})
	if werr := g.Wait(); werr != nil {
		return werr
	}
	return err
}

func (a *Array) writeChunk(ctx context.Context, coords []int, chunk []byte) error {
	key := a.chunkKey(coords)
	encoded, err := encodeChunk(a.meta.Compressor, chunk)
	if err != nil {
		return fmt.Errorf("failed to compress chunk %s: %w", key, err)
	}
	if err := a.store.Put(ctx, key, encoded); err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", key, err)
	}
	Invalidate(a.store.Name())
	return nil
}

// fillElement encodes the .zarray fill_value as one element. A null fill
// value gives zeros.
func fillElement(dt DataType, fill interface{}) ([]byte, error) {
	out := make([]byte, dt.Size())
	var v float64
	switch f := fill.(type) {
	case nil:
		return out, nil
	case float64:
		v = f
	case int:
		v = float64(f)
	case string:
		switch f {
		case "NaN":
			v = math.NaN()
		case "Infinity":
			v = math.Inf(1)
		case "-Infinity":
			v = math.Inf(-1)
		default:
			return nil, fmt.Errorf("unsupported fill_value %q", f)
		}
		if dt != Float32 && dt != Float64 {
			return nil, fmt.Errorf("fill_value %q requires a float dtype", f)
		}
	default:
		return nil, fmt.Errorf("unsupported fill_value %v", fill)
	}
	putElement(dt, out, v)
	return out, nil
}

func putElement(dt DataType, dst []byte, v float64) {
	le := binary.LittleEndian
	switch dt {
	case Int8:
		dst[0] = byte(int8(v))
	case Uint8:
		dst[0] = uint8(v)
	case Int16:
		le.PutUint16(dst, uint16(int16(v)))
	case Uint16:
		le.PutUint16(dst, uint16(v))
	case Int32:
		le.PutUint32(dst, uint32(int32(v)))
	case Uint32:
		le.PutUint32(dst, uint32(v))
	case Int64:
		le.PutUint64(dst, uint64(int64(v)))
	case Uint64:
		le.PutUint64(dst, uint64(v))
	case Float32:
		le.PutUint32(dst, math.Float32bits(float32(v)))
	case Float64:
		le.PutUint64(dst, math.Float64bits(v))
	}
}
