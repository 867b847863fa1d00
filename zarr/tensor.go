package zarr

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// ToTensor decodes a little-endian C-order buffer into a tensor of the given
// shape.
func ToTensor(data []byte, dt DataType, shape []int) (*tensors.Tensor, error) {
	n := NumElements(shape)
	if len(data) != n*dt.Size() {
		return nil, fmt.Errorf("buffer has %d bytes, shape %v of %s needs %d", len(data), shape, dt, n*dt.Size())
	}
	le := binary.LittleEndian
	switch dt {
	case Int8:
		return tensors.FromFlatDataAndDimensions(decode(data, 1, func(b []byte) int8 { return int8(b[0]) }), shape...), nil
	case Uint8:
		return tensors.FromFlatDataAndDimensions(append([]uint8(nil), data...), shape...), nil
	case Int16:
		return tensors.FromFlatDataAndDimensions(decode(data, 2, func(b []byte) int16 { return int16(le.Uint16(b)) }), shape...), nil
	case Uint16:
		return tensors.FromFlatDataAndDimensions(decode(data, 2, le.Uint16), shape...), nil
	case Int32:
		return tensors.FromFlatDataAndDimensions(decode(data, 4, func(b []byte) int32 { return int32(le.Uint32(b)) }), shape...), nil
	case Uint32:
		return tensors.FromFlatDataAndDimensions(decode(data, 4, le.Uint32), shape...), nil
	case Int64:
		return tensors.FromFlatDataAndDimensions(decode(data, 8, func(b []byte) int64 { return int64(le.Uint64(b)) }), shape...), nil
	case Uint64:
		return tensors.FromFlatDataAndDimensions(decode(data, 8, le.Uint64), shape...), nil
	case Float32:
		return tensors.FromFlatDataAndDimensions(decode(data, 4, func(b []byte) float32 { return math.Float32frombits(le.Uint32(b)) }), shape...), nil
	case Float64:
		return tensors.FromFlatDataAndDimensions(decode(data, 8, func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) }), shape...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
}

func decode[T any](data []byte, size int, conv func([]byte) T) []T {
	out := make([]T, len(data)/size)
	for i := range out {
		out[i] = conv(data[i*size : (i+1)*size])
	}
	return out
}

// ReadTensor reads a region of the array as a tensor.
func (a *Array) ReadTensor(ctx context.Context, start, shape []int) (*tensors.Tensor, error) {
	data, err := a.ReadRegion(ctx, start, shape)
	if err != nil {
		return nil, err
	}
	return ToTensor(data, a.dtype, shape)
}

// Batches walks an array along its outermost dimension, e.g. one time point
// or one z-plane at a time.
type Batches struct {
	array        *Array
	CurrentIndex int
}

// NewBatches starts a batch walk at index 0.
func NewBatches(a *Array) *Batches {
	return &Batches{array: a}
}

// NextBatch reads the next batch of up to batchSize entries of the outermost
// dimension. Returns io.EOF if there is no more data.
func (b *Batches) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	shape := b.array.meta.Shape
	if len(shape) == 0 {
		return nil, fmt.Errorf("cannot batch a 0D array")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}
	if b.CurrentIndex >= shape[0] {
		return nil, io.EOF
	}

	end := min(b.CurrentIndex+batchSize, shape[0])
	start := make([]int, len(shape))
	start[0] = b.CurrentIndex
	batchShape := append([]int(nil), shape...)
	batchShape[0] = end - b.CurrentIndex

	t, err := b.array.ReadTensor(ctx, start, batchShape)
	if err != nil {
		return nil, err
	}
	b.CurrentIndex = end
	return t, nil
}
