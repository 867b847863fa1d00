package zarr

import (
	"reflect"
	"testing"
)

func TestChunkKey(t *testing.T) {
	tests := []struct {
		indices   []int
		separator string
		expected  string
	}{
		{[]int{1, 4}, ".", "1.4"},
		{[]int{0, 0, 0}, ".", "0.0.0"},
		{[]int{10}, ".", "10"},
		{[]int{1, 2}, "/", "1/2"},
		{[]int{0, 3, 0, 1, 2}, "/", "0/3/0/1/2"},
		{[]int{}, ".", "0"},
	}

	for _, tt := range tests {
		got := ChunkKey(tt.indices, tt.separator)
		if got != tt.expected {
			t.Errorf("ChunkKey(%v, %q) = %q, want %q", tt.indices, tt.separator, got, tt.expected)
		}
	}
}

func TestGridShape(t *testing.T) {
	tests := []struct {
		shape, chunks, want []int
	}{
		{[]int{930, 1024}, []int{64, 64}, []int{15, 16}},
		{[]int{4, 4}, []int{2, 2}, []int{2, 2}},
		{[]int{5}, []int{5}, []int{1}},
		{[]int{}, []int{}, []int{}},
	}
	for _, tt := range tests {
		if got := GridShape(tt.shape, tt.chunks); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("GridShape(%v, %v) = %v, want %v", tt.shape, tt.chunks, got, tt.want)
		}
	}
}

func TestIterateSubGrid(t *testing.T) {
	var got [][]int
	err := iterateSubGrid([]int{1, 0}, []int{3, 2}, func(idx []int) error {
		got = append(got, append([]int(nil), idx...))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{1, 0}, {1, 1}, {2, 0}, {2, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("iterateSubGrid visited %v, want %v", got, want)
	}

	calls := 0
	_ = iterateSubGrid([]int{0, 2}, []int{3, 2}, func([]int) error { calls++; return nil })
	if calls != 0 {
		t.Errorf("empty grid visited %d indices", calls)
	}
}

func TestCopyND(t *testing.T) {
	// 4x4 source holding 0..15, copy the 2x2 box at [1,1] into a 3x3 dst at [0,1].
	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 9)
	copyND(dst, strides([]int{3, 3}), []int{0, 1}, src, strides([]int{4, 4}), []int{1, 1}, []int{2, 2}, 1)
	want := []byte{0, 5, 6, 0, 9, 10, 0, 0, 0}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("copyND = %v, want %v", dst, want)
	}
}
