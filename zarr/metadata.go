package zarr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnsupportedDType is returned for dtypes that have no element type mapping.
var ErrUnsupportedDType = errors.New("unsupported dtype")

// CompressorConfig represents the Zarr compressor metadata.
type CompressorConfig struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// Metadata represents the Zarr V2 .zarray metadata.
type Metadata struct {
	ZarrFormat int               `json:"zarr_format"`
	Shape      []int             `json:"shape"`
	Chunks     []int             `json:"chunks"`
	DType      string            `json:"dtype"`
	Compressor *CompressorConfig `json:"compressor"`
	FillValue  interface{}       `json:"fill_value"`
	Order      string            `json:"order"`
	Filters    []json.RawMessage `json:"filters"`

	// Either "." or "/". Defaults to ".", giving chunk keys such as "0.0".
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

// LoadMetadata reads and validates .zarray metadata.
func LoadMetadata(reader io.Reader) (*Metadata, error) {
	var meta Metadata
	if err := json.NewDecoder(reader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Validate checks the fields this package relies on.
func (m *Metadata) Validate() error {
	if m.ZarrFormat != 2 {
		return fmt.Errorf("unsupported zarr_format: %d, expected 2", m.ZarrFormat)
	}
	if len(m.Shape) != len(m.Chunks) {
		return fmt.Errorf("shape %v and chunks %v differ in rank", m.Shape, m.Chunks)
	}
	for i := range m.Shape {
		if m.Shape[i] < 0 || m.Chunks[i] <= 0 {
			return fmt.Errorf("invalid shape %v or chunks %v at dimension %d", m.Shape, m.Chunks, i)
		}
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("unsupported order %q, only C order is supported", m.Order)
	}
	if len(m.Filters) > 0 {
		return fmt.Errorf("filters are not supported")
	}
	switch m.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("invalid dimension_separator %q", m.DimensionSeparator)
	}
	return nil
}

// Separator returns the chunk key separator.
func (m *Metadata) Separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// DataType is the element type of an array.
type DataType int

const (
	Unknown DataType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var dataTypeNames = [...]string{
	Unknown: "unknown",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return "unknown"
	}
	return dataTypeNames[d]
}

// Size returns the element size in bytes.
func (d DataType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// DType returns the numpy-style type string written to .zarray.
func (d DataType) DType() string {
	switch d {
	case Int8:
		return "|i1"
	case Uint8:
		return "|u1"
	case Int16:
		return "<i2"
	case Uint16:
		return "<u2"
	case Int32:
		return "<i4"
	case Uint32:
		return "<u4"
	case Int64:
		return "<i8"
	case Uint64:
		return "<u8"
	case Float32:
		return "<f4"
	case Float64:
		return "<f8"
	}
	return ""
}

// ParseDType takes a numpy-style string like "<f4", "|u1" or "<i8" and returns
// its DataType. Big-endian multi-byte types, booleans, complex numbers and
// strings are rejected with ErrUnsupportedDType.
func ParseDType(s string) (DataType, error) {
	if len(s) < 3 {
		return Unknown, fmt.Errorf("%w: invalid dtype %q", ErrUnsupportedDType, s)
	}

	endian := s[0]
	kind := s[1]
	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return Unknown, fmt.Errorf("%w: invalid size in dtype %q", ErrUnsupportedDType, s)
	}
	switch endian {
	case '<', '|':
	case '>':
		if size != 1 {
			return Unknown, fmt.Errorf("%w: big-endian types are unsupported: %s", ErrUnsupportedDType, s)
		}
	default:
		return Unknown, fmt.Errorf("%w: invalid byte order in dtype %q", ErrUnsupportedDType, s)
	}

	var dt DataType
	switch kind {
	case 'i':
		dt = map[int]DataType{1: Int8, 2: Int16, 4: Int32, 8: Int64}[size]
	case 'u':
		dt = map[int]DataType{1: Uint8, 2: Uint16, 4: Uint32, 8: Uint64}[size]
	case 'f':
		dt = map[int]DataType{4: Float32, 8: Float64}[size]
	}
	if dt == Unknown {
		return Unknown, fmt.Errorf("%w: %s", ErrUnsupportedDType, s)
	}
	return dt, nil
}
