package ngff

import (
	"fmt"

	"github.com/TuSKan/zarr-ngff/internal/logging"
	"github.com/TuSKan/zarr-ngff/zarr"
)

// NoIndex marks a time or channel index that was not specified.
const NoIndex = -1

// Region is a box in declared order: a start index and a size per axis.
type Region struct {
	Index []int
	Size  []int
}

// WholeRegion returns the region covering an image of the given declared
// shape.
func WholeRegion(shape []int) Region {
	return Region{Index: make([]int, len(shape)), Size: append([]int(nil), shape...)}
}

// Dimensions returns the number of axes of the region.
func (r Region) Dimensions() int {
	return len(r.Size)
}

// NumElements returns the number of elements in the region.
func (r Region) NumElements() int {
	return zarr.NumElements(r.Size)
}

// RegionRequest is a region to read plus the time point and channel to pin
// when the image has such axes. Either index may be NoIndex.
type RegionRequest struct {
	Region
	TimeIndex    int
	ChannelIndex int
}

// StoreRegion is a box in store order, passed to zarr.Array.ReadRegion.
type StoreRegion struct {
	Start []int
	Shape []int
}

// Role is what an axis is used for when building a store region.
type Role int

const (
	RoleNone Role = iota
	RoleSpace
	RoleTime
	RoleChannel
)

func (r Role) String() string {
	switch r {
	case RoleSpace:
		return "space"
	case RoleTime:
		return "time"
	case RoleChannel:
		return "channel"
	}
	return "none"
}

// AxisRoles maps axes to roles. Kinds maps an axis kind to its role; Spatial
// maps the name of a spatial axis to its position in declared order.
type AxisRoles struct {
	Kinds   map[string]Role
	Spatial map[string]int
}

// DefaultAxisRoles recognizes the time and channel kinds and the spatial axes
// x, y and z at declared positions 0, 1 and 2.
func DefaultAxisRoles() AxisRoles {
	return AxisRoles{
		Kinds: map[string]Role{
			KindSpace:   RoleSpace,
			KindTime:    RoleTime,
			KindChannel: RoleChannel,
		},
		Spatial: map[string]int{"x": 0, "y": 1, "z": 2},
	}
}

// Role returns the role of a and, for spatial axes, its declared position.
// Axes without a kind are looked up by name in the canonical vocabulary.
func (r AxisRoles) Role(a Axis) (Role, int, error) {
	kind := a.Kind
	if kind == "" {
		if c, ok := canonicalAxis(a.Name); ok {
			kind = c.Kind
		}
	}
	role := r.Kinds[kind]
	switch role {
	case RoleTime, RoleChannel:
		return role, 0, nil
	case RoleSpace, RoleNone:
		if pos, ok := r.Spatial[a.Name]; ok {
			return RoleSpace, pos, nil
		}
	}
	return RoleNone, 0, fmt.Errorf("%w: %s", ErrUnrecognizedAxis, a)
}

// Mapper translates declared-order regions into store regions.
type Mapper struct {
	roles AxisRoles
}

// NewMapper returns a Mapper using roles. Zero-valued roles select
// DefaultAxisRoles.
func NewMapper(roles AxisRoles) *Mapper {
	if roles.Kinds == nil && roles.Spatial == nil {
		roles = DefaultAxisRoles()
	}
	return &Mapper{roles: roles}
}

var defaultMapper = NewMapper(DefaultAxisRoles())

// BuildStoreRegion translates requested into store order for an array with
// the given store-order axes, using the default axis roles.
func BuildStoreRegion(requested Region, storeAxes AxisList, timeIndex, channelIndex int) (StoreRegion, error) {
	return defaultMapper.BuildStoreRegion(requested, storeAxes, timeIndex, channelIndex)
}

// BuildStoreRegion returns the store region for requested. Time and channel
// axes are pinned to timeIndex and channelIndex with extent 1; an unset index
// is logged and read as 0. Spatial axes copy the start and size of their
// declared position in requested.
func (m *Mapper) BuildStoreRegion(requested Region, storeAxes AxisList, timeIndex, channelIndex int) (StoreRegion, error) {
	if len(requested.Index) != len(requested.Size) {
		return StoreRegion{}, fmt.Errorf("%w: region has %d indices and %d sizes",
			ErrDimensionMismatch, len(requested.Index), len(requested.Size))
	}
	out := StoreRegion{
		Start: make([]int, len(storeAxes)),
		Shape: make([]int, len(storeAxes)),
	}
	for i, a := range storeAxes {
		role, pos, err := m.roles.Role(a)
		if err != nil {
			return StoreRegion{}, err
		}
		switch role {
		case RoleTime:
			out.Start[i] = pinned(timeIndex, "time point")
			out.Shape[i] = 1
		case RoleChannel:
			out.Start[i] = pinned(channelIndex, "channel")
			out.Shape[i] = 1
		case RoleSpace:
			if pos >= requested.Dimensions() {
				return StoreRegion{}, fmt.Errorf("%w: axis %s needs declared axis %d, region has %d",
					ErrInsufficientRequestedDimensions, a.Name, pos, requested.Dimensions())
			}
			out.Start[i] = requested.Index[pos]
			out.Shape[i] = requested.Size[pos]
		}
	}
	return out, nil
}

func pinned(index int, what string) int {
	if index < 0 {
		logging.Warningf("no %s specified, defaulting to the first", what)
		return 0
	}
	return index
}

// IsWholeImage reports whether requested covers as many elements as the whole
// array, in which case the array is read without a region.
func IsWholeImage(requested Region, storeShape []int) bool {
	return requested.NumElements() == zarr.NumElements(storeShape)
}
