// Package ngff reads and writes OME-NGFF multiscale images stored as Zarr V2
// hierarchies.
//
// An image root holds two JSON documents: .zgroup, the Zarr format marker, and
// .zattrs, whose "multiscales" array lists the axes, coordinate
// transformations and resolution levels of the image. Each resolution level is
// a Zarr array below the root.
//
// Axes and transformation vectors are written in store order, outermost array
// dimension first, e.g. [t, c, z, y, x]. Geometry, regions and the axes
// returned by DeclaredAxes are in declared order, the reverse, so that x is
// always first.
package ngff

import (
	"encoding/json"
	"fmt"

	"github.com/TuSKan/zarr-ngff/internal/logging"
)

// Document names at an image root.
const (
	GroupKey      = ".zgroup"
	AttributesKey = ".zattrs"
)

// ZarrFormat is the only Zarr storage format supported.
const ZarrFormat = 2

type groupMarker struct {
	ZarrFormat int `json:"zarr_format"`
}

// ParseGroupMarker reads the .zgroup document and returns its zarr_format.
func ParseGroupMarker(doc []byte) (int, error) {
	var g groupMarker
	if err := json.Unmarshal(doc, &g); err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrUnsupportedFormat, GroupKey, err)
	}
	if g.ZarrFormat != ZarrFormat {
		return g.ZarrFormat, fmt.Errorf("%w: zarr_format %d, expected %d", ErrUnsupportedFormat, g.ZarrFormat, ZarrFormat)
	}
	return g.ZarrFormat, nil
}

// ResolutionLevel is one dataset of a multiscale: the path of its array and
// its own coordinate transformations.
type ResolutionLevel struct {
	Path            string                     `json:"path"`
	Transformations []CoordinateTransformation `json:"coordinateTransformations,omitempty"`
}

// Multiscale is the first entry of the multiscales array of an image.
type Multiscale struct {
	Version string
	Name    string
	// Axes in store order. Empty when the descriptor predates axes.
	Axes AxisList
	// Transformations applied to every level before its own.
	Transformations []CoordinateTransformation
	Levels          []ResolutionLevel
}

type multiscaleJSON struct {
	Version         string                     `json:"version,omitempty"`
	Name            string                     `json:"name,omitempty"`
	Type            string                     `json:"type,omitempty"`
	Axes            AxisList                   `json:"axes,omitempty"`
	Datasets        []ResolutionLevel          `json:"datasets"`
	Transformations []CoordinateTransformation `json:"coordinateTransformations,omitempty"`
	Metadata        json.RawMessage            `json:"metadata,omitempty"`
}

type attributesJSON struct {
	Multiscales []multiscaleJSON `json:"multiscales"`
}

// ParseMultiscale reads the .zattrs document and returns its first multiscale.
//
// Versions 0.1 to 0.4 are understood; any other version is parsed on a best
// effort basis with a warning. Version 0.4 requires axes and per-level
// coordinate transformations.
func ParseMultiscale(doc []byte) (*Multiscale, error) {
	var attrs attributesJSON
	if err := json.Unmarshal(doc, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", AttributesKey, err)
	}
	if len(attrs.Multiscales) == 0 {
		return nil, fmt.Errorf("%w: %s has no multiscales entry", ErrMissingMultiscales, AttributesKey)
	}
	ms := attrs.Multiscales[0]
	if len(attrs.Multiscales) > 1 {
		logging.Debugf("using the first of %d multiscales", len(attrs.Multiscales))
	}

	vr, ok := lookupVariant(ms.Version)
	if !ok {
		logging.Warningf("unsupported NGFF version %q, proceeding best-effort", ms.Version)
	}

	if len(ms.Datasets) == 0 {
		return nil, fmt.Errorf("%w: multiscale has no datasets", ErrMissingMultiscales)
	}
	if len(ms.Axes) == 0 && vr.axesRequired {
		return nil, fmt.Errorf("%w: required by version %s", ErrMissingAxes, ms.Version)
	}
	if len(ms.Axes) > MaxDimensions {
		return nil, fmt.Errorf("%w: %d axes, at most %d allowed", ErrDimensionMismatch, len(ms.Axes), MaxDimensions)
	}
	for i, ds := range ms.Datasets {
		if len(ds.Transformations) == 0 && vr.transformsRequired {
			return nil, fmt.Errorf("%w: dataset %d (%q) has none, required by version %s",
				ErrMissingCoordinateTransform, i, ds.Path, ms.Version)
		}
	}

	return &Multiscale{
		Version:         ms.Version,
		Name:            ms.Name,
		Axes:            ms.Axes,
		Transformations: ms.Transformations,
		Levels:          ms.Datasets,
	}, nil
}

// DeclaredAxes returns the axes in declared order.
func (m *Multiscale) DeclaredAxes() AxisList {
	return m.Axes.Reversed()
}

// SelectLevel returns resolution level i, 0 being the finest.
func (m *Multiscale) SelectLevel(i int) (ResolutionLevel, error) {
	if i < 0 || i >= len(m.Levels) {
		return ResolutionLevel{}, fmt.Errorf("%w: index %d, %d levels", ErrDatasetIndexOutOfRange, i, len(m.Levels))
	}
	return m.Levels[i], nil
}

// Geometry returns the spacing and origin of resolution level i for an image
// with n axes: unit spacing and zero origin, then the multiscale's own
// transformations, then the level's.
func (m *Multiscale) Geometry(i, n int) (Geometry, error) {
	level, err := m.SelectLevel(i)
	if err != nil {
		return Geometry{}, err
	}
	if len(m.Axes) > 0 && len(m.Axes) != n {
		return Geometry{}, fmt.Errorf("%w: %d axes declared, image has %d", ErrDimensionMismatch, len(m.Axes), n)
	}
	g := NewGeometry(n)
	if err := g.Apply(m.Transformations); err != nil {
		return Geometry{}, fmt.Errorf("multiscale transformations: %w", err)
	}
	if err := g.Apply(level.Transformations); err != nil {
		return Geometry{}, fmt.Errorf("dataset %q transformations: %w", level.Path, err)
	}
	return g, nil
}

// LevelPath returns the array path of level i of a written pyramid.
func LevelPath(i int) string {
	return fmt.Sprint(i)
}

// SerializeMultiscale builds the .zgroup and .zattrs documents describing an
// image of the given declared shape and geometry g, with the given number of
// resolution levels. Axes come from the canonical vocabulary. Level i keeps
// the origin of level i-1 and doubles the spacing of every spatial axis that
// was halved, that is every spatial axis longer than 1.
func SerializeMultiscale(g Geometry, shape []int, levels int) (group, attrs []byte, err error) {
	n := g.Dimensions()
	if len(g.Origin) != n {
		return nil, nil, fmt.Errorf("%w: %d spacing values, %d origin values", ErrDimensionMismatch, n, len(g.Origin))
	}
	if len(shape) != n {
		return nil, nil, fmt.Errorf("%w: shape has %d axes, geometry has %d", ErrDimensionMismatch, len(shape), n)
	}
	declared, err := CanonicalAxes(n)
	if err != nil {
		return nil, nil, err
	}
	if levels < 1 {
		levels = 1
	}

	ms := multiscaleJSON{
		Version: LatestVersion,
		Name:    "image",
		Axes:    StoreOrderAxes(declared),
	}
	level := g.Clone()
	size := append([]int(nil), shape...)
	for i := 0; i < levels; i++ {
		ms.Datasets = append(ms.Datasets, ResolutionLevel{
			Path:            LevelPath(i),
			Transformations: level.Transformations(),
		})
		for d, a := range declared {
			if a.Kind == KindSpace && size[d] > 1 {
				level.Spacing[d] *= 2
				size[d] /= 2
			}
		}
	}
	if levels > 1 {
		ms.Type = "nearest"
	}

	group, err = json.MarshalIndent(groupMarker{ZarrFormat: ZarrFormat}, "", "    ")
	if err != nil {
		return nil, nil, err
	}
	attrs, err = json.MarshalIndent(attributesJSON{Multiscales: []multiscaleJSON{ms}}, "", "    ")
	if err != nil {
		return nil, nil, err
	}
	return group, attrs, nil
}
