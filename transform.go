package ngff

import (
	"fmt"

	"github.com/TuSKan/zarr-ngff/internal/logging"
)

// Coordinate transformation types.
const (
	TransformScale       = "scale"
	TransformTranslation = "translation"
)

// CoordinateTransformation is one entry of a coordinateTransformations list.
// Vectors are in store order.
type CoordinateTransformation struct {
	Type        string    `json:"type"`
	Scale       []float64 `json:"scale,omitempty"`
	Translation []float64 `json:"translation,omitempty"`
	Path        string    `json:"path,omitempty"`
}

// ScaleTransform returns a scale transformation.
func ScaleTransform(scale ...float64) CoordinateTransformation {
	return CoordinateTransformation{Type: TransformScale, Scale: scale}
}

// TranslationTransform returns a translation transformation.
func TranslationTransform(translation ...float64) CoordinateTransformation {
	return CoordinateTransformation{Type: TransformTranslation, Translation: translation}
}

// Geometry is the physical placement of an image, in declared order.
type Geometry struct {
	Spacing []float64
	Origin  []float64
}

// NewGeometry returns unit spacing and zero origin for n axes.
func NewGeometry(n int) Geometry {
	g := Geometry{Spacing: make([]float64, n), Origin: make([]float64, n)}
	for i := range g.Spacing {
		g.Spacing[i] = 1
	}
	return g
}

// Dimensions returns the number of axes.
func (g Geometry) Dimensions() int {
	return len(g.Spacing)
}

// Clone returns a deep copy of g.
func (g Geometry) Clone() Geometry {
	return Geometry{
		Spacing: append([]float64(nil), g.Spacing...),
		Origin:  append([]float64(nil), g.Origin...),
	}
}

// Apply combines a coordinateTransformations list into g. The first entry must
// be a scale, which multiplies both spacing and origin; the optional second
// entry must be a translation, which is added to the origin. Entries after the
// second are ignored with a warning. An empty list leaves g unchanged. g is
// not modified when an error is returned.
func (g *Geometry) Apply(transforms []CoordinateTransformation) error {
	if len(transforms) == 0 {
		return nil
	}
	if len(transforms) > 2 {
		logging.Warningf("ignoring %d coordinate transformations after scale and translation", len(transforms)-2)
		transforms = transforms[:2]
	}

	if transforms[0].Type != TransformScale {
		return fmt.Errorf("%w: first transformation is %q, expected %q", ErrBadTransformOrder, transforms[0].Type, TransformScale)
	}
	scale, err := g.vector(transforms[0], transforms[0].Scale)
	if err != nil {
		return err
	}

	var translation []float64
	if len(transforms) == 2 {
		if transforms[1].Type != TransformTranslation {
			return fmt.Errorf("%w: second transformation is %q, expected %q", ErrBadTransformOrder, transforms[1].Type, TransformTranslation)
		}
		if translation, err = g.vector(transforms[1], transforms[1].Translation); err != nil {
			return err
		}
	}

	n := len(g.Spacing)
	for i := 0; i < n; i++ {
		f := scale[n-1-i]
		g.Spacing[i] *= f
		g.Origin[i] *= f
	}
	for i := range translation {
		g.Origin[i] += translation[n-1-i]
	}
	return nil
}

func (g *Geometry) vector(t CoordinateTransformation, vec []float64) ([]float64, error) {
	if t.Path != "" {
		return nil, fmt.Errorf("%w: %s read from path %q", ErrUnsupportedTransform, t.Type, t.Path)
	}
	if len(vec) != len(g.Spacing) {
		return nil, fmt.Errorf("%w: %s has %d values for %d axes", ErrDimensionMismatch, t.Type, len(vec), len(g.Spacing))
	}
	return vec, nil
}

// Transformations returns the scale and translation pair that places an image
// with this geometry, in store order.
func (g Geometry) Transformations() []CoordinateTransformation {
	n := len(g.Spacing)
	scale := make([]float64, n)
	translation := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[n-1-i] = g.Spacing[i]
		translation[n-1-i] = g.Origin[i]
	}
	return []CoordinateTransformation{ScaleTransform(scale...), TranslationTransform(translation...)}
}
