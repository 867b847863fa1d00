package ngff_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	ngff "github.com/TuSKan/zarr-ngff"
)

func TestApplyScaleScenario(t *testing.T) {
	var transforms []ngff.CoordinateTransformation
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"scale","scale":[4,4,4]},{"type":"translation","translation":[0,0,0]}]`), &transforms))

	g := ngff.NewGeometry(3)
	require.NoError(t, g.Apply(transforms))
	require.Equal(t, []float64{4, 4, 4}, g.Spacing)
	require.Equal(t, []float64{0, 0, 0}, g.Origin)
}

func TestApplyReversesStoreOrder(t *testing.T) {
	g := ngff.Geometry{Spacing: []float64{1, 1, 1}, Origin: []float64{1, 2, 3}}
	require.NoError(t, g.Apply([]ngff.CoordinateTransformation{
		ngff.ScaleTransform(3, 2, 0.5),
		ngff.TranslationTransform(30, 20, 10),
	}))
	// Scale multiplies the existing origin before translating.
	require.Equal(t, []float64{0.5, 2, 3}, g.Spacing)
	require.Equal(t, []float64{10.5, 24, 39}, g.Origin)

	require.Equal(t, []ngff.CoordinateTransformation{
		ngff.ScaleTransform(3, 2, 0.5),
		ngff.TranslationTransform(39, 24, 10.5),
	}, g.Transformations())
}

func TestApplyEmpty(t *testing.T) {
	g := ngff.NewGeometry(2)
	require.NoError(t, g.Apply(nil))
	require.NoError(t, g.Apply([]ngff.CoordinateTransformation{}))
	require.Equal(t, ngff.NewGeometry(2), g)
}

func TestApplyExtraEntries(t *testing.T) {
	rec := recordLogs(t)
	g := ngff.NewGeometry(2)
	require.NoError(t, g.Apply([]ngff.CoordinateTransformation{
		ngff.ScaleTransform(2, 2),
		ngff.TranslationTransform(1, 1),
		ngff.ScaleTransform(100, 100),
		{Type: "affine"},
	}))
	require.Equal(t, []float64{2, 2}, g.Spacing)
	require.Equal(t, []float64{1, 1}, g.Origin)
	require.Len(t, rec.Warnings(), 1)
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name       string
		transforms []ngff.CoordinateTransformation
		want       error
	}{
		{"translation first", []ngff.CoordinateTransformation{ngff.TranslationTransform(1, 1)}, ngff.ErrBadTransformOrder},
		{"identity first", []ngff.CoordinateTransformation{{Type: "identity"}}, ngff.ErrBadTransformOrder},
		{"two scales", []ngff.CoordinateTransformation{ngff.ScaleTransform(1, 1), ngff.ScaleTransform(1, 1)}, ngff.ErrBadTransformOrder},
		{"short scale", []ngff.CoordinateTransformation{ngff.ScaleTransform(1)}, ngff.ErrDimensionMismatch},
		{"long translation", []ngff.CoordinateTransformation{ngff.ScaleTransform(1, 1), ngff.TranslationTransform(1, 1, 1)}, ngff.ErrDimensionMismatch},
		{"scale path", []ngff.CoordinateTransformation{{Type: "scale", Path: "scale.bin"}}, ngff.ErrUnsupportedTransform},
		{"translation path", []ngff.CoordinateTransformation{ngff.ScaleTransform(1, 1), {Type: "translation", Path: "t.bin"}}, ngff.ErrUnsupportedTransform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ngff.NewGeometry(2)
			require.ErrorIs(t, g.Apply(tt.transforms), tt.want)
			require.Equal(t, ngff.NewGeometry(2), g, "geometry changed on error")
		})
	}
}
