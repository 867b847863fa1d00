package ngff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ngff "github.com/TuSKan/zarr-ngff"
)

func storeAxes(t *testing.T, names ...string) ngff.AxisList {
	t.Helper()
	axes := make(ngff.AxisList, len(names))
	for i, n := range names {
		require.NoError(t, axes[i].UnmarshalJSON([]byte(`"`+n+`"`)))
	}
	return axes
}

func TestBuildStoreRegionFullFrame(t *testing.T) {
	axes := storeAxes(t, "z", "y", "x")
	for _, size := range [][]int{{10, 20, 30}, {1, 1, 1}, {512, 465, 7}} {
		requested := ngff.WholeRegion(size)
		sr, err := ngff.BuildStoreRegion(requested, axes, ngff.NoIndex, ngff.NoIndex)
		require.NoError(t, err)
		require.Equal(t, []int{0, 0, 0}, sr.Start)
		require.Equal(t, []int{size[2], size[1], size[0]}, sr.Shape)
	}
}

func TestBuildStoreRegionPinned(t *testing.T) {
	rec := recordLogs(t)
	axes := storeAxes(t, "t", "c", "y", "x")
	requested := ngff.Region{Index: []int{100, 100}, Size: []int{50, 50}}

	sr, err := ngff.BuildStoreRegion(requested, axes, 2, 0)
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 100, 100}, sr.Start)
	require.Equal(t, []int{1, 1, 50, 50}, sr.Shape)
	require.Empty(t, rec.Warnings())

	sr, err = ngff.BuildStoreRegion(requested, axes, ngff.NoIndex, ngff.NoIndex)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 100, 100}, sr.Start)
	require.Equal(t, []int{1, 1, 50, 50}, sr.Shape)
	require.Equal(t, []string{
		"no time point specified, defaulting to the first",
		"no channel specified, defaulting to the first",
	}, rec.Warnings())
}

func TestBuildStoreRegionAsymmetric(t *testing.T) {
	axes := ngff.AxisList{
		{Name: "c", Kind: ngff.KindChannel},
		{Name: "z", Kind: ngff.KindSpace},
		{Name: "y", Kind: ngff.KindSpace},
		{Name: "x", Kind: ngff.KindSpace},
	}
	requested := ngff.Region{Index: []int{1, 2, 3}, Size: []int{10, 20, 30}}
	sr, err := ngff.BuildStoreRegion(requested, axes, ngff.NoIndex, 4)
	require.NoError(t, err)
	require.Equal(t, []int{4, 3, 2, 1}, sr.Start)
	require.Equal(t, []int{1, 30, 20, 10}, sr.Shape)
}

func TestBuildStoreRegionErrors(t *testing.T) {
	requested := ngff.Region{Index: []int{0, 0}, Size: []int{4, 4}}

	_, err := ngff.BuildStoreRegion(requested, storeAxes(t, "z", "y", "x"), ngff.NoIndex, ngff.NoIndex)
	require.ErrorIs(t, err, ngff.ErrInsufficientRequestedDimensions)

	_, err = ngff.BuildStoreRegion(requested, ngff.AxisList{{Name: "angle", Kind: "space"}, {Name: "x"}}, 0, 0)
	require.ErrorIs(t, err, ngff.ErrUnrecognizedAxis)

	_, err = ngff.BuildStoreRegion(requested, ngff.AxisList{{Name: "lambda", Kind: "spectral"}, {Name: "x"}}, 0, 0)
	require.ErrorIs(t, err, ngff.ErrUnrecognizedAxis)

	_, err = ngff.BuildStoreRegion(ngff.Region{Index: []int{0}, Size: []int{4, 4}}, storeAxes(t, "y", "x"), 0, 0)
	require.ErrorIs(t, err, ngff.ErrDimensionMismatch)
}

func TestMapperCustomRoles(t *testing.T) {
	roles := ngff.DefaultAxisRoles()
	roles.Kinds["spectral"] = ngff.RoleChannel
	roles.Spatial["angle"] = 2
	m := ngff.NewMapper(roles)

	axes := ngff.AxisList{
		{Name: "lambda", Kind: "spectral"},
		{Name: "angle", Kind: "space"},
		{Name: "y", Kind: "space"},
		{Name: "x", Kind: "space"},
	}
	requested := ngff.Region{Index: []int{0, 8, 3}, Size: []int{16, 8, 1}}
	sr, err := m.BuildStoreRegion(requested, axes, ngff.NoIndex, 5)
	require.NoError(t, err)
	require.Equal(t, []int{5, 3, 8, 0}, sr.Start)
	require.Equal(t, []int{1, 1, 8, 16}, sr.Shape)

	role, pos, err := roles.Role(ngff.Axis{Name: "angle", Kind: "space"})
	require.NoError(t, err)
	require.Equal(t, ngff.RoleSpace, role)
	require.Equal(t, 2, pos)
	require.Equal(t, "space", role.String())

	// Zero roles fall back to the defaults.
	sr, err = ngff.NewMapper(ngff.AxisRoles{}).BuildStoreRegion(requested, storeAxes(t, "z", "y", "x"), 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int{3, 8, 0}, sr.Start)
}

func TestIsWholeImage(t *testing.T) {
	require.True(t, ngff.IsWholeImage(ngff.WholeRegion([]int{1024, 930}), []int{930, 1024}))
	require.True(t, ngff.IsWholeImage(ngff.Region{Index: []int{0, 0}, Size: []int{2, 6}}, []int{1, 3, 4}))
	require.False(t, ngff.IsWholeImage(ngff.Region{Index: []int{32, 64}, Size: []int{64, 128}}, []int{930, 1024}))
}
