package ngff_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	ngff "github.com/TuSKan/zarr-ngff"
)

func TestStoreOrderAxesDoubleReversal(t *testing.T) {
	for n := 0; n <= ngff.MaxDimensions; n++ {
		axes := ngff.AxisList{}
		if n > 0 {
			var err error
			axes, err = ngff.CanonicalAxes(n)
			require.NoError(t, err)
		}
		store := ngff.StoreOrderAxes(axes)
		require.Len(t, store, n)
		for i := range axes {
			require.Equal(t, axes[i], store[n-1-i])
		}
		require.Equal(t, axes, ngff.StoreOrderAxes(store))
	}

	custom := ngff.AxisList{{Name: "angle", Kind: "space"}, {Name: "y"}, {Name: "lambda", Kind: "spectral", Unit: "nanometer"}}
	require.Equal(t, custom, custom.Reversed().Reversed())
	require.Nil(t, ngff.AxisList(nil).Reversed())
}

func TestAxisUnmarshal(t *testing.T) {
	var axes ngff.AxisList
	require.NoError(t, json.Unmarshal([]byte(`["t", {"name":"c","type":"channel"}, "z", {"name":"y","type":"space","unit":"micrometer"}, "q"]`), &axes))
	require.Equal(t, ngff.AxisList{
		{Name: "t", Kind: ngff.KindTime, Unit: "second"},
		{Name: "c", Kind: ngff.KindChannel},
		{Name: "z", Kind: ngff.KindSpace, Unit: "millimeter"},
		{Name: "y", Kind: ngff.KindSpace, Unit: "micrometer"},
		{Name: "q"},
	}, axes)
	require.Equal(t, []string{"t", "c", "z", "y", "q"}, axes.Names())

	require.Error(t, json.Unmarshal([]byte(`[3]`), &axes))
}

func TestCanonicalAxes(t *testing.T) {
	axes, err := ngff.CanonicalAxes(5)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z", "c", "t"}, axes.Names())
	require.Equal(t, "index", axes[3].Unit)
	require.Equal(t, ngff.KindTime, axes[4].Kind)

	for _, n := range []int{0, 6} {
		_, err := ngff.CanonicalAxes(n)
		require.True(t, errors.Is(err, ngff.ErrDimensionMismatch), "n=%d: %v", n, err)
	}
}

func TestDefaultStoreAxes(t *testing.T) {
	tests := []struct {
		rank int
		want []string
	}{
		{1, []string{"x"}},
		{2, []string{"y", "x"}},
		{3, []string{"z", "y", "x"}},
		{4, []string{"c", "z", "y", "x"}},
		{5, []string{"t", "c", "z", "y", "x"}},
	}
	for _, tt := range tests {
		got, err := ngff.DefaultStoreAxes(tt.rank)
		if err != nil {
			t.Errorf("DefaultStoreAxes(%d) error: %v", tt.rank, err)
			continue
		}
		if names := got.Names(); !equalStrings(names, tt.want) {
			t.Errorf("DefaultStoreAxes(%d) = %v, want %v", tt.rank, names, tt.want)
		}
	}
	_, err := ngff.DefaultStoreAxes(6)
	require.ErrorIs(t, err, ngff.ErrDimensionMismatch)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
