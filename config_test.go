package ngff_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ngff "github.com/TuSKan/zarr-ngff"
)

const sampleConfig = `
[logging]
logfile = "%s"
max_log_size = 10
max_log_age = 7
level = "warning"

[read]
level = 1
time = 3
validate_schema = true

[cache]
size = "64 MB"

[write]
compressor = "zstd"
compression_level = 3
chunk_size = 32
levels = 3

[axes.kinds]
spectral = "channel"

[axes.spatial]
angle = 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadConfig(t *testing.T) {
	logfile := filepath.Join(t.TempDir(), "ngff.log")
	c, err := ngff.LoadConfig(writeConfig(t, fmtConfig(sampleConfig, logfile)))
	require.NoError(t, err)

	require.Equal(t, logfile, c.Logging.Logfile)
	require.Equal(t, 10, c.Logging.MaxSize)
	require.Equal(t, "warning", c.Logging.Level)

	opts, err := c.Options()
	require.NoError(t, err)
	require.Equal(t, 1, opts.Level)
	require.Equal(t, 3, opts.TimeIndex)
	require.Equal(t, ngff.NoIndex, opts.ChannelIndex)
	require.True(t, opts.ValidateSchema)
	require.NotNil(t, opts.Cache)
	require.Equal(t, ngff.RoleChannel, opts.Roles.Kinds["spectral"])
	require.Equal(t, 2, opts.Roles.Spatial["angle"])
	require.Equal(t, 0, opts.Roles.Spatial["x"])

	w := c.WriteOptions()
	require.Equal(t, "zstd", w.Compressor)
	require.Equal(t, 3, w.CompressionLevel)
	require.Equal(t, 32, w.ChunkSize)
	require.Equal(t, "/", w.DimensionSeparator)
	require.Equal(t, 3, w.Levels)
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := ngff.LoadConfig(writeConfig(t, "[read]\nlevel = 0\n"))
	require.NoError(t, err)
	opts, err := c.Options()
	require.NoError(t, err)
	require.Equal(t, ngff.NoIndex, opts.TimeIndex)
	require.Nil(t, opts.Cache)
	require.Equal(t, ngff.DefaultWriteOptions().Levels, c.WriteOptions().Levels)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"log level":  "[logging]\nlevel = \"loud\"\n",
		"cache size": "[cache]\nsize = \"lots\"\n",
		"compressor": "[write]\ncompressor = \"blosc\"\n",
		"separator":  "[write]\ndimension_separator = \"_\"\n",
		"levels":     "[write]\nlevels = 0\n",
		"role":       "[axes.kinds]\nangle = \"rotation\"\n",
		"position":   "[axes.spatial]\nw = 7\n",
		"read level": "[read]\nlevel = -1\n",
		"syntax":     "[read\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ngff.LoadConfig(writeConfig(t, content))
			require.Error(t, err)
		})
	}
	_, err := ngff.LoadConfig("")
	require.Error(t, err)
}

func fmtConfig(format, logfile string) string {
	return fmt.Sprintf(format, filepath.ToSlash(logfile))
}
