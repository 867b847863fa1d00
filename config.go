package ngff

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"github.com/TuSKan/zarr-ngff/internal/logging"
	"github.com/TuSKan/zarr-ngff/zarr"
)

// Config is the TOML configuration of the ngffinfo tool and of applications
// embedding this package. A sample:
//
//	[logging]
//	logfile = "/var/log/ngff.log"
//	max_log_size = 500 # MB
//	max_log_age = 30   # days
//	level = "warning"
//
//	[read]
//	level = 0
//	time = 2
//	channel = 0
//	validate_schema = true
//
//	[cache]
//	size = "256 MB"
//
//	[write]
//	compressor = "zstd"
//	chunk_size = 64
//	levels = 3
//
//	[axes.kinds]
//	angle = "space"
//
//	[axes.spatial]
//	x = 0
//	y = 1
//	z = 2
type Config struct {
	Logging logging.Config
	Read    ReadConfig
	Cache   CacheConfig
	Write   WriteConfig
	Axes    AxesConfig
}

type ReadConfig struct {
	Level          int  `toml:"level"`
	Time           int  `toml:"time"`
	Channel        int  `toml:"channel"`
	Concurrency    int  `toml:"concurrency"`
	ValidateSchema bool `toml:"validate_schema"`
}

// CacheConfig sizes the decoded-chunk cache, e.g. "64 MB". Empty or "0"
// disables the cache.
type CacheConfig struct {
	Size string `toml:"size"`
}

type WriteConfig struct {
	Compressor         string `toml:"compressor"`
	CompressionLevel   int    `toml:"compression_level"`
	ChunkSize          int    `toml:"chunk_size"`
	DimensionSeparator string `toml:"dimension_separator"`
	Levels             int    `toml:"levels"`
	Concurrency        int    `toml:"concurrency"`
}

// AxesConfig extends the default axis roles. Kinds maps an axis kind to
// "space", "time" or "channel"; Spatial maps a spatial axis name to its
// declared position.
type AxesConfig struct {
	Kinds   map[string]string `toml:"kinds"`
	Spatial map[string]int    `toml:"spatial"`
}

// DefaultConfig returns the configuration used for settings a file leaves
// out.
func DefaultConfig() *Config {
	w := DefaultWriteOptions()
	return &Config{
		Logging: logging.Config{Level: "info"},
		Read:    ReadConfig{Time: NoIndex, Channel: NoIndex},
		Write: WriteConfig{
			ChunkSize:          w.ChunkSize,
			DimensionSeparator: w.DimensionSeparator,
			Levels:             w.Levels,
		},
	}
}

// LoadConfig decodes a TOML file over DefaultConfig and validates it.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := DefaultConfig()
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logging.Warningf("ignoring unknown settings in %s: %v", filename, undecoded)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return c, nil
}

// Validate checks every setting without applying any.
func (c *Config) Validate() error {
	if _, err := logging.ParseMode(c.Logging.Level); err != nil {
		return err
	}
	if c.Read.Level < 0 {
		return fmt.Errorf("read level %d must not be negative", c.Read.Level)
	}
	if _, err := c.cacheBytes(); err != nil {
		return err
	}
	if _, err := zarr.NewCompressor(c.Write.Compressor, c.Write.CompressionLevel); err != nil {
		return err
	}
	switch c.Write.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("invalid dimension_separator %q", c.Write.DimensionSeparator)
	}
	if c.Write.Levels < 1 {
		return fmt.Errorf("write levels %d must be at least 1", c.Write.Levels)
	}
	if _, err := c.Axes.roles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) cacheBytes() (uint64, error) {
	if c.Cache.Size == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Cache.Size)
	if err != nil {
		return 0, fmt.Errorf("invalid cache size %q: %v", c.Cache.Size, err)
	}
	return n, nil
}

func (a AxesConfig) roles() (AxisRoles, error) {
	roles := DefaultAxisRoles()
	kinds := make([]string, 0, len(a.Kinds))
	for k := range a.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		switch a.Kinds[kind] {
		case "space":
			roles.Kinds[kind] = RoleSpace
		case "time":
			roles.Kinds[kind] = RoleTime
		case "channel":
			roles.Kinds[kind] = RoleChannel
		default:
			return AxisRoles{}, fmt.Errorf("axis kind %q has unknown role %q", kind, a.Kinds[kind])
		}
	}
	for name, pos := range a.Spatial {
		if pos < 0 || pos >= MaxDimensions {
			return AxisRoles{}, fmt.Errorf("spatial axis %q has invalid position %d", name, pos)
		}
		roles.Spatial[name] = pos
	}
	return roles, nil
}

// Options returns the read options described by c. Each call with a cache
// size creates a new cache.
func (c *Config) Options() (Options, error) {
	roles, err := c.Axes.roles()
	if err != nil {
		return Options{}, err
	}
	size, err := c.cacheBytes()
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	opts.Level = c.Read.Level
	opts.TimeIndex = c.Read.Time
	opts.ChannelIndex = c.Read.Channel
	opts.Concurrency = c.Read.Concurrency
	opts.ValidateSchema = c.Read.ValidateSchema
	opts.Roles = roles
	if size > 0 {
		logging.Infof("using a %s chunk cache", humanize.Bytes(size))
		opts.Cache = zarr.NewChunkCache(int(size))
	}
	return opts, nil
}

// WriteOptions returns the write options described by c.
func (c *Config) WriteOptions() WriteOptions {
	return WriteOptions{
		Compressor:         c.Write.Compressor,
		CompressionLevel:   c.Write.CompressionLevel,
		ChunkSize:          c.Write.ChunkSize,
		DimensionSeparator: c.Write.DimensionSeparator,
		Levels:             c.Write.Levels,
		Concurrency:        c.Write.Concurrency,
	}
}
