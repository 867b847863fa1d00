package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	ngff "github.com/TuSKan/zarr-ngff"
	"github.com/TuSKan/zarr-ngff/internal/logging"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	configFile = flag.String("config", "", "")

	level   = flag.Int("level", -1, "")
	timeIdx = flag.Int("t", ngff.NoIndex, "")
	channel = flag.Int("c", ngff.NoIndex, "")

	index = flag.String("index", "", "")
	size  = flag.String("size", "", "")

	levels   = flag.Int("levels", 0, "")
	compress = flag.String("compress", "", "")
)

const helpMessage = `
ngffinfo prints the axes, geometry and resolution levels of an OME-NGFF image and
optionally extracts a region of one level into a new image.

Usage: ngffinfo [options] path [output]

  where path   = image root: a directory, .zip archive, http(s) URL or bucket URL
        output = optional path of a new image to write the selected region to

	-config         =string   TOML configuration file
	-level          =number   Resolution level to read, 0 being the finest
	-t              =number   Time point to read
	-c              =number   Channel to read

	-index          =string   Region start in declared order, e.g. "32,64"
	-size           =string   Region size in declared order, e.g. "64,128"

	-levels         =number   Resolution levels to write to output
	-compress       =string   Output compressor: "zstd", "gzip", "zlib" or "none"

	-verbose    (flag)    Run in verbose mode.
	-h, -help   (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Print(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(0)
	}

	cfg := ngff.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = ngff.LoadConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Logging.SetLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logging.Shutdown()
	if *runVerbose {
		logging.SetLogMode(logging.DebugMode)
	}

	if err := run(context.Background(), cfg, flag.Args()); err != nil {
		logging.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		logging.Shutdown()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *ngff.Config, args []string) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	if *level >= 0 {
		opts.Level = *level
	}
	if *timeIdx != ngff.NoIndex {
		opts.TimeIndex = *timeIdx
	}
	if *channel != ngff.NoIndex {
		opts.ChannelIndex = *channel
	}

	r, err := ngff.Open(ctx, args[0], opts)
	if err != nil {
		return err
	}
	defer r.Close()
	printInfo(args[0], r.Info())
	printLevels(ctx, args[0], r.Multiscale(), opts)

	if len(args) < 2 {
		return nil
	}
	region, err := parseRegion(r.Info())
	if err != nil {
		return err
	}
	req := r.Request(region)
	sr, err := r.StoreRegion(req)
	if err != nil {
		return err
	}
	data, err := r.Read(ctx, req)
	if err != nil {
		return err
	}
	img := regionImage(r.Info(), region, sr, data)

	wopts := cfg.WriteOptions()
	if *levels > 0 {
		wopts.Levels = *levels
	}
	if *compress != "" {
		wopts.Compressor = *compress
	}
	if err := ngff.Write(ctx, args[1], img, wopts); err != nil {
		return err
	}
	fmt.Printf("Wrote %v region at %v to %s (%s, %d levels)\n",
		img.Shape, region.Index, args[1], humanize.Bytes(uint64(len(data))), wopts.Levels)
	return nil
}

func printInfo(path string, info ngff.Info) {
	fmt.Printf("%s\n", path)
	fmt.Printf("  NGFF version:  %s\n", info.Version)
	if info.Name != "" {
		fmt.Printf("  Name:          %s\n", info.Name)
	}
	fmt.Printf("  Axes:          %s\n", info.Axes)
	fmt.Printf("  Shape:         %v\n", info.Shape)
	fmt.Printf("  Spacing:       %v\n", info.Geometry.Spacing)
	fmt.Printf("  Origin:        %v\n", info.Geometry.Origin)
	fmt.Printf("  Element type:  %s\n", info.ElementType)
	fmt.Printf("  Level:         %d of %d (%q)\n", info.Level, info.Levels, info.LevelPath)
	fmt.Printf("  Size:          %s\n", humanize.Bytes(uint64(info.NumElements()*info.ElementType.Size())))
}

func printLevels(ctx context.Context, path string, ms *ngff.Multiscale, opts ngff.Options) {
	for i := range ms.Levels {
		opts.Level = i
		r, err := ngff.Open(ctx, path, opts)
		if err != nil {
			fmt.Printf("  [%d] %v\n", i, err)
			continue
		}
		info := r.Info()
		fmt.Printf("  [%d] %-8s shape %v spacing %v\n", i, info.LevelPath, info.Shape, info.Geometry.Spacing)
		r.Close()
	}
}

// regionImage wraps data read for region as a new image. sr is the store
// region that was read, nil for the whole image. Axes pinned by the read have
// extent 1 in the new image.
func regionImage(info ngff.Info, region ngff.Region, sr *ngff.StoreRegion, data []byte) ngff.Image {
	if sr == nil {
		return ngff.Image{
			Shape:       append([]int(nil), info.Shape...),
			Geometry:    info.Geometry.Clone(),
			ElementType: info.ElementType,
			Data:        data,
		}
	}
	n := region.Dimensions()
	img := ngff.Image{
		Shape:       make([]int, n),
		Geometry:    ngff.NewGeometry(n),
		ElementType: info.ElementType,
		Data:        data,
	}
	for i := 0; i < n; i++ {
		img.Shape[i] = sr.Shape[len(sr.Shape)-1-i]
		img.Geometry.Spacing[i] = info.Geometry.Spacing[i]
		img.Geometry.Origin[i] = info.Geometry.Origin[i] + float64(region.Index[i])*info.Geometry.Spacing[i]
	}
	return img
}

// parseRegion reads -index and -size. Either may be omitted: the index then
// defaults to zeros and the size to the rest of the image.
func parseRegion(info ngff.Info) (ngff.Region, error) {
	if *index == "" && *size == "" {
		return ngff.WholeRegion(info.Shape), nil
	}
	idx, err := parseInts(*index)
	if err != nil {
		return ngff.Region{}, fmt.Errorf("bad -index: %v", err)
	}
	sz, err := parseInts(*size)
	if err != nil {
		return ngff.Region{}, fmt.Errorf("bad -size: %v", err)
	}
	n := max(len(idx), len(sz))
	if n > len(info.Shape) {
		return ngff.Region{}, fmt.Errorf("region has %d axes, image has %d", n, len(info.Shape))
	}
	region := ngff.Region{Index: make([]int, n), Size: make([]int, n)}
	copy(region.Index, idx)
	for i := 0; i < n; i++ {
		if i < len(sz) {
			region.Size[i] = sz[i]
		} else {
			region.Size[i] = info.Shape[i] - region.Index[i]
		}
	}
	return region, nil
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
