package ngff

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/TuSKan/zarr-ngff/internal/logging"
	"github.com/TuSKan/zarr-ngff/kvstore"
	"github.com/TuSKan/zarr-ngff/zarr"
)

// Options configures a read session.
type Options struct {
	// Level selects the resolution level, 0 being the finest.
	Level int
	// TimeIndex and ChannelIndex pin the time point and channel read by
	// Request. NoIndex reads the first with a warning.
	TimeIndex    int
	ChannelIndex int

	// Context holds exclusive store handles across sessions. If nil the
	// session uses its own context, released on Close.
	Context *kvstore.Context
	// Cache is shared by every array opened by the session. May be nil.
	Cache *zarr.ChunkCache
	// Concurrency bounds the number of chunks read at once; 0 means
	// GOMAXPROCS.
	Concurrency int
	// Roles maps axes to roles when building store regions.
	Roles AxisRoles
	// ValidateSchema checks .zattrs against the multiscales schema before
	// parsing it.
	ValidateSchema bool
}

// DefaultOptions reads the finest level with no pinned time or channel.
func DefaultOptions() Options {
	return Options{
		TimeIndex:    NoIndex,
		ChannelIndex: NoIndex,
		Roles:        DefaultAxisRoles(),
	}
}

func (o Options) arrayOptions() []zarr.Option {
	opts := []zarr.Option{zarr.WithConcurrency(o.Concurrency)}
	if o.Cache != nil {
		opts = append(opts, zarr.WithCache(o.Cache))
	}
	return opts
}

// Info describes the resolution level opened by a Reader. Axes, Shape and
// Geometry are in declared order.
type Info struct {
	Version     string
	Name        string
	Axes        AxisList
	Shape       []int
	Geometry    Geometry
	ElementType zarr.DataType
	Level       int
	Levels      int
	LevelPath   string
}

// NumElements returns the number of elements in the level.
func (i Info) NumElements() int {
	return zarr.NumElements(i.Shape)
}

// Reader is an open NGFF image. It is not safe for concurrent use; open one
// Reader per goroutine.
type Reader struct {
	path       string
	opts       Options
	kctx       *kvstore.Context
	ownContext bool
	store      kvstore.Store

	multiscale *Multiscale
	storeAxes  AxisList
	array      *zarr.Array
	mapper     *Mapper
	info       Info
}

// Open opens the image at path and the resolution level selected by opts.
func Open(ctx context.Context, path string, opts Options) (*Reader, error) {
	r := &Reader{
		path:   path,
		opts:   opts,
		kctx:   opts.Context,
		mapper: NewMapper(opts.Roles),
	}
	if r.kctx == nil {
		r.kctx = kvstore.NewContext()
		r.ownContext = true
	}

	store, err := r.kctx.Open(ctx, path, kvstore.ReadMode)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	r.store = store

	if err := r.open(ctx); err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debugf("opened %s: NGFF %s, level %d of %d (%q), axes %s, shape %v, %s",
		path, r.info.Version, r.info.Level, r.info.Levels, r.info.LevelPath, r.info.Axes, r.info.Shape, r.info.ElementType)
	return r, nil
}

func (r *Reader) open(ctx context.Context) error {
	doc, err := r.store.Get(ctx, GroupKey)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", GroupKey, err)
	}
	if _, err := ParseGroupMarker(doc); err != nil {
		return err
	}

	doc, err = r.store.Get(ctx, AttributesKey)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", AttributesKey, err)
	}
	if r.opts.ValidateSchema {
		if err := ValidateAttributes(doc); err != nil {
			return err
		}
	}
	ms, err := ParseMultiscale(doc)
	if err != nil {
		return err
	}
	r.multiscale = ms

	level, err := ms.SelectLevel(r.opts.Level)
	if err != nil {
		return err
	}
	r.array, err = zarr.OpenArray(ctx, r.store, level.Path, r.opts.arrayOptions()...)
	if err != nil {
		if errors.Is(err, zarr.ErrUnsupportedDType) {
			return fmt.Errorf("%w: %v", ErrUnsupportedElementType, err)
		}
		return err
	}

	shape := r.array.Shape()
	r.storeAxes = ms.Axes
	if len(r.storeAxes) == 0 {
		if r.storeAxes, err = DefaultStoreAxes(len(shape)); err != nil {
			return err
		}
	}
	if len(r.storeAxes) != len(shape) {
		return fmt.Errorf("%w: %d axes declared, array %q has rank %d", ErrDimensionMismatch, len(r.storeAxes), level.Path, len(shape))
	}
	geom, err := ms.Geometry(r.opts.Level, len(shape))
	if err != nil {
		return err
	}

	declaredShape := make([]int, len(shape))
	for i := range shape {
		declaredShape[i] = shape[len(shape)-1-i]
	}
	r.info = Info{
		Version:     ms.Version,
		Name:        ms.Name,
		Axes:        r.storeAxes.Reversed(),
		Shape:       declaredShape,
		Geometry:    geom,
		ElementType: r.array.DataType(),
		Level:       r.opts.Level,
		Levels:      len(ms.Levels),
		LevelPath:   level.Path,
	}
	return nil
}

// Info returns the description of the opened level.
func (r *Reader) Info() Info {
	return r.info
}

// Multiscale returns the parsed descriptor.
func (r *Reader) Multiscale() *Multiscale {
	return r.multiscale
}

// Request returns a request for region with the time point and channel from
// the session options.
func (r *Reader) Request(region Region) RegionRequest {
	return RegionRequest{Region: region, TimeIndex: r.opts.TimeIndex, ChannelIndex: r.opts.ChannelIndex}
}

// StoreRegion returns the store region req reads, or nil if req covers the
// whole level.
func (r *Reader) StoreRegion(req RegionRequest) (*StoreRegion, error) {
	if r.array == nil {
		return nil, fmt.Errorf("reader for %s is closed", r.path)
	}
	if IsWholeImage(req.Region, r.array.Shape()) {
		return nil, nil
	}
	sr, err := r.mapper.BuildStoreRegion(req.Region, r.storeAxes, req.TimeIndex, req.ChannelIndex)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// Read reads req into a little-endian buffer. Elements are in store order,
// which puts the first declared axis fastest.
func (r *Reader) Read(ctx context.Context, req RegionRequest) ([]byte, error) {
	sr, err := r.StoreRegion(req)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return r.array.ReadFull(ctx)
	}
	return r.array.ReadRegion(ctx, sr.Start, sr.Shape)
}

// ReadAll reads the whole level.
func (r *Reader) ReadAll(ctx context.Context) ([]byte, error) {
	return r.Read(ctx, r.Request(WholeRegion(r.info.Shape)))
}

// Tensor reads req as a tensor shaped in store order.
func (r *Reader) Tensor(ctx context.Context, req RegionRequest) (*tensors.Tensor, error) {
	sr, err := r.StoreRegion(req)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		sr = &StoreRegion{Start: make([]int, len(r.storeAxes)), Shape: r.array.Shape()}
	}
	return r.array.ReadTensor(ctx, sr.Start, sr.Shape)
}

// Close releases the store. Exclusive handles held by the session's context
// are released too.
func (r *Reader) Close() error {
	var err error
	if r.store != nil {
		err = r.kctx.CloseStore(r.path, r.store)
		r.store = nil
	}
	r.array = nil
	if r.ownContext {
		if rerr := r.kctx.Reset(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// CanRead reports whether path holds an NGFF image this package can open. It
// never fails; every error, including a panic in a store driver, reads as
// false.
func CanRead(ctx context.Context, path string) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			logging.Debugf("probing %s: %v", path, p)
			ok = false
		}
	}()
	r, err := Open(ctx, path, DefaultOptions())
	if err != nil {
		logging.Debugf("probing %s: %v", path, err)
		return false
	}
	r.Close()
	return true
}

var writeExtensions = []string{".zarr", ".zr2", ".zip", ".memory"}

// CanWrite reports whether Write accepts path: a directory ending in .zarr or
// .zr2, a zip archive, an in-memory archive or a cloud bucket URL.
func CanWrite(p string) bool {
	switch kvstore.DriverFor(p) {
	case kvstore.HTTP:
		return false
	case kvstore.Cloud:
		return true
	}
	ext := strings.ToLower(path.Ext(strings.TrimRight(p, "/")))
	for _, e := range writeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
