// Package kvstore holds the key/value stores a Zarr hierarchy is read from and
// written to: local directories, zip archives (on disk or in memory), HTTP
// servers and cloud buckets.
package kvstore

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReadOnly is returned by Put on stores that cannot be written.
	ErrReadOnly = errors.New("read-only store")
)

// Store is a flat key/value view of one Zarr hierarchy. Keys are slash
// separated and relative to the hierarchy root, e.g. ".zattrs" or "0/.zarray".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, val []byte) error
	// Name identifies the store root; it is stable for the life of the store.
	Name() string
	Driver() Driver
	Close() error
}

// Driver names a store implementation.
type Driver string

const (
	File  Driver = "file"
	Zip   Driver = "zip"
	HTTP  Driver = "http"
	Cloud Driver = "cloud"
)

// Exclusive reports whether the driver holds an exclusive handle on its
// backing resource while open.
func (d Driver) Exclusive() bool {
	return d == Zip
}

// Mode selects how a store is opened.
type Mode int

const (
	// ReadMode opens an existing hierarchy.
	ReadMode Mode = iota
	// CreateMode opens a hierarchy for writing, discarding zip contents.
	CreateMode
)

// DriverFor picks the driver for a path. Paths starting with "http" use the
// http driver, paths ending in ".zip" or ".memory" the zip driver, other URLs
// the cloud driver and everything else the local file driver.
func DriverFor(path string) Driver {
	switch {
	case strings.HasPrefix(path, "http"):
		return HTTP
	case strings.HasSuffix(path, ".zip"), strings.HasSuffix(path, ".memory"):
		return Zip
	case strings.HasPrefix(path, "file://"):
		return File
	}
	if u, err := url.Parse(path); err == nil && len(u.Scheme) > 1 && strings.Contains(path, "://") {
		return Cloud
	}
	return File
}

// Open opens the store for path with the driver DriverFor selects. Zip stores
// opened this way are not tracked; use a Context when exclusive handles must
// be released between sessions.
func Open(ctx context.Context, path string, mode Mode) (Store, error) {
	switch DriverFor(path) {
	case HTTP:
		if mode == CreateMode {
			return nil, ErrReadOnly
		}
		return OpenHTTP(path, nil)
	case Zip:
		return OpenZip(ctx, path, mode)
	case Cloud:
		return OpenCloud(ctx, path)
	default:
		return OpenFile(strings.TrimPrefix(path, "file://"), mode)
	}
}

// Join builds a store key from path elements, ignoring empty elements.
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		e = strings.Trim(e, "/")
		if e != "" && e != "." {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}
