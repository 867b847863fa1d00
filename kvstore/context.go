package kvstore

import (
	"context"
	"sync"
)

// Context is the I/O context of a read or write session. It remembers stores
// whose driver holds an exclusive handle (zip archives, in-memory archives) so
// a later session on the same path can release the earlier handle first.
// Stores for other drivers pass through untracked.
type Context struct {
	mu   sync.Mutex
	open map[string]Store
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{open: map[string]Store{}}
}

// Open opens path. If an exclusive store for the same path is still held by
// this context, it is closed before the new one is opened.
func (c *Context) Open(ctx context.Context, path string, mode Mode) (Store, error) {
	if !DriverFor(path).Exclusive() {
		return Open(ctx, path, mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.open[path]; ok {
		delete(c.open, path)
		if err := prev.Close(); err != nil {
			return nil, err
		}
	}
	s, err := Open(ctx, path, mode)
	if err != nil {
		return nil, err
	}
	c.open[path] = s
	return s, nil
}

// Release closes the exclusive store held for path, if any.
func (c *Context) Release(path string) error {
	c.mu.Lock()
	s, ok := c.open[path]
	delete(c.open, path)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Close()
}

// Reset closes every exclusive store held by the context.
func (c *Context) Reset() error {
	c.mu.Lock()
	held := c.open
	c.open = map[string]Store{}
	c.mu.Unlock()

	var firstErr error
	for _, s := range held {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Held returns the number of exclusive stores currently open.
func (c *Context) Held() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open)
}

// CloseStore closes s, opened for path through Open. If s is still the handle
// held for path it is forgotten; a handle that was already replaced by a later
// Open is closed without touching its replacement.
func (c *Context) CloseStore(path string, s Store) error {
	c.mu.Lock()
	if held, ok := c.open[path]; ok && held == s {
		delete(c.open, path)
	}
	c.mu.Unlock()
	return s.Close()
}
