package kvstore

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// BufferInfo describes a zip archive held in memory. Writing to the name
// returned by MemoryFileName replaces Data with the newly written archive.
type BufferInfo struct {
	Data []byte
}

var (
	buffersMu sync.Mutex
	buffers   = map[string]*BufferInfo{}
)

const memorySuffix = ".memory"

// MemoryFileName registers b and returns its synthetic path,
// "<decimal-address>.memory". The name stays the same for the life of b, so it
// can be used again after a write to find the new Data.
func MemoryFileName(b *BufferInfo) string {
	name := fmt.Sprintf("%d%s", reflect.ValueOf(b).Pointer(), memorySuffix)
	buffersMu.Lock()
	buffers[name] = b
	buffersMu.Unlock()
	return name
}

// ReleaseBuffer forgets the buffer registered under name.
func ReleaseBuffer(name string) {
	buffersMu.Lock()
	delete(buffers, name)
	buffersMu.Unlock()
}

// LookupBuffer returns the buffer registered under name.
func LookupBuffer(name string) (*BufferInfo, bool) {
	buffersMu.Lock()
	defer buffersMu.Unlock()
	b, ok := buffers[name]
	return b, ok
}

func isMemoryName(path string) bool {
	return strings.HasSuffix(path, memorySuffix)
}
