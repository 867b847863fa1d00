package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder is a Logger that keeps every message in memory, prefixed with its
// level. Tests install it with SetLogger to assert on warnings.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) add(level, format string, args ...interface{}) {
	r.mu.Lock()
	r.messages = append(r.messages, level+" "+fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *Recorder) Debugf(format string, args ...interface{})   { r.add("DEBUG", format, args...) }
func (r *Recorder) Infof(format string, args ...interface{})    { r.add("INFO", format, args...) }
func (r *Recorder) Warningf(format string, args ...interface{}) { r.add("WARNING", format, args...) }
func (r *Recorder) Errorf(format string, args ...interface{})   { r.add("ERROR", format, args...) }
func (r *Recorder) Shutdown()                                   {}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Warnings returns the recorded warning messages without their level prefix.
func (r *Recorder) Warnings() []string {
	var out []string
	for _, m := range r.Messages() {
		if rest, ok := strings.CutPrefix(m, "WARNING "); ok {
			out = append(out, rest)
		}
	}
	return out
}
