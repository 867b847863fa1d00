package ngff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Axis kinds with a defined role.
const (
	KindSpace   = "space"
	KindTime    = "time"
	KindChannel = "channel"
)

// MaxDimensions is the largest number of axes an NGFF image may have.
const MaxDimensions = 5

// Axis is one named image axis. Kind and Unit may be empty.
type Axis struct {
	Name string `json:"name"`
	Kind string `json:"type,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// UnmarshalJSON accepts both the object form {"name":"x","type":"space"} and
// the bare string form "x". Bare names take their kind and unit from the
// canonical vocabulary when they are part of it.
func (a *Axis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		if c, ok := canonicalAxis(name); ok {
			*a = c
		} else {
			*a = Axis{Name: name}
		}
		return nil
	}
	type plain Axis
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid axis %s: %w", data, err)
	}
	*a = Axis(p)
	return nil
}

func (a Axis) String() string {
	if a.Kind == "" {
		return a.Name
	}
	return a.Name + "(" + a.Kind + ")"
}

// AxisList is an ordered list of axes. Whether it is in store order (outermost
// first, as written in .zattrs and as the array is indexed) or declared order
// (fastest varying first) depends on where it came from; converting between
// the two is always a reversal.
type AxisList []Axis

// Reversed returns a reversed copy of l.
func (l AxisList) Reversed() AxisList {
	if l == nil {
		return nil
	}
	out := make(AxisList, len(l))
	for i, a := range l {
		out[len(l)-1-i] = a
	}
	return out
}

// Names returns the axis names in list order.
func (l AxisList) Names() []string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.Name
	}
	return names
}

func (l AxisList) String() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// StoreOrderAxes converts between declared and store order. Declared axis i
// is store axis N-1-i, so applying it twice gives back the original list.
func StoreOrderAxes(l AxisList) AxisList {
	return l.Reversed()
}

// canonicalAxes is the axis vocabulary in declared order.
var canonicalAxes = AxisList{
	{Name: "x", Kind: KindSpace, Unit: "millimeter"},
	{Name: "y", Kind: KindSpace, Unit: "millimeter"},
	{Name: "z", Kind: KindSpace, Unit: "millimeter"},
	{Name: "c", Kind: KindChannel, Unit: "index"},
	{Name: "t", Kind: KindTime, Unit: "second"},
}

func canonicalAxis(name string) (Axis, bool) {
	for _, a := range canonicalAxes {
		if a.Name == name {
			return a, true
		}
	}
	return Axis{}, false
}

// CanonicalAxes returns the first n axes of the x, y, z, c, t vocabulary in
// declared order.
func CanonicalAxes(n int) (AxisList, error) {
	if n < 1 || n > MaxDimensions {
		return nil, fmt.Errorf("%w: %d axes, expected 1 to %d", ErrDimensionMismatch, n, MaxDimensions)
	}
	return append(AxisList(nil), canonicalAxes[:n]...), nil
}

// DefaultStoreAxes names the axes of an array of the given rank when the
// descriptor does not: the innermost rank axes of t, c, z, y, x, in store
// order.
func DefaultStoreAxes(rank int) (AxisList, error) {
	if rank < 1 || rank > MaxDimensions {
		return nil, fmt.Errorf("%w: array rank %d, expected 1 to %d", ErrDimensionMismatch, rank, MaxDimensions)
	}
	store := canonicalAxes.Reversed()
	return append(AxisList(nil), store[MaxDimensions-rank:]...), nil
}
