// Package subrange implements interval arithmetic over image subresources.
//
// An image subresource region is a rectangle in (mip level x array layer)
// space. A List partitions that space into non-overlapping rectangles, each
// carrying a value; Set splits and coalesces rectangles so the partition
// stays exact.
package subrange

import "fmt"

// Unbounded is the exclusive end used for "all remaining" levels or layers.
const Unbounded uint64 = 1 << 32

// Span is a half-open interval [Begin, End).
type Span struct {
	Begin, End uint64
}

// NewSpan builds a span from a Vulkan-style base and count. A count of
// ^uint32(0) means all remaining elements.
func NewSpan(base, count uint32) Span {
	if count == ^uint32(0) {
		return Span{Begin: uint64(base), End: Unbounded}
	}
	end := uint64(base) + uint64(count)
	if end > Unbounded {
		end = Unbounded
	}
	return Span{Begin: uint64(base), End: end}
}

// Full is the span covering every element.
func Full() Span { return Span{Begin: 0, End: Unbounded} }

// Empty reports whether s has no elements.
func (s Span) Empty() bool { return s.End <= s.Begin }

// Count returns the Vulkan-style element count, ^uint32(0) for unbounded spans.
func (s Span) Count() uint32 {
	if s.End >= Unbounded {
		return ^uint32(0)
	}
	return uint32(s.End - s.Begin)
}

// Overlaps reports whether s and o share an element.
func (s Span) Overlaps(o Span) bool {
	return s.Begin < o.End && o.Begin < s.End
}

// Intersect returns the common part of s and o.
func (s Span) Intersect(o Span) Span {
	return Span{Begin: max(s.Begin, o.Begin), End: min(s.End, o.End)}
}

// Hull returns the smallest span containing s and o.
func (s Span) Hull(o Span) Span {
	return Span{Begin: min(s.Begin, o.Begin), End: max(s.End, o.End)}
}

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool {
	return s.Begin <= o.Begin && o.End <= s.End
}

func (s Span) String() string {
	if s.End >= Unbounded {
		return fmt.Sprintf("[%d,*)", s.Begin)
	}
	return fmt.Sprintf("[%d,%d)", s.Begin, s.End)
}

// Rect is a region of mip levels crossed with array layers.
type Rect struct {
	Mips, Layers Span
}

// Whole covers every mip level and layer.
func Whole() Rect { return Rect{Mips: Full(), Layers: Full()} }

// Empty reports whether r contains no subresource.
func (r Rect) Empty() bool { return r.Mips.Empty() || r.Layers.Empty() }

// Overlaps reports whether r and o share a subresource.
func (r Rect) Overlaps(o Rect) bool {
	return r.Mips.Overlaps(o.Mips) && r.Layers.Overlaps(o.Layers)
}

// Intersect returns the common region of r and o.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{Mips: r.Mips.Intersect(o.Mips), Layers: r.Layers.Intersect(o.Layers)}
}

// Hull returns the bounding rectangle of r and o.
func (r Rect) Hull(o Rect) Rect {
	return Rect{Mips: r.Mips.Hull(o.Mips), Layers: r.Layers.Hull(o.Layers)}
}

// Contains reports whether o lies within r.
func (r Rect) Contains(o Rect) bool {
	return r.Mips.Contains(o.Mips) && r.Layers.Contains(o.Layers)
}

// Subtract returns up to four disjoint rectangles covering r minus o.
// Mip bands are cut first, then the layer remainder of the overlapping band.
func (r Rect) Subtract(o Rect) []Rect {
	if !r.Overlaps(o) {
		return []Rect{r}
	}
	in := r.Intersect(o)
	out := make([]Rect, 0, 4)
	if r.Mips.Begin < in.Mips.Begin {
		out = append(out, Rect{Mips: Span{r.Mips.Begin, in.Mips.Begin}, Layers: r.Layers})
	}
	if in.Mips.End < r.Mips.End {
		out = append(out, Rect{Mips: Span{in.Mips.End, r.Mips.End}, Layers: r.Layers})
	}
	if r.Layers.Begin < in.Layers.Begin {
		out = append(out, Rect{Mips: in.Mips, Layers: Span{r.Layers.Begin, in.Layers.Begin}})
	}
	if in.Layers.End < r.Layers.End {
		out = append(out, Rect{Mips: in.Mips, Layers: Span{in.Layers.End, r.Layers.End}})
	}
	return out
}

// adjacent reports whether r and o share a full edge, so their union is a rectangle.
func (r Rect) adjacent(o Rect) bool {
	if r.Mips == o.Mips {
		return r.Layers.End == o.Layers.Begin || o.Layers.End == r.Layers.Begin
	}
	if r.Layers == o.Layers {
		return r.Mips.End == o.Mips.Begin || o.Mips.End == r.Mips.Begin
	}
	return false
}

func (r Rect) String() string {
	return fmt.Sprintf("mips%s layers%s", r.Mips, r.Layers)
}
