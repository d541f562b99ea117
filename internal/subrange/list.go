package subrange

// Entry is one rectangle of a List and its value.
type Entry[T comparable] struct {
	Rect  Rect
	Value T
}

// List is a partition of the whole subresource space into non-overlapping
// rectangles. The zero List is empty; use NewList to start from a value
// covering everything.
type List[T comparable] struct {
	entries []Entry[T]
}

// NewList returns a list with a single entry covering Whole().
func NewList[T comparable](initial T) *List[T] {
	return &List[T]{entries: []Entry[T]{{Rect: Whole(), Value: initial}}}
}

// Len returns the number of entries.
func (l *List[T]) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in storage order.
func (l *List[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(l.entries))
	copy(out, l.entries)
	return out
}

// Query returns the entries overlapping r, clipped to r. The returned
// rectangles tile r exactly when the list covers the whole space.
func (l *List[T]) Query(r Rect) []Entry[T] {
	var out []Entry[T]
	for _, e := range l.entries {
		if e.Rect.Overlaps(r) {
			out = append(out, Entry[T]{Rect: e.Rect.Intersect(r), Value: e.Value})
		}
	}
	return out
}

// Set assigns v to r. Overlapping entries are split so that no two entries
// overlap afterwards, then neighbours holding equal values are merged.
func (l *List[T]) Set(r Rect, v T) {
	if r.Empty() {
		return
	}
	kept := l.entries[:0:0]
	for _, e := range l.entries {
		if !e.Rect.Overlaps(r) {
			kept = append(kept, e)
			continue
		}
		for _, piece := range e.Rect.Subtract(r) {
			kept = append(kept, Entry[T]{Rect: piece, Value: e.Value})
		}
	}
	kept = append(kept, Entry[T]{Rect: r, Value: v})
	l.entries = coalesce(kept)
}

// coalesce repeatedly merges pairs of entries with equal values whose
// rectangles share an edge.
func coalesce[T comparable](entries []Entry[T]) []Entry[T] {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(entries) && !merged; i++ {
			for j := i + 1; j < len(entries); j++ {
				a, b := entries[i], entries[j]
				if a.Value != b.Value || !a.Rect.adjacent(b.Rect) {
					continue
				}
				entries[i].Rect = a.Rect.Hull(b.Rect)
				entries = append(entries[:j], entries[j+1:]...)
				merged = true
				break
			}
		}
	}
	return entries
}

// Overlapping reports whether any two entries overlap. It is used by tests
// and debug assertions.
func (l *List[T]) Overlapping() bool {
	for i := range l.entries {
		for j := i + 1; j < len(l.entries); j++ {
			if l.entries[i].Rect.Overlaps(l.entries[j].Rect) {
				return true
			}
		}
	}
	return false
}
