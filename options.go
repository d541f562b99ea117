package rendergraph

import "fmt"

// BarrierPolicy chooses how image barriers are shaped when the requested
// range overlaps several tracked regions with different histories.
type BarrierPolicy uint8

const (
	// BarrierUnion unions the prior accesses of all overlapping regions into
	// one barrier over the requested range. Regions that disagree on layout
	// still get one barrier each, since a barrier has a single old layout.
	BarrierUnion BarrierPolicy = iota
	// BarrierPrecise emits one barrier per overlapping region that needs
	// synchronization, each covering exactly that region.
	BarrierPrecise
)

func (p BarrierPolicy) String() string {
	switch p {
	case BarrierUnion:
		return "union"
	case BarrierPrecise:
		return "precise"
	}
	return fmt.Sprintf("BarrierPolicy(%d)", uint8(p))
}

// ParseBarrierPolicy parses "union" or "precise".
func ParseBarrierPolicy(s string) (BarrierPolicy, error) {
	switch s {
	case "union", "":
		return BarrierUnion, nil
	case "precise":
		return BarrierPrecise, nil
	}
	return 0, fmt.Errorf("rendergraph: unknown barrier policy %q", s)
}

// Option configures a Graph during creation.
type Option func(*graphOptions)

type graphOptions struct {
	policy   BarrierPolicy
	reorder  bool
	tracker  *Tracker
	capacity int
}

func defaultGraphOptions() graphOptions {
	return graphOptions{
		policy:   BarrierUnion,
		reorder:  true,
		capacity: 64,
	}
}

// WithBarrierPolicy selects the image barrier shape.
func WithBarrierPolicy(p BarrierPolicy) Option {
	return func(o *graphOptions) {
		o.policy = p
	}
}

// WithoutReordering disables hoisting nodes in front of a rendering scope.
// Nodes recorded inside a scope are then always deferred or split around,
// which keeps the output closest to program order.
func WithoutReordering() Option {
	return func(o *graphOptions) {
		o.reorder = false
	}
}

// WithTracker shares an existing tracker, so resource state carries over
// between graphs (one graph per frame, one tracker per device).
func WithTracker(t *Tracker) Option {
	return func(o *graphOptions) {
		o.tracker = t
	}
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(o *graphOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}
