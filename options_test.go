package rendergraph

import "testing"

func TestDefaultGraphOptions(t *testing.T) {
	g := New()
	if g.opts.policy != BarrierUnion {
		t.Errorf("policy = %v, want union", g.opts.policy)
	}
	if !g.opts.reorder {
		t.Error("reordering should be on by default")
	}
	if g.Tracker() == nil {
		t.Fatal("New should create a tracker")
	}
}

func TestGraphOptions(t *testing.T) {
	shared := NewTracker()
	g := New(WithBarrierPolicy(BarrierPrecise), WithoutReordering(), WithTracker(shared), WithCapacity(8))

	if g.opts.policy != BarrierPrecise {
		t.Errorf("policy = %v, want precise", g.opts.policy)
	}
	if g.opts.reorder {
		t.Error("WithoutReordering had no effect")
	}
	if g.Tracker() != shared {
		t.Error("WithTracker should share the given tracker")
	}
	if cap(g.nodes) != 8 {
		t.Errorf("capacity = %d, want 8", cap(g.nodes))
	}
}

func TestWithCapacityIgnoresNonPositive(t *testing.T) {
	g := New(WithCapacity(-1))
	if cap(g.nodes) != defaultGraphOptions().capacity {
		t.Errorf("capacity = %d, want default", cap(g.nodes))
	}
}

func TestParseBarrierPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    BarrierPolicy
		wantErr bool
	}{
		{"", BarrierUnion, false},
		{"union", BarrierUnion, false},
		{"precise", BarrierPrecise, false},
		{"exact", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBarrierPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !tt.wantErr && tt.in != "" && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}
