package interval

import (
	"testing"

	"github.com/relift/relift/pkg/dtypes"
)

func mustAdd(t *testing.T, m *Map, start, end int64, typ dtypes.Type) {
	t.Helper()
	if err := m.Add(start, end, typ); err != nil {
		t.Fatalf("Add(%d, %d): %v", start, end, err)
	}
}

func TestAddKeepsOffsetOrder(t *testing.T) {
	m := &Map{}
	mustAdd(t, m, 4, 12, dtypes.Int64())
	mustAdd(t, m, -8, -4, dtypes.Int32())
	mustAdd(t, m, -4, 0, dtypes.UInt32())

	ents := m.Entries()
	if len(ents) != 3 {
		t.Fatalf("Len = %d, want 3", len(ents))
	}
	starts := []int64{-8, -4, 4}
	for i, want := range starts {
		if ents[i].Start != want {
			t.Errorf("entries[%d].Start = %d, want %d", i, ents[i].Start, want)
		}
	}
}

func TestAddRejectsOverlap(t *testing.T) {
	m := &Map{}
	mustAdd(t, m, -8, -4, dtypes.Int32())

	tests := []struct {
		name       string
		start, end int64
	}{
		{"identical", -8, -4},
		{"contained", -7, -5},
		{"overlaps low end", -10, -7},
		{"overlaps high end", -5, 0},
		{"covers", -12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Add(tt.start, tt.end, dtypes.Int32()); err == nil {
				t.Errorf("Add(%d, %d) succeeded, want overlap error", tt.start, tt.end)
			}
		})
	}

	// Touching ends are fine: ranges are half-open.
	mustAdd(t, m, -4, 0, dtypes.Int32())
	mustAdd(t, m, -12, -8, dtypes.Int32())
}

func TestAddRejectsEmptyRange(t *testing.T) {
	m := &Map{}
	if err := m.Add(4, 4, dtypes.Int32()); err == nil {
		t.Error("Add(4, 4) succeeded, want error")
	}
	if err := m.Add(4, 0, dtypes.Int32()); err == nil {
		t.Error("Add(4, 0) succeeded, want error")
	}
}

func TestOverlapping(t *testing.T) {
	m := &Map{}
	mustAdd(t, m, -8, -4, dtypes.Int32())
	mustAdd(t, m, 0, 8, dtypes.Int64())

	tests := []struct {
		name   string
		lo, hi int64
		want   []int64 // starts of expected matches
	}{
		{"point inside first", -8, -7, []int64{-8}},
		{"point at last byte", -5, -4, []int64{-8}},
		{"point at half-open end", -4, -3, nil},
		{"point in gap", -2, -1, nil},
		{"point at second start", 0, 1, []int64{0}},
		{"range spanning both", -6, 2, []int64{-8, 0}},
		{"range ending at start", -12, -8, nil},
		{"empty range", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Overlapping(tt.lo, tt.hi)
			if len(got) != len(tt.want) {
				t.Fatalf("Overlapping(%d, %d) returned %d entries, want %d", tt.lo, tt.hi, len(got), len(tt.want))
			}
			for i, start := range tt.want {
				if got[i].Start != start {
					t.Errorf("match %d starts at %d, want %d", i, got[i].Start, start)
				}
			}
		})
	}
}

func TestAt(t *testing.T) {
	m := &Map{}
	mustAdd(t, m, -8, -4, dtypes.Int32())

	if ent, ok := m.At(-6); !ok || ent.Start != -8 {
		t.Errorf("At(-6) = %v, %v; want entry starting at -8", ent, ok)
	}
	if _, ok := m.At(-4); ok {
		t.Error("At(-4) matched; end offset is exclusive")
	}
	if _, ok := m.At(100); ok {
		t.Error("At(100) matched empty region")
	}
}
