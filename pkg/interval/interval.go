// Package interval maps disjoint half-open byte ranges of a stack
// frame to inferred data types and answers overlap queries. The ranges
// are frame-pointer-relative offsets, so starts may be negative.
package interval

import (
	"fmt"
	"sort"

	"github.com/relift/relift/pkg/dtypes"
)

// Entry is one half-open range [Start, End) tagged with a type
type Entry struct {
	Start int64
	End   int64
	Typ   dtypes.Type
}

func (e Entry) String() string {
	return fmt.Sprintf("[%d, %d) %s", e.Start, e.End, e.Typ)
}

// Map is a collection of pairwise disjoint entries in offset order.
// The zero value is an empty map ready for use.
type Map struct {
	entries []Entry
}

// Len returns the number of entries
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the entries in offset order. The slice is shared;
// callers must not modify it.
func (m *Map) Entries() []Entry { return m.entries }

// Add inserts [start, end) with the given type. Empty or inverted
// ranges and ranges overlapping an existing entry are rejected.
func (m *Map) Add(start, end int64, typ dtypes.Type) error {
	if end <= start {
		return fmt.Errorf("interval: empty range [%d, %d)", start, end)
	}
	// Insertion point: first entry ending after start.
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].End > start
	})
	if i < len(m.entries) && m.entries[i].Start < end {
		return fmt.Errorf("interval: [%d, %d) overlaps %s", start, end, m.entries[i])
	}
	m.entries = append(m.entries, Entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = Entry{Start: start, End: end, Typ: typ}
	return nil
}

// Overlapping returns the entries intersecting the half-open range
// [lo, hi), in offset order.
func (m *Map) Overlapping(lo, hi int64) []Entry {
	if hi <= lo {
		return nil
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].End > lo
	})
	var result []Entry
	for ; i < len(m.entries) && m.entries[i].Start < hi; i++ {
		result = append(result, m.entries[i])
	}
	return result
}

// At returns the entry containing the single offset, if any
func (m *Map) At(offset int64) (Entry, bool) {
	if ents := m.Overlapping(offset, offset+1); len(ents) > 0 {
		return ents[0], true
	}
	return Entry{}, false
}
