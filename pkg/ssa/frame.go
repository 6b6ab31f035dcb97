package ssa

import (
	"fmt"
	"sort"

	"github.com/relift/relift/pkg/dtypes"
)

// StackVar is a named storage location in the procedure's frame.
// Offset is signed and frame-pointer relative: negative offsets are
// locals below the frame pointer, non-negative offsets are parameters
// and saved state above it.
type StackVar struct {
	Name   string
	Offset int64
	Typ    dtypes.Type
}

// Frame describes a procedure's stack frame as a set of variables
// keyed by their frame-pointer-relative byte offset.
type Frame struct {
	// WordBits is the machine word width of the procedure's
	// architecture, in bits.
	WordBits int

	vars map[int64]*StackVar
}

// NewFrame creates an empty frame for the given word width
func NewFrame(wordBits int) *Frame {
	return &Frame{
		WordBits: wordBits,
		vars:     make(map[int64]*StackVar),
	}
}

// EnsureStackVar returns the variable at the given offset, creating it
// with the given type on first request. A variable already present at
// that exact offset is reused, never duplicated; its type is not
// revised.
func (f *Frame) EnsureStackVar(offset int64, typ dtypes.Type) *StackVar {
	if v, ok := f.vars[offset]; ok {
		return v
	}
	v := &StackVar{Name: StackVarName(offset), Offset: offset, Typ: typ}
	f.vars[offset] = v
	return v
}

// StackVarAt returns the variable at the given offset, or nil
func (f *Frame) StackVarAt(offset int64) *StackVar {
	return f.vars[offset]
}

// Vars returns the frame's variables in offset order
func (f *Frame) Vars() []*StackVar {
	result := make([]*StackVar, 0, len(f.vars))
	for _, v := range f.vars {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Offset < result[j].Offset })
	return result
}

// StackVarName returns the conventional name for a frame variable:
// locN for locals below the frame pointer, argN above it.
func StackVarName(offset int64) string {
	if offset < 0 {
		return fmt.Sprintf("loc%d", -offset)
	}
	return fmt.Sprintf("arg%d", offset)
}
