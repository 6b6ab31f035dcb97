// Package escape finds the byte ranges of a procedure's stack frame
// whose address escapes: frame-relative addresses that are bound to
// call arguments, stored, or copied as values, rather than used only
// to load or store the slot directly. The result is the disjoint,
// typed interval map consumed by the stackvars rewrite.
package escape

import (
	"sort"

	"github.com/relift/relift/pkg/dtypes"
	"github.com/relift/relift/pkg/interval"
	"github.com/relift/relift/pkg/ssa"
)

type finding struct {
	start, end int64
	typ        dtypes.Type
}

type finder struct {
	proc  *ssa.Proc
	found []finding
}

// Find scans every statement of proc and returns the escaped frame
// byte ranges. A frame-relative expression appearing in a value
// position escapes; one appearing only as the operand of a load or as
// a store target is a direct access and does not. Overlapping findings
// are merged to their convex hull before the map is built.
func Find(proc *ssa.Proc) *interval.Map {
	f := &finder{proc: proc}
	for _, s := range proc.Stmts() {
		f.scanInstr(s.Instr)
	}
	return f.merge()
}

func (f *finder) scanInstr(ins ssa.Instr) {
	switch ins := ins.(type) {
	case ssa.Assign:
		f.scanValue(ins.Src, nil)
	case ssa.Store:
		f.scanAddr(ins.Dst)
		f.scanValue(ins.Src, nil)
	case ssa.Call:
		f.scanValue(ins.Callee, nil)
		for _, b := range ins.Bindings {
			f.scanValue(b.Expr, b.Loc.Typ)
		}
	case ssa.Branch:
		f.scanValue(ins.Cond, nil)
	case ssa.Return:
		if ins.Value != nil {
			f.scanValue(ins.Value, nil)
		}
	}
}

// scanValue scans an expression in a value position. loc, when
// non-nil, is the type of the storage location the value is bound to;
// a pointer-typed location names the referent type of the escaping
// range.
func (f *finder) scanValue(e ssa.Expr, loc dtypes.Type) {
	if off, ok := f.proc.FrameOffset(e); ok {
		f.record(off, loc)
		return
	}
	switch e := e.(type) {
	case ssa.Binary:
		f.scanValue(e.Left, nil)
		f.scanValue(e.Right, nil)
	case ssa.Unary:
		f.scanValue(e.Arg, nil)
	case ssa.AddrOf:
		f.scanValue(e.Arg, nil)
	case ssa.Deref:
		f.scanAddr(e.Ptr)
	}
}

// scanAddr scans an expression used as a load or store address. A
// frame access here touches the slot directly and does not escape.
func (f *finder) scanAddr(e ssa.Expr) {
	if _, ok := f.proc.FrameOffset(e); ok {
		return
	}
	f.scanValue(e, nil)
}

func (f *finder) record(off int64, loc dtypes.Type) {
	typ := f.rangeType(loc)
	f.found = append(f.found, finding{
		start: off,
		end:   off + dtypes.ByteSize(typ),
		typ:   typ,
	})
}

// rangeType infers the type of an escaping range from the storage
// location it is bound to: the referent of a pointer-typed location,
// otherwise an uninterpreted machine word.
func (f *finder) rangeType(loc dtypes.Type) dtypes.Type {
	if p, ok := loc.(dtypes.Tpointer); ok && p.Elem != nil {
		return p.Elem
	}
	return dtypes.Word(f.proc.Frame.WordBits)
}

func (f *finder) merge() *interval.Map {
	m := &interval.Map{}
	if len(f.found) == 0 {
		return m
	}
	sort.Slice(f.found, func(i, j int) bool {
		if f.found[i].start != f.found[j].start {
			return f.found[i].start < f.found[j].start
		}
		return f.found[i].end < f.found[j].end
	})
	cur := f.found[0]
	flush := func() {
		if err := m.Add(cur.start, cur.end, cur.typ); err != nil {
			panic("escape: merged findings overlap: " + err.Error())
		}
	}
	for _, fd := range f.found[1:] {
		if fd.start < cur.end {
			// Overlap: widen to the hull. Keep the type only when the
			// findings agree exactly, otherwise degrade to a word.
			if fd.end > cur.end {
				cur.end = fd.end
			}
			if fd.start != cur.start || fd.typ != cur.typ {
				cur.typ = dtypes.Word(int(cur.end-cur.start) * 8)
			}
			continue
		}
		flush()
		cur = fd
	}
	flush()
	return m
}
