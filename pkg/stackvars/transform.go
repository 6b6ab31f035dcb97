// Package stackvars rewrites frame-pointer arithmetic into references
// to synthesized stack variables.
//
// After conversion to SSA, accesses to stack regions whose address
// escapes are still expressed as raw pointer arithmetic on the frame
// pointer (fp + k / fp - k). Given the escaped byte ranges and their
// inferred types, this pass materializes one stack variable per range
// and rewrites every frame-relative expression that lands inside a
// range into "address-of variable, plus residual offset", keeping the
// procedure's use-def chains consistent.
package stackvars

import (
	"context"
	"fmt"

	"github.com/relift/relift/pkg/dtypes"
	"github.com/relift/relift/pkg/interval"
	"github.com/relift/relift/pkg/ssa"
)

// Transformer rewrites one procedure against one escaped-interval map.
type Transformer struct {
	proc      *ssa.Proc
	intervals *interval.Map
	ids       map[int64]*ssa.Ident // interval start -> synthetic identifier
	cur       *ssa.Stmt            // statement being rewritten
}

// New creates a transformer for the given procedure and escaped
// intervals. The interval map must be pairwise disjoint; it is never
// mutated.
func New(proc *ssa.Proc, intervals *interval.Map) *Transformer {
	return &Transformer{
		proc:      proc,
		intervals: intervals,
		ids:       make(map[int64]*ssa.Ident),
	}
}

// Transform materializes a stack variable for every escaped interval,
// then rewrites the procedure's statements in order. It returns true
// whenever the interval map was non-empty, i.e. a rewrite pass ran,
// whether or not any statement matched.
//
// Cancellation is polled once per statement before the statement is
// processed. On cancellation the SSA state is left partially rewritten
// and valid: statements already visited keep their rewritten form,
// later statements are untouched.
func (t *Transformer) Transform(ctx context.Context) bool {
	if t.intervals.Len() == 0 {
		return false
	}
	t.materializeVars()
	for _, s := range t.proc.Stmts() {
		if ctx.Err() != nil {
			return true
		}
		t.cur = s
		s.Instr = t.rewriteInstr(s.Instr)
	}
	return true
}

// materializeVars ensures a frame variable and an entry-defined SSA
// identifier exist for every escaped interval. Both steps are
// idempotent, so running the pass twice cannot duplicate a variable or
// its entry definition.
func (t *Transformer) materializeVars() {
	for _, ent := range t.intervals.Entries() {
		v := t.proc.Frame.EnsureStackVar(ent.Start, ent.Typ)
		t.ids[ent.Start] = t.proc.EnsureFrameIdent(v)
	}
}

// rewriteInstr rewrites every expression embedded in an instruction.
// Call argument bindings are iterated and replaced explicitly: they
// are not reachable through expression recursion.
func (t *Transformer) rewriteInstr(ins ssa.Instr) ssa.Instr {
	switch ins := ins.(type) {
	case ssa.Assign:
		return ssa.Assign{Dst: ins.Dst, Src: t.rewriteExpr(ins.Src)}

	case ssa.Store:
		return ssa.Store{
			Dst: t.rewriteExpr(ins.Dst),
			Src: t.rewriteExpr(ins.Src),
		}

	case ssa.Call:
		bindings := make([]ssa.ArgBinding, len(ins.Bindings))
		for i, b := range ins.Bindings {
			bindings[i] = ssa.ArgBinding{Loc: b.Loc, Expr: t.rewriteExpr(b.Expr)}
		}
		return ssa.Call{
			Callee:   t.rewriteExpr(ins.Callee),
			Bindings: bindings,
			Result:   ins.Result,
		}

	case ssa.Branch:
		return ssa.Branch{Cond: t.rewriteExpr(ins.Cond), Target: ins.Target}

	case ssa.Return:
		if ins.Value == nil {
			return ins
		}
		return ssa.Return{Value: t.rewriteExpr(ins.Value)}

	default:
		// Def carries no value expressions.
		return ins
	}
}

// rewriteExpr performs the structural rewrite. Binary nodes are tested
// against the frame-access recognizer first; everything else is
// rebuilt with rewritten children and otherwise unchanged.
func (t *Transformer) rewriteExpr(e ssa.Expr) ssa.Expr {
	switch e := e.(type) {
	case ssa.Binary:
		if off, ok := t.proc.FrameOffset(e); ok {
			return t.rewriteFrameAccess(e, off)
		}
		return ssa.Binary{
			Op:    e.Op,
			Typ:   e.Typ,
			Left:  t.rewriteExpr(e.Left),
			Right: t.rewriteExpr(e.Right),
		}

	case ssa.Unary:
		return ssa.Unary{Op: e.Op, Typ: e.Typ, Arg: t.rewriteExpr(e.Arg)}

	case ssa.AddrOf:
		return ssa.AddrOf{Typ: e.Typ, Arg: t.rewriteExpr(e.Arg)}

	case ssa.Deref:
		return ssa.Deref{Typ: e.Typ, Ptr: t.rewriteExpr(e.Ptr)}

	default:
		// Constants and identifiers have no children.
		return e
	}
}

// rewriteFrameAccess rewrites a recognized frame access at offset off.
// A recognized access outside every escaped interval is returned
// verbatim, sub-expressions included. Inside an interval [s, e) of
// type T, the access becomes
//
//	&var +/- (off - s)
//
// where &var has type ptr<T> at the width of the access being
// rewritten, and a zero residual yields the bare address-of. Each
// rewrite moves the statement from the frame pointer's use set to the
// synthetic identifier's.
func (t *Transformer) rewriteFrameAccess(e ssa.Binary, off int64) ssa.Expr {
	ents := t.intervals.Overlapping(off, off+1)
	if len(ents) == 0 {
		return e
	}
	if len(ents) > 1 {
		panic(fmt.Sprintf("stackvars: escaped intervals overlap at offset %d: %s, %s", off, ents[0], ents[1]))
	}
	ent := ents[0]
	id := t.ids[ent.Start]
	if id == nil {
		panic(fmt.Sprintf("stackvars: no identifier materialized for interval %s", ent))
	}

	bits := e.Typ.BitSize()
	addr := ssa.AddrOf{Typ: dtypes.Ptr(ent.Typ, bits), Arg: id}

	t.proc.FP.RemoveUse(t.cur)
	id.AddUse(t.cur)

	residual := off - ent.Start
	switch {
	case residual == 0:
		return addr
	case residual > 0:
		return ssa.Binary{
			Op:    ssa.Oadd,
			Typ:   addr.Typ,
			Left:  addr,
			Right: ssa.Constant{Value: residual, Typ: dtypes.Int(bits)},
		}
	default:
		return ssa.Binary{
			Op:    ssa.Osub,
			Typ:   addr.Typ,
			Left:  addr,
			Right: ssa.Constant{Value: -residual, Typ: dtypes.Int(bits)},
		}
	}
}
