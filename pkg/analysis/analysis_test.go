package analysis

import (
	"context"
	"testing"

	"github.com/relift/relift/pkg/dtypes"
	"github.com/relift/relift/pkg/interval"
	"github.com/relift/relift/pkg/ssa"
)

func fpMinus(p *ssa.Proc, c int64) ssa.Binary {
	return ssa.Binary{
		Op:    ssa.Osub,
		Typ:   dtypes.Word(32),
		Left:  p.FP,
		Right: ssa.Constant{Value: c, Typ: dtypes.Word(32)},
	}
}

func TestRewriteEscapedAccesses(t *testing.T) {
	p := ssa.NewProc("f", 32)
	g := p.NewIdent("g", dtypes.Ptr(nil, 32))
	a0 := p.NewIdent("a0", dtypes.Ptr(dtypes.Int32(), 32))
	r1 := p.NewIdent("r1", dtypes.Word(32))
	b := p.NewBlock("b1")
	call := p.Append(b, ssa.Call{
		Callee:   g,
		Bindings: []ssa.ArgBinding{{Loc: a0, Expr: fpMinus(p, 8)}},
	})
	load := p.Append(b, ssa.Assign{Dst: r1, Src: ssa.Deref{Typ: dtypes.Int32(), Ptr: fpMinus(p, 8)}})

	if !RewriteEscapedAccesses(context.Background(), p) {
		t.Fatal("RewriteEscapedAccesses = false, want true")
	}

	if got := ssa.InstrString(call.Instr); got != "call g(a0: &loc8)" {
		t.Errorf("call = %q, want %q", got, "call g(a0: &loc8)")
	}
	// The direct load lands in the same escaped range, so it is
	// rewritten too once the range has escaped elsewhere.
	if got := ssa.InstrString(load.Instr); got != "r1 = *&loc8" {
		t.Errorf("load = %q, want %q", got, "r1 = *&loc8")
	}
}

func TestNoEscapesSkipsRewrite(t *testing.T) {
	p := ssa.NewProc("f", 32)
	r1 := p.NewIdent("r1", dtypes.Word(32))
	b := p.NewBlock("b1")
	s := p.Append(b, ssa.Assign{Dst: r1, Src: ssa.Deref{Typ: dtypes.Int32(), Ptr: fpMinus(p, 8)}})
	before := ssa.InstrString(s.Instr)

	if RewriteEscapedAccesses(context.Background(), p) {
		t.Error("RewriteEscapedAccesses = true with no escapes")
	}
	if got := ssa.InstrString(s.Instr); got != before {
		t.Errorf("statement changed: %q -> %q", before, got)
	}
	if len(p.Frame.Vars()) != 0 {
		t.Error("variables materialized with no escapes")
	}
}

func TestRewriteComplexStackVars(t *testing.T) {
	p := ssa.NewProc("f", 32)
	r1 := p.NewIdent("r1", dtypes.Word(32))
	b := p.NewBlock("b1")
	s := p.Append(b, ssa.Assign{Dst: r1, Src: fpMinus(p, 8)})

	m := &interval.Map{}
	if err := m.Add(-8, -4, dtypes.Int32()); err != nil {
		t.Fatal(err)
	}
	if !RewriteComplexStackVars(context.Background(), p, m) {
		t.Fatal("RewriteComplexStackVars = false, want true")
	}
	if got := ssa.InstrString(s.Instr); got != "r1 = &loc8" {
		t.Errorf("statement = %q, want %q", got, "r1 = &loc8")
	}

	if RewriteComplexStackVars(context.Background(), p, &interval.Map{}) {
		t.Error("RewriteComplexStackVars = true with an empty map")
	}
}
