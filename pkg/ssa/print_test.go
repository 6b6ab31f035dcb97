package ssa

import (
	"strings"
	"testing"

	"github.com/relift/relift/pkg/dtypes"
)

func TestExprString(t *testing.T) {
	p := NewProc("f", 32)
	r1 := p.NewIdent("r1", dtypes.Word(32))
	w32 := dtypes.Word(32)
	c := func(v int64) Constant { return Constant{Value: v, Typ: w32} }

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"constant", c(42), "42"},
		{"ident", r1, "r1"},
		{"fp minus const", Binary{Op: Osub, Typ: w32, Left: p.FP, Right: c(8)}, "fp - 8"},
		{"nested binary", Binary{Op: Oadd, Typ: w32, Left: Binary{Op: Omul, Typ: w32, Left: r1, Right: c(2)}, Right: c(1)}, "(r1 * 2) + 1"},
		{"deref", Deref{Typ: w32, Ptr: Binary{Op: Osub, Typ: w32, Left: p.FP, Right: c(8)}}, "*(fp - 8)"},
		{"addr of", AddrOf{Typ: dtypes.Ptr(dtypes.Int32(), 32), Arg: r1}, "&r1"},
		{"negate", Unary{Op: Oneg, Typ: w32, Arg: r1}, "-r1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExprString(tt.expr); got != tt.want {
				t.Errorf("ExprString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstrString(t *testing.T) {
	p := NewProc("f", 32)
	r1 := p.NewIdent("r1", dtypes.Word(32))
	a0 := p.NewIdent("a0", dtypes.Ptr(dtypes.Int32(), 32))
	g := p.NewIdent("g", dtypes.Ptr(nil, 32))
	w32 := dtypes.Word(32)
	fpm8 := Binary{Op: Osub, Typ: w32, Left: p.FP, Right: Constant{Value: 8, Typ: w32}}

	tests := []struct {
		name  string
		instr Instr
		want  string
	}{
		{"assign", Assign{Dst: r1, Src: fpm8}, "r1 = fp - 8"},
		{"store", Store{Dst: fpm8, Src: r1}, "*(fp - 8) = r1"},
		{"call", Call{Callee: g, Bindings: []ArgBinding{{Loc: a0, Expr: fpm8}}}, "call g(a0: fp - 8)"},
		{"call with result", Call{Callee: g, Result: r1}, "r1 = call g()"},
		{"branch", Branch{Cond: r1, Target: "b2"}, "if (r1) goto b2"},
		{"return value", Return{Value: r1}, "return r1"},
		{"bare return", Return{}, "return"},
		{"def", Def{Ident: r1}, "def r1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InstrString(tt.instr); got != tt.want {
				t.Errorf("InstrString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSprintProc(t *testing.T) {
	p := NewProc("example", 32)
	v := p.Frame.EnsureStackVar(-8, dtypes.Int32())
	p.EnsureFrameIdent(v)
	r1 := p.NewIdent("r1", dtypes.Word(32))
	b := p.NewBlock("b1")
	p.Append(b, Assign{Dst: r1, Src: Constant{Value: 1, Typ: dtypes.Word(32)}})

	out := Sprint(p)
	for _, want := range []string{
		"proc example (word32)",
		"frame loc8: int32 @ -8",
		"entry:",
		"def fp",
		"def loc8",
		"b1:",
		"r1 = 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Sprint output missing %q:\n%s", want, out)
		}
	}
}
