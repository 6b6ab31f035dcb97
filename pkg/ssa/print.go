// Human-readable output for SSA procedures. The textual form is
// deterministic, so analyses and tests compare statements by their
// printed form.
package ssa

import (
	"fmt"
	"io"
	"strings"
)

// ExprString returns the textual form of an expression
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e, false)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr, nested bool) {
	switch e := e.(type) {
	case Constant:
		fmt.Fprintf(sb, "%d", e.Value)
	case *Ident:
		sb.WriteString(e.Name)
	case Binary:
		if nested {
			sb.WriteString("(")
		}
		writeExpr(sb, e.Left, true)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.Right, true)
		if nested {
			sb.WriteString(")")
		}
	case Unary:
		sb.WriteString(e.Op.String())
		writeExpr(sb, e.Arg, true)
	case AddrOf:
		sb.WriteString("&")
		writeExpr(sb, e.Arg, true)
	case Deref:
		sb.WriteString("*")
		writeExpr(sb, e.Ptr, true)
	default:
		fmt.Fprintf(sb, "?%T", e)
	}
}

// InstrString returns the textual form of an instruction
func InstrString(ins Instr) string {
	switch ins := ins.(type) {
	case Assign:
		return fmt.Sprintf("%s = %s", ins.Dst.Name, ExprString(ins.Src))
	case Store:
		var sb strings.Builder
		sb.WriteString("*")
		writeExpr(&sb, ins.Dst, true)
		sb.WriteString(" = ")
		writeExpr(&sb, ins.Src, false)
		return sb.String()
	case Call:
		var sb strings.Builder
		if ins.Result != nil {
			sb.WriteString(ins.Result.Name)
			sb.WriteString(" = ")
		}
		sb.WriteString("call ")
		writeExpr(&sb, ins.Callee, true)
		sb.WriteString("(")
		for i, b := range ins.Bindings {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.Loc.Name)
			sb.WriteString(": ")
			writeExpr(&sb, b.Expr, false)
		}
		sb.WriteString(")")
		return sb.String()
	case Branch:
		return fmt.Sprintf("if (%s) goto %s", ExprString(ins.Cond), ins.Target)
	case Return:
		if ins.Value == nil {
			return "return"
		}
		return fmt.Sprintf("return %s", ExprString(ins.Value))
	case Def:
		return fmt.Sprintf("def %s", ins.Ident.Name)
	}
	return fmt.Sprintf("?%T", ins)
}

// Fprint writes the whole procedure: frame variables, then blocks and
// statements in layout order.
func Fprint(w io.Writer, p *Proc) {
	fmt.Fprintf(w, "proc %s (word%d)\n", p.Name, p.Frame.WordBits)
	for _, v := range p.Frame.Vars() {
		fmt.Fprintf(w, "  frame %s: %s @ %d\n", v.Name, v.Typ, v.Offset)
	}
	for _, b := range p.Blocks {
		fmt.Fprintf(w, "%s:\n", b.Name)
		for _, s := range b.Stmts {
			fmt.Fprintf(w, "  %s\n", InstrString(s.Instr))
		}
	}
}

// Sprint returns Fprint's output as a string
func Sprint(p *Proc) string {
	var sb strings.Builder
	Fprint(&sb, p)
	return sb.String()
}
