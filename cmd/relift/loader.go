package main

import (
	"fmt"
	"os"

	"github.com/relift/relift/pkg/dtypes"
	"github.com/relift/relift/pkg/interval"
	"github.com/relift/relift/pkg/ssa"
	"gopkg.in/yaml.v3"
)

// ProcFile is the YAML description of a procedure's SSA state plus the
// escaped intervals to rewrite against.
type ProcFile struct {
	Name      string         `yaml:"name"`
	WordBits  int            `yaml:"word_bits"`
	Idents    []IdentSpec    `yaml:"idents,omitempty"`
	Intervals []IntervalSpec `yaml:"intervals,omitempty"`
	Blocks    []BlockSpec    `yaml:"blocks"`
}

// IdentSpec declares an identifier and its type
type IdentSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// IntervalSpec is one escaped byte range of the frame
type IntervalSpec struct {
	Start int64  `yaml:"start"`
	End   int64  `yaml:"end"`
	Type  string `yaml:"type"`
}

// BlockSpec is one basic block and its statements
type BlockSpec struct {
	Name  string      `yaml:"name"`
	Stmts []InstrSpec `yaml:"stmts"`
}

// InstrSpec is one statement's instruction
type InstrSpec struct {
	Kind   string    `yaml:"kind"` // assign, store, call, branch, return
	Dst    string    `yaml:"dst,omitempty"`
	Src    *ExprSpec `yaml:"src,omitempty"`
	Addr   *ExprSpec `yaml:"addr,omitempty"`
	Callee *ExprSpec `yaml:"callee,omitempty"`
	Args   []ArgSpec `yaml:"args,omitempty"`
	Result string    `yaml:"result,omitempty"`
	Cond   *ExprSpec `yaml:"cond,omitempty"`
	Target string    `yaml:"target,omitempty"`
	Value  *ExprSpec `yaml:"value,omitempty"`
}

// ArgSpec is one call argument binding
type ArgSpec struct {
	Loc  string    `yaml:"loc"`
	Expr *ExprSpec `yaml:"expr"`
}

// ExprSpec is one expression node
type ExprSpec struct {
	Kind  string    `yaml:"kind"` // const, ident, binary, unary, addrof, deref
	Op    string    `yaml:"op,omitempty"`
	Value *int64    `yaml:"value,omitempty"`
	Name  string    `yaml:"name,omitempty"`
	Type  string    `yaml:"type,omitempty"`
	Left  *ExprSpec `yaml:"left,omitempty"`
	Right *ExprSpec `yaml:"right,omitempty"`
	Arg   *ExprSpec `yaml:"arg,omitempty"`
	Ptr   *ExprSpec `yaml:"ptr,omitempty"`
}

// LoadProcFile reads and builds a procedure description
func LoadProcFile(path string) (*ssa.Proc, *interval.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var pf ProcFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return BuildProc(&pf)
}

// BuildProc turns a ProcFile into SSA state and an interval map
func BuildProc(pf *ProcFile) (*ssa.Proc, *interval.Map, error) {
	if pf.Name == "" {
		return nil, nil, fmt.Errorf("procedure has no name")
	}
	wordBits := pf.WordBits
	if wordBits == 0 {
		wordBits = 32
	}
	b := &builder{
		proc:   ssa.NewProc(pf.Name, wordBits),
		idents: make(map[string]*ssa.Ident),
	}
	b.idents["fp"] = b.proc.FP

	for _, is := range pf.Idents {
		typ, err := dtypes.Parse(is.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("ident %s: %w", is.Name, err)
		}
		b.idents[is.Name] = b.proc.NewIdent(is.Name, typ)
	}

	intervals := &interval.Map{}
	for _, iv := range pf.Intervals {
		typ, err := dtypes.Parse(iv.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("interval [%d, %d): %w", iv.Start, iv.End, err)
		}
		if err := intervals.Add(iv.Start, iv.End, typ); err != nil {
			return nil, nil, err
		}
	}

	for _, bs := range pf.Blocks {
		block := b.proc.NewBlock(bs.Name)
		for i, is := range bs.Stmts {
			ins, err := b.buildInstr(&is)
			if err != nil {
				return nil, nil, fmt.Errorf("block %s, statement %d: %w", bs.Name, i, err)
			}
			b.proc.Append(block, ins)
		}
	}
	return b.proc, intervals, nil
}

type builder struct {
	proc   *ssa.Proc
	idents map[string]*ssa.Ident
}

// ident resolves a name, creating an undeclared identifier as a
// machine word.
func (b *builder) ident(name string) (*ssa.Ident, error) {
	if name == "" {
		return nil, fmt.Errorf("empty identifier name")
	}
	if id, ok := b.idents[name]; ok {
		return id, nil
	}
	id := b.proc.NewIdent(name, dtypes.Word(b.proc.Frame.WordBits))
	b.idents[name] = id
	return id, nil
}

func (b *builder) buildInstr(is *InstrSpec) (ssa.Instr, error) {
	switch is.Kind {
	case "assign":
		dst, err := b.ident(is.Dst)
		if err != nil {
			return nil, err
		}
		src, err := b.buildExpr(is.Src)
		if err != nil {
			return nil, err
		}
		return ssa.Assign{Dst: dst, Src: src}, nil

	case "store":
		addr, err := b.buildExpr(is.Addr)
		if err != nil {
			return nil, err
		}
		src, err := b.buildExpr(is.Src)
		if err != nil {
			return nil, err
		}
		return ssa.Store{Dst: addr, Src: src}, nil

	case "call":
		callee, err := b.buildExpr(is.Callee)
		if err != nil {
			return nil, err
		}
		bindings := make([]ssa.ArgBinding, len(is.Args))
		for i, a := range is.Args {
			loc, err := b.ident(a.Loc)
			if err != nil {
				return nil, err
			}
			expr, err := b.buildExpr(a.Expr)
			if err != nil {
				return nil, err
			}
			bindings[i] = ssa.ArgBinding{Loc: loc, Expr: expr}
		}
		var result *ssa.Ident
		if is.Result != "" {
			if result, err = b.ident(is.Result); err != nil {
				return nil, err
			}
		}
		return ssa.Call{Callee: callee, Bindings: bindings, Result: result}, nil

	case "branch":
		cond, err := b.buildExpr(is.Cond)
		if err != nil {
			return nil, err
		}
		return ssa.Branch{Cond: cond, Target: is.Target}, nil

	case "return":
		if is.Value == nil {
			return ssa.Return{}, nil
		}
		value, err := b.buildExpr(is.Value)
		if err != nil {
			return nil, err
		}
		return ssa.Return{Value: value}, nil
	}
	return nil, fmt.Errorf("unknown instruction kind %q", is.Kind)
}

func (b *builder) buildExpr(es *ExprSpec) (ssa.Expr, error) {
	if es == nil {
		return nil, fmt.Errorf("missing expression")
	}
	typ, err := b.exprType(es)
	if err != nil {
		return nil, err
	}
	switch es.Kind {
	case "const":
		if es.Value == nil {
			return nil, fmt.Errorf("constant without value")
		}
		return ssa.Constant{Value: *es.Value, Typ: typ}, nil

	case "ident":
		return b.ident(es.Name)

	case "binary":
		op, ok := binaryOps[es.Op]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", es.Op)
		}
		left, err := b.buildExpr(es.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.buildExpr(es.Right)
		if err != nil {
			return nil, err
		}
		return ssa.Binary{Op: op, Typ: typ, Left: left, Right: right}, nil

	case "unary":
		op, ok := unaryOps[es.Op]
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", es.Op)
		}
		arg, err := b.buildExpr(es.Arg)
		if err != nil {
			return nil, err
		}
		return ssa.Unary{Op: op, Typ: typ, Arg: arg}, nil

	case "addrof":
		arg, err := b.buildExpr(es.Arg)
		if err != nil {
			return nil, err
		}
		return ssa.AddrOf{Typ: typ, Arg: arg}, nil

	case "deref":
		ptr, err := b.buildExpr(es.Ptr)
		if err != nil {
			return nil, err
		}
		return ssa.Deref{Typ: typ, Ptr: ptr}, nil
	}
	return nil, fmt.Errorf("unknown expression kind %q", es.Kind)
}

// exprType parses the node's declared type, defaulting to the frame's
// machine word.
func (b *builder) exprType(es *ExprSpec) (dtypes.Type, error) {
	if es.Type == "" {
		return dtypes.Word(b.proc.Frame.WordBits), nil
	}
	return dtypes.Parse(es.Type)
}

var binaryOps = map[string]ssa.BinaryOp{
	"+":  ssa.Oadd,
	"-":  ssa.Osub,
	"*":  ssa.Omul,
	"/":  ssa.Odiv,
	"%":  ssa.Omod,
	"==": ssa.Oeq,
	"!=": ssa.One,
	"<":  ssa.Olt,
	">":  ssa.Ogt,
	"<=": ssa.Ole,
	">=": ssa.Oge,
	"&":  ssa.Oand,
	"|":  ssa.Oor,
	"^":  ssa.Oxor,
	"<<": ssa.Oshl,
	">>": ssa.Oshr,
}

var unaryOps = map[string]ssa.UnaryOp{
	"-": ssa.Oneg,
	"~": ssa.Onot,
}
