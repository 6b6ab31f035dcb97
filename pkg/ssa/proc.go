package ssa

import (
	"fmt"
	"sort"

	"github.com/relift/relift/pkg/dtypes"
)

// IdentID is a stable key for an identifier within its procedure
type IdentID int

// StmtID is a stable key for a statement within its procedure
type StmtID int

// Ident is a versioned program variable in SSA form: one defining
// statement and a set of using statements. Idents live in the
// procedure's arena and are always handled by pointer; the use set is
// keyed by statement ID so membership survives instruction rewrites.
type Ident struct {
	ID   IdentID
	Name string
	Typ  dtypes.Type

	// Def is the single defining statement, nil until defined.
	Def *Stmt

	uses map[StmtID]*Stmt
}

func (id *Ident) String() string { return id.Name }

// AddUse records that statement s references this identifier
func (id *Ident) AddUse(s *Stmt) {
	if id.uses == nil {
		id.uses = make(map[StmtID]*Stmt)
	}
	id.uses[s.ID] = s
}

// RemoveUse records that statement s no longer references this identifier
func (id *Ident) RemoveUse(s *Stmt) {
	delete(id.uses, s.ID)
}

// UsedBy reports whether statement s is in this identifier's use set
func (id *Ident) UsedBy(s *Stmt) bool {
	_, ok := id.uses[s.ID]
	return ok
}

// Uses returns the using statements in statement order
func (id *Ident) Uses() []*Stmt {
	result := make([]*Stmt, 0, len(id.uses))
	for _, s := range id.uses {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NumUses returns the size of the use set
func (id *Ident) NumUses() int { return len(id.uses) }

// Stmt is one statement of the procedure: a program point carrying an
// instruction. The instruction is replaced wholesale when a pass
// rewrites the statement; the Stmt itself (and its ID) is stable.
type Stmt struct {
	ID    StmtID
	Block *Block
	Instr Instr
}

// Block is a basic block: a named, ordered run of statements
type Block struct {
	Name  string
	Stmts []*Stmt
}

// Proc is the SSA state of one procedure: its frame, its frame pointer
// identifier, its blocks in layout order, and the identifier arena.
type Proc struct {
	Name  string
	Frame *Frame

	// FP is the frame pointer identifier, defined at procedure entry.
	FP *Ident

	// Entry is Blocks[0].
	Entry  *Block
	Blocks []*Block

	idents      []*Ident
	frameIdents map[int64]*Ident // stack var offset -> SSA identifier
	nextStmtID  StmtID
}

// NewProc creates a procedure with an entry block, a frame of the given
// word width, and a frame pointer identifier defined at entry.
func NewProc(name string, wordBits int) *Proc {
	p := &Proc{
		Name:        name,
		Frame:       NewFrame(wordBits),
		frameIdents: make(map[int64]*Ident),
	}
	p.Entry = p.NewBlock("entry")
	p.FP = p.NewIdent("fp", dtypes.Ptr(nil, wordBits))
	p.Append(p.Entry, Def{Ident: p.FP})
	return p
}

// NewBlock creates a block and appends it to the procedure's layout
func (p *Proc) NewBlock(name string) *Block {
	b := &Block{Name: name}
	p.Blocks = append(p.Blocks, b)
	return b
}

// NewIdent creates an identifier in the procedure's arena
func (p *Proc) NewIdent(name string, typ dtypes.Type) *Ident {
	id := &Ident{ID: IdentID(len(p.idents)), Name: name, Typ: typ}
	p.idents = append(p.idents, id)
	return id
}

// Idents returns the identifier arena in creation order
func (p *Proc) Idents() []*Ident { return p.idents }

// Append creates a statement for ins at the end of block b, recording
// the definition and every identifier use the instruction contains.
func (p *Proc) Append(b *Block, ins Instr) *Stmt {
	s := &Stmt{ID: p.nextStmtID, Block: b, Instr: ins}
	p.nextStmtID++
	b.Stmts = append(b.Stmts, s)
	p.recordDefUses(s)
	return s
}

func (p *Proc) recordDefUses(s *Stmt) {
	if def := DefinedIdent(s.Instr); def != nil {
		if def.Def != nil && def.Def != s {
			panic(fmt.Sprintf("ssa: identifier %s redefined by statement %d", def.Name, s.ID))
		}
		def.Def = s
	}
	WalkUses(s.Instr, func(id *Ident) {
		id.AddUse(s)
	})
}

// Stmts returns every statement of the procedure, blocks in layout
// order, statements in block order.
func (p *Proc) Stmts() []*Stmt {
	var result []*Stmt
	for _, b := range p.Blocks {
		result = append(result, b.Stmts...)
	}
	return result
}

// EnsureFrameIdent returns the SSA identifier for stack variable v,
// creating it with a Def statement in the entry block on first request.
// At most one identifier and one entry definition exist per variable.
func (p *Proc) EnsureFrameIdent(v *StackVar) *Ident {
	if id, ok := p.frameIdents[v.Offset]; ok {
		return id
	}
	id := p.NewIdent(v.Name, v.Typ)
	p.frameIdents[v.Offset] = id
	p.Append(p.Entry, Def{Ident: id})
	return id
}

// FrameIdent returns the SSA identifier for the stack variable at the
// given offset, or nil if none was materialized.
func (p *Proc) FrameIdent(offset int64) *Ident {
	return p.frameIdents[offset]
}

// FrameOffset decides whether e denotes "frame pointer plus a constant
// byte offset" and extracts the offset:
//
//	fp            -> 0
//	fp + const(c) -> +c
//	fp - const(c) -> -c
//
// The frame pointer must be the left operand; "const + fp" is not a
// frame access. Any other shape is rejected.
func (p *Proc) FrameOffset(e Expr) (int64, bool) {
	switch e := e.(type) {
	case *Ident:
		if e == p.FP {
			return 0, true
		}
	case Binary:
		if e.Op != Oadd && e.Op != Osub {
			return 0, false
		}
		left, ok := e.Left.(*Ident)
		if !ok || left != p.FP {
			return 0, false
		}
		c, ok := e.Right.(Constant)
		if !ok {
			return 0, false
		}
		if e.Op == Osub {
			return -c.Value, true
		}
		return c.Value, true
	}
	return 0, false
}

// DefinedIdent returns the identifier an instruction defines, if any
func DefinedIdent(ins Instr) *Ident {
	switch ins := ins.(type) {
	case Assign:
		return ins.Dst
	case Call:
		return ins.Result
	case Def:
		return ins.Ident
	}
	return nil
}

// WalkUses calls fn for every identifier reference in the value
// positions of ins: source expressions, store addresses, call argument
// bindings and callees, branch conditions and return values. Defined
// identifiers and binding storage locations are not uses.
func WalkUses(ins Instr, fn func(*Ident)) {
	switch ins := ins.(type) {
	case Assign:
		walkExprUses(ins.Src, fn)
	case Store:
		walkExprUses(ins.Dst, fn)
		walkExprUses(ins.Src, fn)
	case Call:
		walkExprUses(ins.Callee, fn)
		for _, b := range ins.Bindings {
			walkExprUses(b.Expr, fn)
		}
	case Branch:
		walkExprUses(ins.Cond, fn)
	case Return:
		if ins.Value != nil {
			walkExprUses(ins.Value, fn)
		}
	}
}

func walkExprUses(e Expr, fn func(*Ident)) {
	switch e := e.(type) {
	case *Ident:
		fn(e)
	case Binary:
		walkExprUses(e.Left, fn)
		walkExprUses(e.Right, fn)
	case Unary:
		walkExprUses(e.Arg, fn)
	case AddrOf:
		walkExprUses(e.Arg, fn)
	case Deref:
		walkExprUses(e.Ptr, fn)
	}
}
