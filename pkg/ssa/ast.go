// Package ssa models the SSA form of a single decompiled procedure:
// expressions and instructions as closed variant sets, versioned
// identifiers with use-def bookkeeping, and the procedure's stack frame
// description. Analyses mutate this state in place.
package ssa

import "github.com/relift/relift/pkg/dtypes"

// Node is the base interface for all SSA IR nodes
type Node interface {
	implSSANode()
}

// Expr is the interface for SSA expressions
type Expr interface {
	Node
	implSSAExpr()
	ExprType() dtypes.Type // returns the type of the expression's value
}

// Instr is the interface for the operation carried by one statement
type Instr interface {
	Node
	implSSAInstr()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	// Arithmetic
	Oadd BinaryOp = iota // addition
	Osub                 // subtraction
	Omul                 // multiplication
	Odiv                 // division
	Omod                 // modulo

	// Comparison
	Oeq // equal
	One // not equal
	Olt // less than
	Ogt // greater than
	Ole // less or equal
	Oge // greater or equal

	// Bitwise
	Oand // bitwise and
	Oor  // bitwise or
	Oxor // bitwise xor
	Oshl // shift left
	Oshr // shift right
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "&", "|", "^", "<<", ">>"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	Oneg UnaryOp = iota // arithmetic negation
	Onot                // bitwise complement
)

func (op UnaryOp) String() string {
	names := []string{"-", "~"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// --- Expressions ---

// Constant represents an integer constant
type Constant struct {
	Value int64
	Typ   dtypes.Type
}

// Binary represents a binary operation. Typ is the type of the
// expression's own value, and its width is the width of the access the
// expression performs.
type Binary struct {
	Op    BinaryOp
	Typ   dtypes.Type
	Left  Expr
	Right Expr
}

// Unary represents a unary operation
type Unary struct {
	Op  UnaryOp
	Typ dtypes.Type
	Arg Expr
}

// AddrOf represents taking the address of a storage location (&x).
// Typ is always a pointer type.
type AddrOf struct {
	Typ dtypes.Type
	Arg Expr
}

// Deref represents a load through a pointer (*p)
type Deref struct {
	Typ dtypes.Type
	Ptr Expr
}

func (Constant) implSSANode() {}
func (Binary) implSSANode()   {}
func (Unary) implSSANode()    {}
func (AddrOf) implSSANode()   {}
func (Deref) implSSANode()    {}
func (*Ident) implSSANode()   {}

func (Constant) implSSAExpr() {}
func (Binary) implSSAExpr()   {}
func (Unary) implSSAExpr()    {}
func (AddrOf) implSSAExpr()   {}
func (Deref) implSSAExpr()    {}
func (*Ident) implSSAExpr()   {}

func (e Constant) ExprType() dtypes.Type { return e.Typ }
func (e Binary) ExprType() dtypes.Type   { return e.Typ }
func (e Unary) ExprType() dtypes.Type    { return e.Typ }
func (e AddrOf) ExprType() dtypes.Type   { return e.Typ }
func (e Deref) ExprType() dtypes.Type    { return e.Typ }
func (id *Ident) ExprType() dtypes.Type  { return id.Typ }

// --- Instructions ---

// Assign defines an identifier with the value of an expression
type Assign struct {
	Dst *Ident
	Src Expr
}

// Store writes Src to the memory location addressed by Dst
type Store struct {
	Dst Expr
	Src Expr
}

// ArgBinding binds an actual argument at a call site: a storage
// location (register or stack slot identifier at the callee boundary)
// and the expression bound to it. Bindings are not embedded
// sub-expressions of the call; traversals must iterate them explicitly.
type ArgBinding struct {
	Loc  *Ident
	Expr Expr
}

// Call transfers control to Callee with the given argument bindings.
// Result is the identifier defined with the return value, nil for
// calls whose result is unused.
type Call struct {
	Callee   Expr
	Bindings []ArgBinding
	Result   *Ident
}

// Branch conditionally transfers control to the named block
type Branch struct {
	Cond   Expr
	Target string
}

// Return leaves the procedure. Value may be nil.
type Return struct {
	Value Expr
}

// Def marks an identifier as defined at this statement without
// computing it: the value is live on entry (parameters, callee-saved
// state, synthesized frame variables).
type Def struct {
	Ident *Ident
}

func (Assign) implSSANode() {}
func (Store) implSSANode()  {}
func (Call) implSSANode()   {}
func (Branch) implSSANode() {}
func (Return) implSSANode() {}
func (Def) implSSANode()    {}

func (Assign) implSSAInstr() {}
func (Store) implSSAInstr()  {}
func (Call) implSSAInstr()   {}
func (Branch) implSSAInstr() {}
func (Return) implSSAInstr() {}
func (Def) implSSAInstr()    {}
