// Package ast defines the abstract syntax this assembler is specified
// against (spec.md §3). Any parser producing this shape is acceptable to
// the rest of the pipeline.
package ast

import "github.com/nwidger/m68kasm/diag"

// Size is an operand/directive size suffix. The numeric value is the size
// in bytes, matching spec.md's B=1, W=2, L=4.
type Size int

const (
	// SizeNone marks an instruction with no explicit size suffix; callers
	// resolve it to SizeW (the default) unless the mnemonic forbids a size.
	SizeNone Size = 0
	SizeB    Size = 1
	SizeW    Size = 2
	SizeL    Size = 4
)

// Resolved returns the effective size, substituting SizeW when s is
// SizeNone (spec.md §3: "default size is W when absent").
func (s Size) Resolved() Size {
	if s == SizeNone {
		return SizeW
	}
	return s
}

func (s Size) String() string {
	switch s {
	case SizeB:
		return "B"
	case SizeW:
		return "W"
	case SizeL:
		return "L"
	default:
		return ""
	}
}

// UnaryOp is a unary expression operator.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// BinaryOp is a binary expression operator.
type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryAnd
	BinaryOr
	BinaryShl
	BinaryShr
)

// Expression is the tagged union of spec.md §3:
// Literal | Symbol | Unary | Binary.
type Expression interface {
	Span() diag.Span
}

// Literal is a parsed signed-32-bit integer constant.
type Literal struct {
	Value    int32
	SpanInfo diag.Span
}

func (l *Literal) Span() diag.Span { return l.SpanInfo }

// SymbolRef references a symbol by name.
type SymbolRef struct {
	Name     string
	SpanInfo diag.Span
}

func (s *SymbolRef) Span() diag.Span { return s.SpanInfo }

// Unary applies a unary operator to X.
type Unary struct {
	Op       UnaryOp
	X        Expression
	SpanInfo diag.Span
}

func (u *Unary) Span() diag.Span { return u.SpanInfo }

// Binary applies a binary operator to X and Y.
type Binary struct {
	Op       BinaryOp
	X, Y     Expression
	SpanInfo diag.Span
}

func (b *Binary) Span() diag.Span { return b.SpanInfo }

// OperandKind tags the effective-address variants of spec.md §3/§4.E.
type OperandKind int

const (
	OperandDn OperandKind = iota
	OperandAn
	OperandIndirect
	OperandIndirectPostInc
	OperandIndirectPreDec
	OperandIndirectDisp
	OperandAbsoluteShort
	OperandAbsoluteLong
	OperandImmediate
)

// Operand is one effective-address operand. Reg is populated for Dn, An,
// and every Indirect* kind. Disp is the d16 expression of IndirectDisp.
// Expr is the expression of AbsoluteShort, AbsoluteLong, and Immediate.
type Operand struct {
	Kind     OperandKind
	Reg      int
	Disp     Expression
	Expr     Expression
	SpanInfo diag.Span
}

func (o Operand) Span() diag.Span { return o.SpanInfo }

// Instruction is an optionally-sized mnemonic with zero or more operands.
type Instruction struct {
	Mnemonic string
	Size     Size
	Operands []Operand
	SpanInfo diag.Span
}

func (i *Instruction) Span() diag.Span { return i.SpanInfo }

// DirectiveKind tags the directive variants of spec.md §3.
type DirectiveKind int

const (
	DirectiveOrg DirectiveKind = iota
	DirectiveEqu
	DirectiveDC
	DirectiveDS
	DirectiveInclude
)

// DCItem is one comma-separated item of a DC directive: either a string
// literal (one byte per character) or an expression.
type DCItem struct {
	IsString bool
	Str      string
	Expr     Expression
	SpanInfo diag.Span
}

func (d DCItem) Span() diag.Span { return d.SpanInfo }

// Directive is one assembler directive: Org(expr), Equ(expr),
// DefineConstant(size, items), DefineStorage(size, count), or Include(path).
type Directive struct {
	Kind     DirectiveKind
	Expr     Expression // Org, Equ, DS count
	Size     Size       // DC, DS
	Items    []DCItem   // DC
	Path     string     // Include
	PathSpan diag.Span  // Include
	SpanInfo diag.Span
}

func (d *Directive) Span() diag.Span { return d.SpanInfo }

// StatementKind tags whether a Statement carries an Instruction or a
// Directive.
type StatementKind int

const (
	StatementInstruction StatementKind = iota
	StatementDirective
)

// Statement is one top-level line of the program: an optional label
// followed by an instruction or a directive (spec.md §3).
type Statement struct {
	HasLabel  bool
	Label     string
	LabelSpan diag.Span

	Kind        StatementKind
	Instruction *Instruction
	Directive   *Directive

	// SpanInfo covers every source line the statement occupies; the
	// listing builder (§4.G) attributes PC/bytes to the line it starts on.
	SpanInfo diag.Span
}

func (s *Statement) Span() diag.Span { return s.SpanInfo }

// Program is a sequence of statements, normally all belonging to one file
// before Include expansion is resolved by the pass driver.
type Program struct {
	Statements []*Statement
}
