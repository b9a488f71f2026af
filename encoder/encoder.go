// Package encoder implements the M68k instruction and directive encoder of
// spec.md §4.E: effective-address resolution, per-mnemonic opcode
// formation, and directive byte generation. Grounded on the teacher's
// encoder/encoder.go mnemonic-dispatch switch and per-class file split
// (branch.go/memory.go/data_processing.go/other.go), with exact bit
// layouts taken from original_source/src/codegen.rs.
package encoder

import (
	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/diag"
	"github.com/nwidger/m68kasm/eval"
)

// Lookups bundles the two symbol-lookup capabilities an encode call needs:
// General resolves every expression except an ORG target, Org resolves
// ORG's expression. In pass 1, General is permissive and Org is failing
// (spec.md §4.F: "only pass-1-known symbols are consulted for ORG"); in
// pass 2 both are failing.
type Lookups struct {
	General eval.Lookup
	Org     eval.Lookup
}

// Result is what Encode produces for one statement.
type Result struct {
	// StartAddr overrides pc when non-nil: ORG sets it to its expression's
	// value; instructions and DC/DS set it only when realignment moved pc.
	StartAddr *uint32
	// LabelValue is set for EQU: the driver binds the statement's label to
	// this value instead of to pc.
	LabelValue *int32
	Bytes      []byte
	// Warnings carries non-fatal diagnostics raised while encoding, such
	// as the DC truncation warning of spec.md §4.E/§7.
	Warnings []diag.Diagnostic
}

// Encode produces the bytes for one statement at pc. dryRun has no effect
// on byte count in this implementation, since branch instructions always
// use their word (16-bit displacement) form (spec.md §9 Open Question:
// byte-form branch selection is not implemented).
func Encode(stmt *ast.Statement, pc uint32, lk Lookups, dryRun bool) (Result, error) {
	switch stmt.Kind {
	case ast.StatementDirective:
		return encodeDirective(stmt.Directive, pc, lk)
	case ast.StatementInstruction:
		return encodeInstruction(stmt.Instruction, pc, lk, dryRun)
	default:
		return Result{}, nil
	}
}

func align(pc uint32, size ast.Size) (uint32, bool) {
	width := uint32(size.Resolved())
	if width <= 1 {
		return pc, false
	}
	if pc%width != 0 {
		return pc + (width - pc%width), true
	}
	return pc, false
}

func encodeDirective(dir *ast.Directive, pc uint32, lk Lookups) (Result, error) {
	switch dir.Kind {
	case ast.DirectiveOrg:
		v, err := eval.Eval(dir.Expr, lk.Org)
		if err != nil {
			return Result{}, WrapEncodingError(dir.Span(), err)
		}
		addr := uint32(v)
		return Result{StartAddr: &addr}, nil

	case ast.DirectiveEqu:
		v, err := eval.Eval(dir.Expr, lk.General)
		if err != nil {
			return Result{}, WrapEncodingError(dir.Span(), err)
		}
		return Result{LabelValue: &v}, nil

	case ast.DirectiveDC:
		return encodeDC(dir, pc, lk)

	case ast.DirectiveDS:
		return encodeDS(dir, pc, lk)

	case ast.DirectiveInclude:
		// The assembler driver handles Include by recursion before ever
		// calling Encode; reaching here means a caller encoded it anyway.
		return Result{}, nil

	default:
		return Result{}, nil
	}
}

func encodeDC(dir *ast.Directive, pc uint32, lk Lookups) (Result, error) {
	size := dir.Size.Resolved()
	newPC, realigned := align(pc, size)
	var out []byte
	var warnings []diag.Diagnostic
	for _, item := range dir.Items {
		if item.IsString {
			out = append(out, []byte(item.Str)...)
			continue
		}
		v, err := eval.Eval(item.Expr, lk.General)
		if err != nil {
			return Result{}, WrapEncodingError(item.Span(), err)
		}
		if Overflows(v, size) {
			warnings = append(warnings, diag.NewWarning(diag.KindTruncation, item.Span(),
				"value does not fit in the declared size and was truncated"))
		}
		out = append(out, truncateTo(v, size)...)
	}
	result := Result{Bytes: out, Warnings: warnings}
	if realigned {
		result.StartAddr = &newPC
	}
	return result, nil
}

func encodeDS(dir *ast.Directive, pc uint32, lk Lookups) (Result, error) {
	size := dir.Size.Resolved()
	newPC, realigned := align(pc, size)
	count, err := eval.Eval(dir.Expr, lk.General)
	if err != nil {
		return Result{}, WrapEncodingError(dir.Span(), err)
	}
	out := make([]byte, int(count)*int(size))
	res := Result{Bytes: out}
	if realigned {
		res.StartAddr = &newPC
	}
	return res, nil
}

// truncateTo encodes v at size bytes, big-endian, truncating silently;
// encodeDC compares v against size's range with Overflows and raises the
// truncation warning before calling this.
func truncateTo(v int32, size ast.Size) []byte {
	switch size {
	case ast.SizeB:
		return []byte{byte(v)}
	case ast.SizeW:
		return beU16(uint16(v))
	default:
		return beU32(uint32(v))
	}
}

// Overflows reports whether v does not fit in size bytes (spec.md §4.E:
// "Expression values exceeding the size are truncated with a warning").
func Overflows(v int32, size ast.Size) bool {
	switch size.Resolved() {
	case ast.SizeB:
		return v < -0x80 || v > 0xFF
	case ast.SizeW:
		return v < -0x8000 || v > 0xFFFF
	default:
		return false
	}
}

func encodeInstruction(inst *ast.Instruction, pc uint32, lk Lookups, dryRun bool) (Result, error) {
	newPC, realigned := align(pc, ast.SizeW)

	bytes, err := dispatchInstruction(inst, newPC, lk, dryRun)
	if err != nil {
		return Result{}, WrapEncodingError(inst.Span(), err)
	}

	res := Result{Bytes: bytes}
	if realigned {
		res.StartAddr = &newPC
	}
	return res, nil
}
