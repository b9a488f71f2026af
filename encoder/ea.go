package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/eval"
)

// effectiveAddress is the (mode, register, extension) triple of spec.md
// §4.E for one operand.
type effectiveAddress struct {
	mode uint16
	reg  uint16
	ext  []byte
}

func beU16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func beU32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// encodeEA computes the effective-address fields for op. size matters only
// for OperandImmediate, whose extension width depends on it.
func encodeEA(op ast.Operand, lk eval.Lookup, size ast.Size) (effectiveAddress, error) {
	switch op.Kind {
	case ast.OperandDn:
		return effectiveAddress{mode: 0b000, reg: uint16(op.Reg)}, nil
	case ast.OperandAn:
		return effectiveAddress{mode: 0b001, reg: uint16(op.Reg)}, nil
	case ast.OperandIndirect:
		return effectiveAddress{mode: 0b010, reg: uint16(op.Reg)}, nil
	case ast.OperandIndirectPostInc:
		return effectiveAddress{mode: 0b011, reg: uint16(op.Reg)}, nil
	case ast.OperandIndirectPreDec:
		return effectiveAddress{mode: 0b100, reg: uint16(op.Reg)}, nil
	case ast.OperandIndirectDisp:
		d, err := eval.Eval(op.Disp, lk)
		if err != nil {
			return effectiveAddress{}, err
		}
		return effectiveAddress{mode: 0b101, reg: uint16(op.Reg & 7), ext: beU16(uint16(int16(d)))}, nil
	case ast.OperandAbsoluteShort:
		v, err := eval.Eval(op.Expr, lk)
		if err != nil {
			return effectiveAddress{}, err
		}
		return effectiveAddress{mode: 0b111, reg: 0b000, ext: beU16(uint16(v))}, nil
	case ast.OperandAbsoluteLong:
		v, err := eval.Eval(op.Expr, lk)
		if err != nil {
			return effectiveAddress{}, err
		}
		return effectiveAddress{mode: 0b111, reg: 0b001, ext: beU32(uint32(v))}, nil
	case ast.OperandImmediate:
		v, err := eval.Eval(op.Expr, lk)
		if err != nil {
			return effectiveAddress{}, err
		}
		var ext []byte
		switch size.Resolved() {
		case ast.SizeB:
			ext = []byte{0x00, byte(v)}
		case ast.SizeW:
			ext = beU16(uint16(v))
		case ast.SizeL:
			ext = beU32(uint32(v))
		}
		return effectiveAddress{mode: 0b111, reg: 0b100, ext: ext}, nil
	default:
		return effectiveAddress{}, fmt.Errorf("unsupported operand kind %v", op.Kind)
	}
}

// isNamedSymbol reports whether op is a bare symbol reference spelled name
// (case-insensitive), the shape the parser produces for the pseudo-operands
// SR and USP.
func isNamedSymbol(op ast.Operand, name string) bool {
	var expr ast.Expression
	switch op.Kind {
	case ast.OperandAbsoluteShort, ast.OperandAbsoluteLong:
		expr = op.Expr
	default:
		return false
	}
	ref, ok := expr.(*ast.SymbolRef)
	if !ok {
		return false
	}
	return equalFold(ref.Name, name)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
