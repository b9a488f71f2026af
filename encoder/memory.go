package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/eval"
)

// isControlAddressing reports whether kind is one of the effective-address
// modes that compute an address rather than naming a register or an
// immediate; LEA and PEA are restricted to these (spec.md §4.E).
func isControlAddressing(kind ast.OperandKind) bool {
	switch kind {
	case ast.OperandIndirect, ast.OperandIndirectDisp, ast.OperandAbsoluteShort, ast.OperandAbsoluteLong:
		return true
	default:
		return false
	}
}

func encodeLEA(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	src, dst := inst.Operands[0], inst.Operands[1]
	if !isControlAddressing(src.Kind) {
		return nil, fmt.Errorf("LEA source must be Indirect, IndirectDisp, AbsoluteShort, or AbsoluteLong")
	}
	if dst.Kind != ast.OperandAn {
		return nil, fmt.Errorf("LEA destination must be an address register")
	}
	ea, err := encodeEA(src, lk.General, ast.SizeL)
	if err != nil {
		return nil, err
	}
	opcode := opcodeLEABase | (uint16(dst.Reg) << 9) | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, ea.ext...)
	return out, nil
}

func encodeLINK(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	an, imm := inst.Operands[0], inst.Operands[1]
	if an.Kind != ast.OperandAn {
		return nil, fmt.Errorf("LINK first operand must be an address register")
	}
	if imm.Kind != ast.OperandImmediate {
		return nil, fmt.Errorf("LINK second operand must be an immediate")
	}
	v, err := eval.Eval(imm.Expr, lk.General)
	if err != nil {
		return nil, err
	}
	opcode := opcodeLINKBase | uint16(an.Reg)
	return append(beU16(opcode), beU16(uint16(v))...), nil
}

func encodeUNLK(inst *ast.Instruction) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	an := inst.Operands[0]
	if an.Kind != ast.OperandAn {
		return nil, fmt.Errorf("UNLK operand must be an address register")
	}
	return beU16(opcodeUNLKBase | uint16(an.Reg)), nil
}

func encodePEA(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	ea := inst.Operands[0]
	if !isControlAddressing(ea.Kind) {
		return nil, fmt.Errorf("PEA operand must be Indirect, IndirectDisp, AbsoluteShort, or AbsoluteLong")
	}
	res, err := encodeEA(ea, lk.General, ast.SizeL)
	if err != nil {
		return nil, err
	}
	opcode := opcodePEABase | (res.mode << 3) | res.reg
	out := beU16(opcode)
	out = append(out, res.ext...)
	return out, nil
}
