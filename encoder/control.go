package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/eval"
)

// branchDisplacement evaluates label under lk and returns its signed
// 16-bit displacement from pc+2, the PC value at the start of the
// instruction's extension word (spec.md §4.E).
func branchDisplacement(label ast.Expression, pc uint32, lk Lookups) (int16, error) {
	target, err := eval.Eval(label, lk.General)
	if err != nil {
		return 0, err
	}
	disp := target - int32(pc+2)
	if disp < -0x8000 || disp > 0x7FFF {
		return 0, fmt.Errorf("branch displacement %d out of 16-bit range", disp)
	}
	return int16(disp), nil
}

func branchTargetExpr(inst *ast.Instruction) (ast.Expression, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	op := inst.Operands[0]
	switch op.Kind {
	case ast.OperandAbsoluteShort, ast.OperandAbsoluteLong:
		return op.Expr, nil
	default:
		return nil, fmt.Errorf("%s operand must be a label", inst.Mnemonic)
	}
}

func encodeBcc(inst *ast.Instruction, pc uint32, lk Lookups, cccc uint16) ([]byte, error) {
	target, err := branchTargetExpr(inst)
	if err != nil {
		return nil, err
	}
	disp, err := branchDisplacement(target, pc, lk)
	if err != nil {
		return nil, err
	}
	opcode := opcodeBccBase | (cccc << 8)
	return append(beU16(opcode), beU16(uint16(disp))...), nil
}

func encodeBSR(inst *ast.Instruction, pc uint32, lk Lookups) ([]byte, error) {
	target, err := branchTargetExpr(inst)
	if err != nil {
		return nil, err
	}
	disp, err := branchDisplacement(target, pc, lk)
	if err != nil {
		return nil, err
	}
	return append(beU16(opcodeBSR), beU16(uint16(disp))...), nil
}

func encodeJMP(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	ea, err := encodeEA(inst.Operands[0], lk.General, ast.SizeL)
	if err != nil {
		return nil, err
	}
	opcode := opcodeJMPBase | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, ea.ext...)
	return out, nil
}

func encodeBKPT(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	vec, err := immediateValue(inst.Operands[0], lk)
	if err != nil {
		return nil, err
	}
	return beU16(opcodeBKPTBase | (uint16(vec) & 0b111)), nil
}

func encodeTRAP(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	vec, err := immediateValue(inst.Operands[0], lk)
	if err != nil {
		return nil, err
	}
	return beU16(opcodeTRAPBase | (uint16(vec) & 0xF)), nil
}

func immediateValue(op ast.Operand, lk Lookups) (int32, error) {
	if op.Kind != ast.OperandImmediate {
		return 0, fmt.Errorf("expected an immediate operand")
	}
	return eval.Eval(op.Expr, lk.General)
}
