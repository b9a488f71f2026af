package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/ast"
)

func encodeMOVE(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	if out, handled, err := encodeMOVESpecial(inst, lk); handled {
		return out, err
	}
	s, err := sizeField(inst.Size, moveSizeB, moveSizeW, moveSizeL)
	if err != nil {
		return nil, err
	}
	src, err := encodeEA(inst.Operands[0], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	dst, err := encodeEA(inst.Operands[1], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := (s << 12) | (dst.reg << 9) | (dst.mode << 6) | (src.mode << 3) | src.reg
	out := beU16(opcode)
	out = append(out, src.ext...)
	out = append(out, dst.ext...)
	return out, nil
}

func encodeMOVEA(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	if inst.Size.Resolved() == ast.SizeB {
		return nil, fmt.Errorf("MOVEA does not support size B")
	}
	dst := inst.Operands[1]
	if dst.Kind != ast.OperandAn {
		return nil, fmt.Errorf("MOVEA destination must be an address register")
	}
	s, err := sizeField(inst.Size, moveSizeB, moveSizeW, moveSizeL)
	if err != nil {
		return nil, err
	}
	src, err := encodeEA(inst.Operands[0], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := (s << 12) | (uint16(dst.Reg) << 9) | (0b001 << 6) | (src.mode << 3) | src.reg
	out := beU16(opcode)
	out = append(out, src.ext...)
	return out, nil
}

func encodeCLR(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 1); err != nil {
		return nil, err
	}
	s2, err := sizeField(inst.Size, altSizeB, altSizeW, altSizeL)
	if err != nil {
		return nil, err
	}
	ea, err := encodeEA(inst.Operands[0], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := opcodeCLRBase | (s2 << 6) | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, ea.ext...)
	return out, nil
}

func encodeCMP(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	dst := inst.Operands[1]
	if dst.Kind != ast.OperandDn {
		return nil, fmt.Errorf("CMP destination must be a data register")
	}
	opmode, err := sizeField(inst.Size, cmpOpmodeB, cmpOpmodeW, cmpOpmodeL)
	if err != nil {
		return nil, err
	}
	ea, err := encodeEA(inst.Operands[0], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := opcodeCMPBase | (uint16(dst.Reg) << 9) | (opmode << 6) | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, ea.ext...)
	return out, nil
}

func encodeCMPI(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	imm := inst.Operands[0]
	if imm.Kind != ast.OperandImmediate {
		return nil, fmt.Errorf("CMPI first operand must be an immediate")
	}
	s2, err := sizeField(inst.Size, altSizeB, altSizeW, altSizeL)
	if err != nil {
		return nil, err
	}
	ea, err := encodeEA(inst.Operands[1], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	immEA, err := encodeEA(imm, lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := opcodeCMPIBase | (s2 << 6) | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, immEA.ext...)
	out = append(out, ea.ext...)
	return out, nil
}
