package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/ast"
)

func encodeADA(inst *ast.Instruction, lk Lookups, base uint16) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	dst := inst.Operands[1]
	if dst.Kind != ast.OperandAn {
		return nil, fmt.Errorf("%s destination must be an address register", inst.Mnemonic)
	}
	var opmode uint16
	switch inst.Size.Resolved() {
	case ast.SizeW:
		opmode = adaOpmodeW
	case ast.SizeL:
		opmode = adaOpmodeL
	default:
		return nil, fmt.Errorf("%s does not support size B", inst.Mnemonic)
	}
	ea, err := encodeEA(inst.Operands[0], lk.General, inst.Size)
	if err != nil {
		return nil, err
	}
	opcode := base | (uint16(dst.Reg) << 9) | (opmode << 6) | (ea.mode << 3) | ea.reg
	out := beU16(opcode)
	out = append(out, ea.ext...)
	return out, nil
}

func encodeANDI(inst *ast.Instruction, lk Lookups) ([]byte, error) {
	if err := requireOperands(inst, 2); err != nil {
		return nil, err
	}
	if !isNamedSymbol(inst.Operands[1], "SR") {
		return nil, fmt.Errorf("ANDI is only supported in the #imm,SR form")
	}
	vec, err := immediateValue(inst.Operands[0], lk)
	if err != nil {
		return nil, err
	}
	return append(beU16(opcodeANDISR), beU16(uint16(vec))...), nil
}

// encodeMOVESpecial handles the three MOVE forms that address SR/USP
// rather than an ordinary effective address: MOVE ea,SR; MOVE An,USP;
// MOVE USP,An. It is tried before encodeMOVE's general path.
func encodeMOVESpecial(inst *ast.Instruction, lk Lookups) ([]byte, bool, error) {
	if len(inst.Operands) != 2 {
		return nil, false, nil
	}
	src, dst := inst.Operands[0], inst.Operands[1]

	if isNamedSymbol(dst, "SR") {
		ea, err := encodeEA(src, lk.General, ast.SizeW)
		if err != nil {
			return nil, true, err
		}
		opcode := opcodeMOVEtoSR | (ea.mode << 3) | ea.reg
		out := beU16(opcode)
		out = append(out, ea.ext...)
		return out, true, nil
	}
	if src.Kind == ast.OperandAn && isNamedSymbol(dst, "USP") {
		return beU16(opcodeMOVEAnUSP | uint16(src.Reg)), true, nil
	}
	if isNamedSymbol(src, "USP") && dst.Kind == ast.OperandAn {
		return beU16(opcodeMOVEUSPAn | uint16(dst.Reg)), true, nil
	}
	return nil, false, nil
}
