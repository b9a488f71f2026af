package encoder

import (
	"fmt"
	"strings"

	"github.com/nwidger/m68kasm/ast"
)

// dispatchInstruction routes inst to its encode function by mnemonic. pc is
// the already-realigned program counter, needed by Bcc/BSR displacement
// arithmetic.
func dispatchInstruction(inst *ast.Instruction, pc uint32, lk Lookups, dryRun bool) ([]byte, error) {
	switch strings.ToUpper(inst.Mnemonic) {
	case "MOVE":
		return encodeMOVE(inst, lk)
	case "MOVEA":
		return encodeMOVEA(inst, lk)
	case "LEA":
		return encodeLEA(inst, lk)
	case "LINK":
		return encodeLINK(inst, lk)
	case "UNLK":
		return encodeUNLK(inst)
	case "PEA":
		return encodePEA(inst, lk)
	case "CLR":
		return encodeCLR(inst, lk)
	case "CMP":
		return encodeCMP(inst, lk)
	case "CMPI":
		return encodeCMPI(inst, lk)
	case "ADDA":
		return encodeADA(inst, lk, opcodeADDABase)
	case "SUBA":
		return encodeADA(inst, lk, opcodeSUBABase)
	case "BSR":
		return encodeBSR(inst, pc, lk)
	case "JMP":
		return encodeJMP(inst, lk)
	case "NOP":
		return encodeNoOperand(inst, opcodeNOP)
	case "RTS":
		return encodeNoOperand(inst, opcodeRTS)
	case "RTE":
		return encodeNoOperand(inst, opcodeRTE)
	case "ANDI":
		return encodeANDI(inst, lk)
	case "BKPT":
		return encodeBKPT(inst, lk)
	case "TRAP":
		return encodeTRAP(inst, lk)
	default:
		if cc, ok := branchCondition(inst.Mnemonic); ok {
			return encodeBcc(inst, pc, lk, cc)
		}
		return nil, fmt.Errorf("unsupported mnemonic %q", inst.Mnemonic)
	}
}

// branchCondition reports whether mnemonic is "B"+condition (e.g. "BEQ")
// and, if so, the condition's cccc field.
func branchCondition(mnemonic string) (uint16, bool) {
	if len(mnemonic) < 3 || !strings.EqualFold(mnemonic[:1], "B") {
		return 0, false
	}
	cc, ok := conditionCodes[strings.ToUpper(mnemonic[1:])]
	return cc, ok
}

func requireOperands(inst *ast.Instruction, n int) error {
	if len(inst.Operands) != n {
		return fmt.Errorf("%s requires %d operand(s), got %d", inst.Mnemonic, n, len(inst.Operands))
	}
	return nil
}

func encodeNoOperand(inst *ast.Instruction, opcode uint16) ([]byte, error) {
	if err := requireOperands(inst, 0); err != nil {
		return nil, err
	}
	return beU16(opcode), nil
}

func sizeField(size ast.Size, b, w, l uint16) (uint16, error) {
	switch size.Resolved() {
	case ast.SizeB:
		return b, nil
	case ast.SizeW:
		return w, nil
	case ast.SizeL:
		return l, nil
	default:
		return 0, fmt.Errorf("unsupported size %v", size)
	}
}
