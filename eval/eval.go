// Package eval evaluates ast.Expression trees to a signed 32-bit value,
// per spec.md §4.C: two's-complement wraparound arithmetic, a capability
// interface for symbol lookup so the same evaluator serves both assembler
// passes, and error-set concatenation when both operands of a binary
// operator fail. Grounded on original_source's map_op_bin helper and on
// beevik-go6502's asm/expr.go operator-precedence shape (pack repo, not the
// teacher, cited because the teacher has no expression evaluator of its
// own at this layer).
package eval

import (
	"errors"
	"fmt"

	"github.com/nwidger/m68kasm/ast"
)

// Lookup resolves a symbol name to its signed value. symtab.FailingLookup
// and symtab.PermissiveLookup both satisfy this structurally.
type Lookup interface {
	Lookup(name string) (int32, error)
}

// Eval walks expr and returns its value under lookup. When both operands of
// a Binary fail, the returned error joins both failures (errors.Join) so a
// caller reporting diagnostics doesn't silently drop the second one.
func Eval(expr ast.Expression, lookup Lookup) (int32, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil

	case *ast.SymbolRef:
		v, err := lookup.Lookup(e.Name)
		if err != nil {
			return 0, err
		}
		return v, nil

	case *ast.Unary:
		x, err := Eval(e.X, lookup)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ast.UnaryNeg:
			return -x, nil
		case ast.UnaryNot:
			return ^x, nil
		default:
			return 0, fmt.Errorf("unknown unary operator %v", e.Op)
		}

	case *ast.Binary:
		x, xerr := Eval(e.X, lookup)
		y, yerr := Eval(e.Y, lookup)
		if xerr != nil || yerr != nil {
			return 0, errors.Join(xerr, yerr)
		}
		return evalBinary(e.Op, x, y)

	default:
		return 0, fmt.Errorf("unsupported expression type %T", expr)
	}
}

func evalBinary(op ast.BinaryOp, x, y int32) (int32, error) {
	switch op {
	case ast.BinaryAdd:
		return x + y, nil
	case ast.BinarySub:
		return x - y, nil
	case ast.BinaryMul:
		return x * y, nil
	case ast.BinaryDiv:
		if y == 0 {
			return 0, errDivisionByZero
		}
		return x / y, nil
	case ast.BinaryMod:
		if y == 0 {
			return 0, errDivisionByZero
		}
		return x % y, nil
	case ast.BinaryAnd:
		return x & y, nil
	case ast.BinaryOr:
		return x | y, nil
	case ast.BinaryShl:
		n, err := shiftCount(y)
		if err != nil {
			return 0, err
		}
		return x << n, nil
	case ast.BinaryShr:
		n, err := shiftCount(y)
		if err != nil {
			return 0, err
		}
		return x >> n, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %v", op)
	}
}

func shiftCount(y int32) (uint32, error) {
	if y < 0 {
		return 0, fmt.Errorf("negative shift amount %d", y)
	}
	return uint32(y), nil
}

var errDivisionByZero = errors.New("division by zero")

// IsDivisionByZero reports whether err (or one of the errors it joins)
// originated from a division or modulo by zero, so the caller can attach
// diag.KindDivisionByZero instead of the generic encoding kind.
func IsDivisionByZero(err error) bool {
	return errors.Is(err, errDivisionByZero)
}
