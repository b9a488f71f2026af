package eval

import (
	"errors"
	"testing"

	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/diag"
)

type mapLookup map[string]int32

func (m mapLookup) Lookup(name string) (int32, error) {
	v, ok := m[name]
	if !ok {
		return 0, errors.New("undefined symbol " + name)
	}
	return v, nil
}

func lit(v int32) ast.Expression { return &ast.Literal{Value: v} }

func bin(op ast.BinaryOp, x, y ast.Expression) ast.Expression {
	return &ast.Binary{Op: op, X: x, Y: y}
}

func TestEvalLiteral(t *testing.T) {
	v, err := Eval(lit(42), mapLookup{})
	if err != nil || v != 42 {
		t.Fatalf("Eval = (%d, %v), want (42, nil)", v, err)
	}
}

func TestEvalSymbolRef(t *testing.T) {
	v, err := Eval(&ast.SymbolRef{Name: "n"}, mapLookup{"n": 7})
	if err != nil || v != 7 {
		t.Fatalf("Eval = (%d, %v), want (7, nil)", v, err)
	}
}

func TestEvalUndefinedSymbol(t *testing.T) {
	_, err := Eval(&ast.SymbolRef{Name: "missing"}, mapLookup{})
	if err == nil {
		t.Fatal("Eval: want error for undefined symbol, got nil")
	}
}

func TestEvalUnary(t *testing.T) {
	v, err := Eval(&ast.Unary{Op: ast.UnaryNeg, X: lit(5)}, mapLookup{})
	if err != nil || v != -5 {
		t.Fatalf("Neg Eval = (%d, %v), want (-5, nil)", v, err)
	}
	v, err = Eval(&ast.Unary{Op: ast.UnaryNot, X: lit(0)}, mapLookup{})
	if err != nil || v != -1 {
		t.Fatalf("Not Eval = (%d, %v), want (-1, nil)", v, err)
	}
}

func TestEvalBinaryArithmetic(t *testing.T) {
	cases := []struct {
		op   ast.BinaryOp
		x, y int32
		want int32
	}{
		{ast.BinaryAdd, 2, 3, 5},
		{ast.BinarySub, 2, 3, -1},
		{ast.BinaryMul, 4, 5, 20},
		{ast.BinaryDiv, 7, 2, 3},
		{ast.BinaryMod, 7, 2, 1},
		{ast.BinaryAnd, 0xF0, 0x1F, 0x10},
		{ast.BinaryOr, 0xF0, 0x0F, 0xFF},
		{ast.BinaryShl, 1, 4, 16},
		{ast.BinaryShr, 16, 4, 1},
	}
	for _, c := range cases {
		v, err := Eval(bin(c.op, lit(c.x), lit(c.y)), mapLookup{})
		if err != nil || v != c.want {
			t.Errorf("op %v: Eval = (%d, %v), want (%d, nil)", c.op, v, err, c.want)
		}
	}
}

func TestEvalSignedWraparound(t *testing.T) {
	v, err := Eval(bin(ast.BinaryAdd, lit(0x7FFFFFFF), lit(1)), mapLookup{})
	if err != nil || v != -0x80000000 {
		t.Fatalf("Eval = (%d, %v), want (%d, nil)", v, err, int32(-0x80000000))
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := Eval(bin(ast.BinaryDiv, lit(1), lit(0)), mapLookup{})
	if err == nil || !IsDivisionByZero(err) {
		t.Fatalf("Eval error = %v, want a division-by-zero error", err)
	}
}

func TestEvalModByZero(t *testing.T) {
	_, err := Eval(bin(ast.BinaryMod, lit(1), lit(0)), mapLookup{})
	if err == nil || !IsDivisionByZero(err) {
		t.Fatalf("Eval error = %v, want a division-by-zero error", err)
	}
}

func TestEvalBinaryBothSidesFailJoinsErrors(t *testing.T) {
	expr := bin(ast.BinaryAdd,
		&ast.SymbolRef{Name: "a"},
		&ast.SymbolRef{Name: "b"},
	)
	_, err := Eval(expr, mapLookup{})
	if err == nil {
		t.Fatal("want a joined error, got nil")
	}
	if !contains(err.Error(), "a") || !contains(err.Error(), "b") {
		t.Fatalf("joined error %q does not mention both failing symbols", err.Error())
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

func TestEvalNegativeShiftIsError(t *testing.T) {
	_, err := Eval(bin(ast.BinaryShl, lit(1), lit(-1)), mapLookup{})
	if err == nil {
		t.Fatal("want error for negative shift amount, got nil")
	}
}

func TestEvalUsesSpanFreeLiterals(t *testing.T) {
	// Eval should not dereference Span() on a nil-file literal.
	e := &ast.Literal{Value: 1, SpanInfo: diag.Span{}}
	v, err := Eval(e, mapLookup{})
	if err != nil || v != 1 {
		t.Fatalf("Eval = (%d, %v), want (1, nil)", v, err)
	}
}
