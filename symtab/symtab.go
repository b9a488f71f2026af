// Package symtab is the single-assignment symbol table of spec.md §4.D,
// grounded on the teacher's parser/symbols.go map-backed table and on
// original_source's SymbolMap trait split between a failing and a
// permissive lookup capability.
package symtab

import (
	"errors"
	"fmt"
)

// Table maps symbol names to their assigned 32-bit value. Every name may be
// defined at most once; a second Define is an error the caller turns into a
// diag.Diagnostic (spec.md §4.D: "redefinition is always an error, even on
// pass 1").
type Table struct {
	values map[string]uint32
	defined map[string]bool
}

// New creates an empty Table.
func New() *Table {
	return &Table{values: make(map[string]uint32), defined: make(map[string]bool)}
}

// Define assigns name to value. It returns an error if name was already
// defined, and leaves the existing value untouched.
func (t *Table) Define(name string, value uint32) error {
	if t.defined[name] {
		return fmt.Errorf("symbol %q already defined", name)
	}
	t.values[name] = value
	t.defined[name] = true
	return nil
}

// Lookup returns the value assigned to name, if any.
func (t *Table) Lookup(name string) (uint32, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Defined reports whether name has been assigned a value.
func (t *Table) Defined(name string) bool {
	return t.defined[name]
}

// Names returns every defined symbol name, in no particular order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.defined))
	for name := range t.defined {
		names = append(names, name)
	}
	return names
}

// FailingLookup resolves a symbol reference strictly: an undefined symbol
// is an error. Used by pass 2 (spec.md §4.F) and by ORG on every pass,
// since a forward-referenced origin would make sizing ambiguous.
type FailingLookup struct {
	Table *Table
}

func (l FailingLookup) Lookup(name string) (int32, error) {
	v, ok := l.Table.Lookup(name)
	if !ok {
		return 0, &undefinedSymbolError{name: name}
	}
	return int32(v), nil
}

type undefinedSymbolError struct {
	name string
}

func (e *undefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol %q", e.name)
}

// IsUndefinedSymbol reports whether err (or one it joins/wraps) originated
// from a FailingLookup miss, so the driver can attach diag.KindUndefinedSymbol
// instead of a generic diagnostic.
func IsUndefinedSymbol(err error) bool {
	var e *undefinedSymbolError
	return errors.As(err, &e)
}

// PermissiveLookup resolves a symbol reference for pass 1 sizing purposes:
// an undefined symbol evaluates to 0 rather than failing, since pass 1's
// only job is to measure instruction length, not to compute final values
// (spec.md §4.F).
type PermissiveLookup struct {
	Table *Table
}

func (l PermissiveLookup) Lookup(name string) (int32, error) {
	v, ok := l.Table.Lookup(name)
	if !ok {
		return 0, nil
	}
	return int32(v), nil
}
