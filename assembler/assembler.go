// Package assembler implements the two-pass driver of spec.md §4.F: pass 1
// sizes every statement and assigns labels with a permissive symbol lookup,
// pass 2 re-walks the identical statement order with a failing lookup and
// emits bytes. Grounded on the teacher's parser.Parse/firstPass two-call
// shape (parser/parser.go) and on original_source/src/main.rs's two-loop
// structure, adapted to a typed AST and an external encoder package.
package assembler

import (
	"errors"
	"path/filepath"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/diag"
	"github.com/nwidger/m68kasm/parser"
	"github.com/nwidger/m68kasm/symtab"
)

// errAssemblyFailed is returned by Run when diagnostics were collected but
// the driver otherwise ran to completion; callers should render d.Diags
// rather than this error's text.
var errAssemblyFailed = errors.New("assembly failed")

// errFatal marks the five categories spec.md §4.I calls out as fatal:
// duplicate label, I/O failure, parse failure, division by zero, literal
// overflow. It aborts the pass walk immediately; the triggering diagnostic
// has already been added to Driver.Diags before it is returned.
var errFatal = errors.New("fatal assembly error")

// Fragment is one contiguous run of bytes placed at Addr, as pass 2
// produces it for one statement.
type Fragment struct {
	Addr  uint32
	Bytes []byte
}

// CodeObject accumulates every fragment pass 2 emits, in emission order.
type CodeObject struct {
	Fragments []Fragment
}

func (c *CodeObject) push(addr uint32, bytes []byte) int {
	idx := len(c.Fragments)
	c.Fragments = append(c.Fragments, Fragment{Addr: addr, Bytes: bytes})
	return idx
}

// LineRefKind tags a ListingIndex entry (spec.md §4.G).
type LineRefKind int

const (
	// LineRefCode marks the last source line of a statement: the listing
	// prints this fragment's bytes on this row.
	LineRefCode LineRefKind = iota
	// LineRefNoCode marks an earlier line of a multi-line statement: the
	// PC is printed but no bytes (the fragment they belong to is printed
	// on a later line).
	LineRefNoCode
)

// LineKey identifies one source line for the listing index.
type LineKey struct {
	File string
	Line int
}

// LineRef is the listing index's value: which fragment a line belongs to
// and whether this line is the one that prints its bytes.
type LineRef struct {
	Kind     LineRefKind
	Fragment int
}

// Assembly is everything Run produced, whether or not it succeeded; a
// caller should check Diagnostics for Error severity before trusting Code
// or writing output.
type Assembly struct {
	Code        *CodeObject
	Symbols     *symtab.Table
	Listing     map[LineKey]LineRef
	Diagnostics []diag.Diagnostic
}

// Driver runs the two passes over a root file and its transitive includes.
// The symbol table is shared across every file in the run, matching
// spec.md §4.F's "single table spanning all files".
type Driver struct {
	arena   *arena.Arena
	symbols *symtab.Table
	diags   diag.List
	code    CodeObject
	listing map[LineKey]LineRef

	// programs caches each resolved include path's parsed AST so pass 2
	// walks the exact same statement objects pass 1 walked, per spec.md
	// §5's "pass 2 must visit statements in the same order as pass 1".
	programs map[string]*ast.Program

	// includeEnds is pass 1's include_end_addr queue; includeCursor is
	// pass 2's read position into it.
	includeEnds   []uint32
	includeCursor int
}

// New creates a Driver backed by a.
func New(a *arena.Arena) *Driver {
	return &Driver{
		arena:    a,
		symbols:  symtab.New(),
		listing:  make(map[LineKey]LineRef),
		programs: make(map[string]*ast.Program),
	}
}

// Run assembles rootPath and every file it (transitively) includes,
// starting pc at 0. It always returns an *Assembly; callers distinguish
// success from failure by inspecting Diagnostics, not by the error alone
// (mirroring spec.md §4.I: "the driver surfaces all diagnostics at the
// end").
func (d *Driver) Run(rootPath string) (*Assembly, error) {
	file, err := d.arena.Register(rootPath)
	if err != nil {
		d.diags.Add(diag.New(diag.KindIO, diag.Span{}, err.Error()))
		return d.result(), err
	}

	prog, pdiags := parser.Parse(file)
	d.diags.AddAll(pdiags)
	d.programs[rootPath] = prog
	if d.diags.HasErrors() {
		return d.result(), errAssemblyFailed
	}

	dir := filepath.Dir(rootPath)

	if _, err := d.pass1(prog, dir, 0); err != nil {
		return d.result(), err
	}
	if d.diags.HasErrors() {
		return d.result(), errAssemblyFailed
	}

	d.includeCursor = 0
	if _, err := d.pass2(prog, dir, 0); err != nil {
		return d.result(), err
	}
	if d.diags.HasErrors() {
		return d.result(), errAssemblyFailed
	}

	return d.result(), nil
}

func (d *Driver) result() *Assembly {
	return &Assembly{
		Code:        &d.code,
		Symbols:     d.symbols,
		Listing:     d.listing,
		Diagnostics: d.diags.Items(),
	}
}

func isInclude(stmt *ast.Statement) bool {
	return stmt.Kind == ast.StatementDirective && stmt.Directive.Kind == ast.DirectiveInclude
}

// resolveIncludePath implements spec.md §6.1's "relative to the including
// file's directory if relative; absolute paths are used as given".
func resolveIncludePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ResolveIncludePath exports resolveIncludePath for callers outside this
// package that need to walk the same INCLUDE tree the two-pass driver
// does — currently the xref report, which recurses into included files the
// same way pass 1/pass 2 do.
func ResolveIncludePath(dir, path string) string {
	return resolveIncludePath(dir, path)
}

// loadProgram returns the cached program for resolved, parsing it (and
// registering it in the arena) on first use. diags is non-nil only on a
// fresh parse; a cache hit returns nil since those diagnostics were
// already added to d.diags the first time.
func (d *Driver) loadProgram(resolved string) (*ast.Program, *arena.File, []diag.Diagnostic, error) {
	if prog, ok := d.programs[resolved]; ok {
		file, _ := d.arena.Lookup(resolved)
		return prog, file, nil, nil
	}
	file, err := d.arena.Register(resolved)
	if err != nil {
		return nil, nil, nil, err
	}
	prog, diags := parser.Parse(file)
	d.programs[resolved] = prog
	return prog, file, diags, nil
}

func hasErrorSeverity(diags []diag.Diagnostic) bool {
	for _, dg := range diags {
		if dg.Severity == diag.Error {
			return true
		}
	}
	return false
}
