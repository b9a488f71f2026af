package assembler

import (
	"path/filepath"

	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/diag"
	"github.com/nwidger/m68kasm/encoder"
	"github.com/nwidger/m68kasm/eval"
	"github.com/nwidger/m68kasm/symtab"
)

// pass1 walks prog's statements in order, sizing each with a dry-run
// encode and assigning labels. dir is the directory Include paths in prog
// resolve against. It returns the ending pc and a non-nil error only for
// the fatal categories of spec.md §4.I, in which case the triggering
// diagnostic has already been recorded.
func (d *Driver) pass1(prog *ast.Program, dir string, pc uint32) (uint32, error) {
	lk := encoder.Lookups{
		General: symtab.PermissiveLookup{Table: d.symbols},
		Org:     symtab.FailingLookup{Table: d.symbols},
	}

	for _, stmt := range prog.Statements {
		if isInclude(stmt) {
			resolved := resolveIncludePath(dir, stmt.Directive.Path)
			subProg, subFile, pdiags, err := d.loadProgram(resolved)
			if err != nil {
				d.diags.Add(diag.New(diag.KindIO, stmt.Directive.PathSpan, err.Error()))
				return pc, errFatal
			}
			d.diags.AddAll(pdiags)
			if hasErrorSeverity(pdiags) {
				return pc, errFatal
			}

			endPC, err := d.pass1(subProg, filepath.Dir(subFile.Path), pc)
			if err != nil {
				return pc, err
			}
			d.includeEnds = append(d.includeEnds, endPC)
			pc = endPC
			continue
		}

		newPC, err := d.pass1Statement(stmt, pc, lk)
		if err != nil {
			return pc, err
		}
		pc = newPC
	}
	return pc, nil
}

func (d *Driver) pass1Statement(stmt *ast.Statement, pc uint32, lk encoder.Lookups) (uint32, error) {
	res, err := encoder.Encode(stmt, pc, lk, true)
	if err != nil {
		d.diags.Add(encodeDiagnostic(err, stmt.Span()))
		if eval.IsDivisionByZero(err) {
			return pc, errFatal
		}
		// Any other pass-1 shape error leaves pc where it was; pass 2
		// will raise the same diagnostic again and the assembly fails
		// overall, but we keep walking to surface further problems.
		return pc, nil
	}

	newPC := pc
	if res.StartAddr != nil {
		newPC = *res.StartAddr
	}

	if stmt.HasLabel {
		value := newPC
		if res.LabelValue != nil {
			value = uint32(*res.LabelValue)
		}
		if err := d.symbols.Define(stmt.Label, value); err != nil {
			d.diags.Add(diag.New(diag.KindDuplicateLabel, stmt.LabelSpan, err.Error()))
			return newPC + uint32(len(res.Bytes)), errFatal
		}
	}

	return newPC + uint32(len(res.Bytes)), nil
}

// pass2 re-walks prog in the identical order pass1 did, this time with a
// failing lookup on both axes, pushing fragments and populating the
// listing index.
func (d *Driver) pass2(prog *ast.Program, dir string, pc uint32) (uint32, error) {
	lk := encoder.Lookups{
		General: symtab.FailingLookup{Table: d.symbols},
		Org:     symtab.FailingLookup{Table: d.symbols},
	}

	for _, stmt := range prog.Statements {
		if isInclude(stmt) {
			resolved := resolveIncludePath(dir, stmt.Directive.Path)
			subProg, subFile, _, err := d.loadProgram(resolved)
			if err != nil {
				d.diags.Add(diag.New(diag.KindIO, stmt.Directive.PathSpan, err.Error()))
				return pc, errFatal
			}
			if _, err := d.pass2(subProg, filepath.Dir(subFile.Path), pc); err != nil {
				return pc, err
			}
			// Fast-forward to pass 1's recorded end address rather than
			// trusting the recursive accumulation, per spec.md §4.F.
			pc = d.includeEnds[d.includeCursor]
			d.includeCursor++
			continue
		}

		newPC, err := d.pass2Statement(stmt, pc, lk)
		if err != nil {
			return pc, err
		}
		pc = newPC
	}
	return pc, nil
}

func (d *Driver) pass2Statement(stmt *ast.Statement, pc uint32, lk encoder.Lookups) (uint32, error) {
	res, err := encoder.Encode(stmt, pc, lk, false)
	if err != nil {
		d.diags.Add(encodeDiagnostic(err, stmt.Span()))
		if eval.IsDivisionByZero(err) {
			return pc, errFatal
		}
		// UndefinedSymbol and other encode failures are collected and
		// reported in a batch (spec.md §7); pc cannot reliably advance
		// without the failed byte count, so this statement contributes
		// no fragment and no further lines. The overall assembly still
		// fails since the diagnostic list now has an Error entry.
		return pc, nil
	}

	d.diags.AddAll(res.Warnings)

	newPC := pc
	if res.StartAddr != nil {
		newPC = *res.StartAddr
	}

	if len(res.Bytes) > 0 {
		idx := d.code.push(newPC, res.Bytes)
		d.attributeListing(stmt, idx)
	}

	return newPC + uint32(len(res.Bytes)), nil
}

// attributeListing implements spec.md §4.G. A statement's span never
// crosses a line (the grammar has no line-continuation), so it always
// attributes exactly one line, as LineRefCode: the one row a multi-line
// statement's last line would get in a grammar that allowed one.
func (d *Driver) attributeListing(stmt *ast.Statement, fragment int) {
	span := stmt.Span()
	if span.File == nil {
		return
	}
	line, _ := span.File.LineCol(span.Start)
	if span.File.Line(line) == "" {
		return
	}
	d.listing[LineKey{File: span.File.Path, Line: line}] = LineRef{Kind: LineRefCode, Fragment: fragment}
}

// encodeDiagnostic classifies an error Encode returned into the spec.md
// §7 taxonomy, preferring the span an *encoder.EncodingError carries over
// the statement's own span.
func encodeDiagnostic(err error, fallback diag.Span) diag.Diagnostic {
	span := fallback
	if ee, ok := err.(*encoder.EncodingError); ok {
		span = ee.Span
	}

	kind := diag.KindEncoding
	switch {
	case eval.IsDivisionByZero(err):
		kind = diag.KindDivisionByZero
	case symtab.IsUndefinedSymbol(err):
		kind = diag.KindUndefinedSymbol
	}
	return diag.New(kind, span, err.Error())
}
