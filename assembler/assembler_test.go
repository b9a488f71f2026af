package assembler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/diag"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func requireNoErrors(t *testing.T, diags []diag.Diagnostic) {
	t.Helper()
	for _, d := range diags {
		if d.Severity == diag.Error {
			t.Fatalf("unexpected error diagnostic: %s", d.Message)
		}
	}
}

func TestAssembleNOP(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "NOP\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	requireNoErrors(t, asm.Diagnostics)

	if len(asm.Code.Fragments) != 1 {
		t.Fatalf("len(Fragments) = %d, want 1", len(asm.Code.Fragments))
	}
	f := asm.Code.Fragments[0]
	if f.Addr != 0 {
		t.Fatalf("Addr = %d, want 0", f.Addr)
	}
	if len(f.Bytes) != 2 || f.Bytes[0] != 0x4E || f.Bytes[1] != 0x71 {
		t.Fatalf("Bytes = % X, want 4E 71", f.Bytes)
	}
}

func TestAssembleOrgAndLabel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "ORG $1000\nlabel: RTS\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	requireNoErrors(t, asm.Diagnostics)

	v, ok := asm.Symbols.Lookup("label")
	if !ok || v != 0x1000 {
		t.Fatalf("label = %v (ok=%v), want 0x1000", v, ok)
	}
	if len(asm.Code.Fragments) != 1 || asm.Code.Fragments[0].Addr != 0x1000 {
		t.Fatalf("Fragments = %+v, want one fragment at 0x1000", asm.Code.Fragments)
	}
}

func TestAssembleForwardBranchReference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "start: BSR sub\nsub: RTS\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	requireNoErrors(t, asm.Diagnostics)

	if len(asm.Code.Fragments) != 2 {
		t.Fatalf("len(Fragments) = %d, want 2", len(asm.Code.Fragments))
	}
	bsr := asm.Code.Fragments[0]
	want := []byte{0x61, 0x00, 0x00, 0x02}
	if string(bsr.Bytes) != string(want) {
		t.Fatalf("BSR bytes = % X, want % X", bsr.Bytes, want)
	}
}

func TestAssembleUndefinedSymbolIsCollectedNotFatalImmediately(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "MOVE.L #missing,D0\nNOP\n")

	asm, err := New(arena.New()).Run(path)
	if err == nil {
		t.Fatal("Run: want error for undefined symbol")
	}
	found := false
	for _, d := range asm.Diagnostics {
		if d.Kind == diag.KindUndefinedSymbol {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %+v, want a KindUndefinedSymbol entry", asm.Diagnostics)
	}
	// The failing MOVE contributes no fragment, but pass 2 keeps going and
	// still encodes the NOP after it.
	if len(asm.Code.Fragments) != 1 {
		t.Fatalf("len(Fragments) = %d, want 1 (the NOP after the failing line)", len(asm.Code.Fragments))
	}
}

func TestAssembleDuplicateLabelIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "x: NOP\nx: NOP\n")

	asm, err := New(arena.New()).Run(path)
	if err == nil {
		t.Fatal("Run: want error for duplicate label")
	}
	found := false
	for _, d := range asm.Diagnostics {
		if d.Kind == diag.KindDuplicateLabel {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %+v, want a KindDuplicateLabel entry", asm.Diagnostics)
	}
}

func TestAssembleDCTruncationWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "DC.B 'A','B',256\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	f := asm.Code.Fragments[0]
	want := []byte{'A', 'B', 0}
	if string(f.Bytes) != string(want) {
		t.Fatalf("Bytes = % X, want % X", f.Bytes, want)
	}
	found := false
	for _, d := range asm.Diagnostics {
		if d.Kind == diag.KindTruncation && d.Severity == diag.Warning {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %+v, want a KindTruncation warning", asm.Diagnostics)
	}
}

func TestAssembleIncludeRecursion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.inc", "inner: NOP\n")
	path := writeFile(t, dir, "main.s68", "INCLUDE \"sub.inc\"\nouter: RTS\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	requireNoErrors(t, asm.Diagnostics)

	inner, ok := asm.Symbols.Lookup("inner")
	if !ok || inner != 0 {
		t.Fatalf("inner = %v (ok=%v), want 0", inner, ok)
	}
	outer, ok := asm.Symbols.Lookup("outer")
	if !ok || outer != 2 {
		t.Fatalf("outer = %v (ok=%v), want 2", outer, ok)
	}
	if len(asm.Code.Fragments) != 2 {
		t.Fatalf("len(Fragments) = %d, want 2", len(asm.Code.Fragments))
	}
}

func TestAssembleListingAttributesLastFragmentPerLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s68", "start: NOP\n")

	asm, err := New(arena.New()).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	ref, ok := asm.Listing[LineKey{File: path, Line: 1}]
	if !ok {
		t.Fatal("Listing missing entry for line 1")
	}
	if ref.Kind != LineRefCode || ref.Fragment != 0 {
		t.Fatalf("ref = %+v, want {LineRefCode, 0}", ref)
	}
}
