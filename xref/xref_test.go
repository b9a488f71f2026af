package xref

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/assembler"
	"github.com/nwidger/m68kasm/symtab"
)

// assemble runs the full driver (for a populated symbol table) over src and
// returns the arena and root path, mirroring how cmd/m68kasm wires
// xref.Build after a successful Run.
func assemble(t *testing.T, src string) (*symtab.Table, *arena.Arena, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.s68")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := arena.New()
	asm, err := assembler.New(a).Run(path)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}
	return asm.Symbols, a, path
}

func TestBuildDefinitionAndBranchReference(t *testing.T) {
	symbols, a, path := assemble(t, "start: BSR sub\nsub: RTS\n")
	index, err := Build(symbols, a, path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	start, ok := index["start"]
	if !ok || start.Definition == nil || start.Definition.Line != 1 {
		t.Fatalf("start = %+v, want definition at line 1", start)
	}
	sub, ok := index["sub"]
	if !ok || sub.Definition == nil || sub.Definition.Line != 2 {
		t.Fatalf("sub = %+v, want definition at line 2", sub)
	}
	if !sub.IsFunction {
		t.Fatalf("sub.IsFunction = false, want true (targeted by BSR)")
	}
	if len(sub.References) != 1 || sub.References[0].Type != RefBranch {
		t.Fatalf("sub.References = %+v, want one RefBranch", sub.References)
	}
	if sub.Value != 4 {
		t.Fatalf("sub.Value = %d, want 4 (after the 4-byte BSR)", sub.Value)
	}

	out := Render(index)
	if !strings.Contains(out, "sub") || !strings.Contains(out, "[function]") {
		t.Fatalf("Render output missing function tag, got:\n%s", out)
	}
}

func TestBuildEquIsConstantWithValue(t *testing.T) {
	symbols, a, path := assemble(t, "LIMIT: EQU $100\nNOP\n")
	index, err := Build(symbols, a, path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	limit, ok := index["LIMIT"]
	if !ok || !limit.IsConstant || limit.Value != 0x100 {
		t.Fatalf("LIMIT = %+v, want IsConstant=true Value=0x100", limit)
	}
}

func TestBuildUnreferencedSymbolIsUnused(t *testing.T) {
	symbols, a, path := assemble(t, "dead: NOP\nNOP\n")
	index, err := Build(symbols, a, path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out := Render(index)
	if !strings.Contains(out, "Unused:            1") {
		t.Fatalf("Render output = %s, want Unused: 1", out)
	}
}

func TestBuildRecursesIntoIncludedFiles(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "a.s68")
	incPath := filepath.Join(dir, "sub.inc")

	if err := os.WriteFile(incPath, []byte("helper: RTS\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	root := "start: BSR helper\nINCLUDE \"sub.inc\"\n"
	if err := os.WriteFile(rootPath, []byte(root), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := arena.New()
	asm, err := assembler.New(a).Run(rootPath)
	if err != nil {
		t.Fatalf("Run: %v, diags=%v", err, asm.Diagnostics)
	}

	index, err := Build(asm.Symbols, a, rootPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	helper, ok := index["helper"]
	if !ok || helper.Definition == nil {
		t.Fatalf("index[helper] = %+v, want a definition from the included file", helper)
	}
	if !helper.IsFunction {
		t.Fatalf("helper.IsFunction = false, want true (targeted by BSR from the root file)")
	}
}
