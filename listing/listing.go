// Package listing renders the per-file assembly listing of spec.md §4.G
// and §6.3: a banner per file, then one fixed-column row per source line
// showing the PC, the statement's bytes (hex, with a space after every
// bytesPerRow-th byte), the line number, and the source text. Grounded almost
// directly on original_source/assembler/src/listing.rs's Listing/CodeRef/
// PrintableListing, adapted from a borrowed HashMap into the assembler
// package's exported Listing index so it can run after Driver.Run returns.
package listing

import (
	"fmt"
	"strings"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/assembler"
)

// Render formats the listing for every file a registered in the order it
// was registered, using asm's code object and line index. bytesPerRow is
// the byte-grouping width (config.Listing.BytesPerRow; spec.md default 4):
// a space follows every bytesPerRowth byte.
func Render(a *arena.Arena, asm *assembler.Assembly, bytesPerRow int) string {
	var sb strings.Builder
	for _, f := range a.Files() {
		renderFile(&sb, f, asm, bytesPerRow)
	}
	return sb.String()
}

func renderFile(sb *strings.Builder, f *arena.File, asm *assembler.Assembly, bytesPerRow int) {
	fmt.Fprintf(sb, "\n========= %s =========\n\n", f.Path)

	var pc uint32
	for line := 1; line <= f.LineCount(); line++ {
		text := f.Line(line)

		var code []byte
		if ref, ok := asm.Listing[assembler.LineKey{File: f.Path, Line: line}]; ok {
			frag := asm.Code.Fragments[ref.Fragment]
			pc = frag.Addr
			if ref.Kind == assembler.LineRefCode {
				code = frag.Bytes
			}
		}

		fmt.Fprintf(sb, "%08X  %-30s %5d  %s\n", pc, formatBytes(code, bytesPerRow), line, strings.TrimRight(text, " \t"))
		pc += uint32(len(code))
	}
}

// formatBytes renders bytes as space-separated groupSize-byte runs of hex
// digits: a trailing space follows every groupSize-th byte, so groupSize 2
// reads as "4E71 2034 56" rather than "4E 71 20 34 56".
func formatBytes(bytes []byte, groupSize int) string {
	if groupSize <= 0 {
		groupSize = 1
	}
	var sb strings.Builder
	for i, b := range bytes {
		fmt.Fprintf(&sb, "%02X", b)
		if (i+1)%groupSize == 0 {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
