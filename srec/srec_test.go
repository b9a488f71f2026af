package srec

import (
	"strings"
	"testing"

	"github.com/nwidger/m68kasm/assembler"
)

func TestEmitHeaderAndTerminator(t *testing.T) {
	code := &assembler.CodeObject{}
	out := Emit(code, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "S004000020DB" {
		t.Fatalf("first line = %q, want S0 header", lines[0])
	}
	if lines[len(lines)-1] != "S9030000FC" {
		t.Fatalf("last line = %q, want S9 terminator", lines[len(lines)-1])
	}
}

func TestEmitSingleFragmentS1Record(t *testing.T) {
	code := &assembler.CodeObject{Fragments: []assembler.Fragment{
		{Addr: 0x1000, Bytes: []byte{0x4E, 0x75}},
	}}
	out := Emit(code, 0)
	want := "S10510004E7527"
	if !strings.Contains(out, want) {
		t.Fatalf("Emit output %q does not contain %q", out, want)
	}
}

func TestEmitCoalescesContiguousFragments(t *testing.T) {
	code := &assembler.CodeObject{Fragments: []assembler.Fragment{
		{Addr: 0, Bytes: []byte{0x61, 0x00, 0x00, 0x02}},
		{Addr: 4, Bytes: []byte{0x4E, 0x75}},
	}}
	out := Emit(code, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3 (S0, one S1, S9), got %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[1], "S1") {
		t.Fatalf("data record = %q, want S1 prefix", lines[1])
	}
	if !strings.Contains(lines[1], "610000024E75") {
		t.Fatalf("data record = %q, want coalesced bytes 610000024E75", lines[1])
	}
}

func TestEmitBreaksOnDiscontinuity(t *testing.T) {
	code := &assembler.CodeObject{Fragments: []assembler.Fragment{
		{Addr: 0, Bytes: []byte{0x4E, 0x71}},
		{Addr: 0x1000, Bytes: []byte{0x4E, 0x75}},
	}}
	out := Emit(code, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4 (S0, two S1, S9), got %v", len(lines), lines)
	}
}

func TestEmitSplitsOversizedRun(t *testing.T) {
	data := make([]byte, 75)
	for i := range data {
		data[i] = byte(i)
	}
	code := &assembler.CodeObject{Fragments: []assembler.Fragment{
		{Addr: 0, Bytes: data},
	}}
	out := Emit(code, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// 75 bytes > the 70-byte S1 budget (maxWidth=0 means "no override"),
	// so it must split into two records.
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4 (S0, two S1, S9), got %v", len(lines), lines)
	}
}

func TestEmitClampsToConfiguredWidth(t *testing.T) {
	data := make([]byte, 10)
	code := &assembler.CodeObject{Fragments: []assembler.Fragment{
		{Addr: 0, Bytes: data},
	}}
	// A configured width of 8 is well under the 70-byte S1 budget, so it
	// must govern the split: 10 bytes over an 8-byte budget is two records.
	out := Emit(code, 8)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4 (S0, two S1, S9), got %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[1], "S10B") {
		t.Fatalf("first data record = %q, want an 8-data-byte S1 (byte count = 8+2+1 = 0x0B)", lines[1])
	}
}

func TestRecordKindNeverExceedsTypeMaximum(t *testing.T) {
	_, _, maxData := recordKind(0, 1000)
	if maxData != 70 {
		t.Fatalf("recordKind(0, 1000) maxData = %d, want 70 (S1's own maximum, not the oversized configured width)", maxData)
	}
}

func TestChecksumProperty(t *testing.T) {
	// checksum + (byte_count + sum(addr_bytes) + sum(data_bytes)) == 0xFF (mod 256).
	cs := checksum([]byte{0x4E, 0x75}, 2, 0x1000)
	sum := (2 + 2 + 1) + 0x10 + 0x00 + 0x4E + 0x75
	if (int(cs)+sum)&0xFF != 0xFF {
		t.Fatalf("checksum %02X does not satisfy the mod-256 invariant for sum %d", cs, sum)
	}
}
