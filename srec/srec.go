// Package srec emits Motorola S-record output from an assembled code
// object, per spec.md §4.H. Grounded closely on
// original_source/src/codegen/srec.rs's Record/SRec types: contiguous
// fragments are coalesced, oversized runs are split per record-type byte
// budget, and the checksum formula is ported digit-for-digit.
package srec

import (
	"fmt"
	"strings"

	"github.com/nwidger/m68kasm/assembler"
)

const (
	header     = "S004000020DB"
	terminator = "S9030000FC"
)

// Emit renders code as a complete S-record stream: the S0 header, one or
// more S1/S2/S3 data records, and the S9 terminator. maxWidth is
// config.Output.SrecordWidth: a per-record data-byte budget that is
// clamped down to the record type's own maximum (70/68/66 for S1/S2/S3)
// regardless of how large a value is configured. maxWidth <= 0 means no
// override, so each record simply uses its type's maximum.
func Emit(code *assembler.CodeObject, maxWidth int) string {
	var records []string
	records = append(records, header)

	var pendingAddr uint32
	var pendingData []byte
	pending := false
	var expectNext uint32

	flush := func() {
		if !pending {
			return
		}
		records = append(records, splitRecord(pendingAddr, pendingData, maxWidth)...)
		pending = false
		pendingData = nil
	}

	for _, frag := range code.Fragments {
		if pending && frag.Addr == expectNext {
			pendingData = append(pendingData, frag.Bytes...)
		} else {
			flush()
			pendingAddr = frag.Addr
			pendingData = append([]byte(nil), frag.Bytes...)
			pending = true
		}
		expectNext = frag.Addr + uint32(len(frag.Bytes))
	}
	flush()

	records = append(records, terminator)

	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// recordKind picks the record type and its address-field width by addr,
// per spec.md §4.H, and the per-record data-byte budget it implies:
// 80 − (2 header + 2 count + address_hex_nibbles + 2 checksum), taken as
// a byte count directly (not halved), matching original_source. maxWidth,
// if positive and smaller, further clamps that budget down (never up) —
// config.Output.SrecordWidth can shrink a record but can't exceed what its
// type allows.
func recordKind(addr uint32, maxWidth int) (kind byte, addrBytes, maxData int) {
	switch {
	case addr <= 0xFFFF:
		kind, addrBytes, maxData = '1', 2, 80-(2+2+4+2)
	case addr <= 0xFF_FFFF:
		kind, addrBytes, maxData = '2', 3, 80-(2+2+6+2)
	default:
		kind, addrBytes, maxData = '3', 4, 80-(2+2+8+2)
	}
	if maxWidth > 0 && maxWidth < maxData {
		maxData = maxWidth
	}
	return kind, addrBytes, maxData
}

// splitRecord breaks data into records no larger than its starting
// address's budget, recursing on the remainder at its own (possibly
// different) address. The type can change partway through a long run
// that crosses the 0xFFFF or 0xFFFFFF boundary.
func splitRecord(addr uint32, data []byte, maxWidth int) []string {
	kind, addrBytes, maxData := recordKind(addr, maxWidth)
	if len(data) > maxData {
		head, tail := data[:maxData], data[maxData:]
		rec := formatRecord(kind, addrBytes, addr, head)
		rest := splitRecord(addr+uint32(len(head)), tail, maxWidth)
		return append([]string{rec}, rest...)
	}
	return []string{formatRecord(kind, addrBytes, addr, data)}
}

func formatRecord(kind byte, addrBytes int, addr uint32, data []byte) string {
	maskedAddr := addr
	var addrHex string
	switch addrBytes {
	case 2:
		maskedAddr = uint32(uint16(addr))
		addrHex = fmt.Sprintf("%04X", maskedAddr)
	case 3:
		maskedAddr = addr & 0xFFFFFF
		addrHex = fmt.Sprintf("%06X", maskedAddr)
	default:
		addrHex = fmt.Sprintf("%08X", addr)
	}

	byteCount := len(data) + addrBytes + 1
	var dataHex strings.Builder
	for _, b := range data {
		fmt.Fprintf(&dataHex, "%02X", b)
	}

	return fmt.Sprintf("S%c%02X%s%s%02X", kind, byteCount, addrHex, dataHex.String(),
		checksum(data, addrBytes, maskedAddr))
}

// checksum implements spec.md §4.H/§8 property 4:
// 0xFF − (low byte of (byte_count + sum(addr_bytes) + sum(data_bytes))),
// where byte_count = data_len + addr_len + 1.
func checksum(data []byte, addrBytes int, addr uint32) byte {
	sum := len(data) + addrBytes + 1
	for i := 0; i < addrBytes; i++ {
		shift := uint(8 * (addrBytes - 1 - i))
		sum += int((addr >> shift) & 0xFF)
	}
	for _, b := range data {
		sum += int(b)
	}
	return 0xFF - byte(sum&0xFF)
}
