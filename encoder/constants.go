package encoder

// Size field encodings used by different instruction families (spec.md
// §4.E). MOVE/MOVEA use the two-bit S field; CLR/CMPI use the two-bit s2
// field; CMP uses a three-bit opmode sharing the same B/W/L ordering.
const (
	moveSizeB uint16 = 0b01
	moveSizeW uint16 = 0b11
	moveSizeL uint16 = 0b10

	altSizeB uint16 = 0b00 // CLR, CMPI
	altSizeW uint16 = 0b01
	altSizeL uint16 = 0b10

	cmpOpmodeB uint16 = 0b000
	cmpOpmodeW uint16 = 0b001
	cmpOpmodeL uint16 = 0b010

	adaOpmodeW uint16 = 0b011 // ADDA/SUBA
	adaOpmodeL uint16 = 0b111
)

// Fixed opcodes for instructions that take no size-dependent field.
const (
	opcodeNOP = 0x4E71
	opcodeRTS = 0x4E75
	opcodeRTE = 0x4E73
)

// Base opcodes combined with a mode/register field computed at encode time.
const (
	opcodeLEABase    uint16 = 0x4000 | (0b111 << 6)
	opcodeLINKBase   uint16 = 0x4E50
	opcodeUNLKBase   uint16 = 0x4E58
	opcodePEABase    uint16 = 0x4840
	opcodeCLRBase    uint16 = 0x4200
	opcodeCMPBase    uint16 = 0xB000
	opcodeCMPIBase   uint16 = 0x0C00
	opcodeADDABase   uint16 = 0xD000
	opcodeSUBABase   uint16 = 0x9000
	opcodeBccBase    uint16 = 0x6000
	opcodeBSR        uint16 = 0x6100
	opcodeJMPBase    uint16 = 0x4EC0
	opcodeANDISR     uint16 = 0x027C
	opcodeMOVEtoSR   uint16 = 0x46C0
	opcodeMOVEAnUSP  uint16 = 0x4E60
	opcodeMOVEUSPAn  uint16 = 0x4E68
	opcodeBKPTBase   uint16 = 0x4848
	opcodeTRAPBase   uint16 = 0x4E40
)

// conditionCodes maps a Bcc condition mnemonic suffix to its 4-bit cccc
// field (spec.md §4.E condition-code table).
var conditionCodes = map[string]uint16{
	"HI": 0b0010,
	"LS": 0b0011,
	"CC": 0b0100,
	"CS": 0b0101,
	"NE": 0b0110,
	"EQ": 0b0111,
	"VC": 0b1000,
	"VS": 0b1001,
	"PL": 0b1010,
	"MI": 0b1011,
	"GE": 0b1100,
	"LT": 0b1101,
	"GT": 0b1110,
	"LE": 0b1111,
}
