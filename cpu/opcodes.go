package cpu

import "fmt"

// AddressMode identifies how an opcode's operand bytes name the operand
// value, per spec section 3.
type AddressMode int

const (
	IMP  AddressMode = iota // implied, no operand
	ACC                     // operates directly on the accumulator
	IMM                     // #imm8
	ZP                      // zero page
	ZPX                     // zero page, X
	ZPY                     // zero page, Y
	ABS                     // absolute
	ABSX                    // absolute, X
	ABSY                    // absolute, Y
	IND                     // (absolute) - JMP only, page-wrap bug
	INDX                    // (zp,X)
	INDY                    // (zp),Y
	REL                     // signed 8-bit PC-relative, branches only
)

// String returns the mode's short name, such as "ZPX" or "INDY".
func (m AddressMode) String() string {
	switch m {
	case IMP:
		return "IMP"
	case ACC:
		return "ACC"
	case IMM:
		return "IMM"
	case ZP:
		return "ZP"
	case ZPX:
		return "ZPX"
	case ZPY:
		return "ZPY"
	case ABS:
		return "ABS"
	case ABSX:
		return "ABSX"
	case ABSY:
		return "ABSY"
	case IND:
		return "IND"
	case INDX:
		return "INDX"
	case INDY:
		return "INDY"
	case REL:
		return "REL"
	}
	return fmt.Sprintf("AddressMode(%d)", int(m))
}

// OperandSize returns how many operand bytes this mode consumes after the
// opcode byte (0, 1 or 2).
func (m AddressMode) OperandSize() uint8 {
	switch m {
	case IMP, ACC:
		return 0
	case IMM, ZP, ZPX, ZPY, INDX, INDY, REL:
		return 1
	case ABS, ABSX, ABSY, IND:
		return 2
	}
	return 0
}

// Opcode is the static descriptor for one (mnemonic, AddressMode) variant:
// its encoding, base cycle cost, instruction size in bytes, and whether a
// page crossing during effective-address computation adds a cycle.
type Opcode struct {
	Opcode           uint8
	Mnemonic         string
	Mode             AddressMode
	BaseCycles       uint8
	Size             uint8
	PageCrossPenalty bool
}

// Variant selects which 65xx instruction-set family is emulated, per spec
// section 3.
type Variant int

const (
	// DefaultVariant is the base documented 6502 instruction set.
	DefaultVariant Variant = iota
	// NMOS6502 is the same documented set, named distinctly so callers can
	// express "this is specifically NMOS timing" (no CMOS extensions).
	NMOS6502
	// NMOS6502Emu is NMOS6502 plus synthetic HLT/HLT_IM/HLT_ACC opcodes
	// that terminate execution and surface a halt code to the host.
	NMOS6502Emu
)

func (v Variant) String() string {
	switch v {
	case DefaultVariant:
		return "Default"
	case NMOS6502:
		return "NMOS6502"
	case NMOS6502Emu:
		return "NMOS6502Emu"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Synthetic halt opcodes, added only under NMOS6502Emu. These reuse byte
// values real NMOS silicon leaves as JAM/KIL (opcodes that lock the bus),
// the same bytes the teacher's CPU_NMOS variant treats as HLT.
const (
	OpHLT    = uint8(0x02) // halts immediately, halt code 0
	OpHLTIm  = uint8(0x12) // consumes one operand byte as the halt code
	OpHLTAcc = uint8(0x22) // halts with code = A
)

// InstructionSet is the static per-mnemonic, per-mode opcode catalog built
// once at construction time (spec section 9: "Global/static instruction
// tables... represent as a const lookup indexed by opcode byte, plus a
// mnemonic->variants map").
type InstructionSet struct {
	variant    Variant
	byOpcode   [256]*Opcode
	byMnemonic map[string]map[AddressMode]Opcode
}

// NewInstructionSet builds the catalog for the given variant.
func NewInstructionSet(variant Variant) *InstructionSet {
	is := &InstructionSet{
		variant:    variant,
		byMnemonic: make(map[string]map[AddressMode]Opcode),
	}
	for _, o := range documentedOpcodes {
		is.add(o)
	}
	if variant == NMOS6502Emu {
		is.add(Opcode{OpHLT, "HLT", IMP, 1, 1, false})
		is.add(Opcode{OpHLTIm, "HLT_IM", IMM, 2, 2, false})
		is.add(Opcode{OpHLTAcc, "HLT_ACC", IMP, 1, 1, false})
	}
	return is
}

func (is *InstructionSet) add(o Opcode) {
	cp := o
	is.byOpcode[o.Opcode] = &cp
	if is.byMnemonic[o.Mnemonic] == nil {
		is.byMnemonic[o.Mnemonic] = make(map[AddressMode]Opcode)
	}
	is.byMnemonic[o.Mnemonic][o.Mode] = o
}

// Variant reports which instruction-set family this catalog was built for.
func (is *InstructionSet) Variant() Variant {
	return is.variant
}

// Decode looks up the descriptor for a raw opcode byte. ok is false for
// bytes with no assigned meaning in this variant.
func (is *InstructionSet) Decode(b uint8) (Opcode, bool) {
	o := is.byOpcode[b]
	if o == nil {
		return Opcode{}, false
	}
	return *o, true
}

// Variants returns every (AddressMode -> Opcode) pairing the assembler may
// choose between for mnemonic, or nil if the mnemonic is unknown to this
// variant.
func (is *InstructionSet) Variants(mnemonic string) map[AddressMode]Opcode {
	return is.byMnemonic[mnemonic]
}

// documentedOpcodes is the full table of standard (non-undocumented) 6502
// opcodes, grounded on the opcode/cycle/size data embedded in the teacher's
// cpu/processOpcode dispatch and disassemble/disassemble.go's mode table,
// cross-checked against the timing reference both cite
// (http://obelisk.me.uk/6502/reference.html).
var documentedOpcodes = []Opcode{
	// ADC
	{0x69, "ADC", IMM, 2, 2, false}, {0x65, "ADC", ZP, 3, 2, false}, {0x75, "ADC", ZPX, 4, 2, false},
	{0x6D, "ADC", ABS, 4, 3, false}, {0x7D, "ADC", ABSX, 4, 3, true}, {0x79, "ADC", ABSY, 4, 3, true},
	{0x61, "ADC", INDX, 6, 2, false}, {0x71, "ADC", INDY, 5, 2, true},
	// AND
	{0x29, "AND", IMM, 2, 2, false}, {0x25, "AND", ZP, 3, 2, false}, {0x35, "AND", ZPX, 4, 2, false},
	{0x2D, "AND", ABS, 4, 3, false}, {0x3D, "AND", ABSX, 4, 3, true}, {0x39, "AND", ABSY, 4, 3, true},
	{0x21, "AND", INDX, 6, 2, false}, {0x31, "AND", INDY, 5, 2, true},
	// ASL
	{0x0A, "ASL", ACC, 2, 1, false}, {0x06, "ASL", ZP, 5, 2, false}, {0x16, "ASL", ZPX, 6, 2, false},
	{0x0E, "ASL", ABS, 6, 3, false}, {0x1E, "ASL", ABSX, 7, 3, false},
	// Branches
	{0x90, "BCC", REL, 2, 2, false}, {0xB0, "BCS", REL, 2, 2, false}, {0xF0, "BEQ", REL, 2, 2, false},
	{0x30, "BMI", REL, 2, 2, false}, {0xD0, "BNE", REL, 2, 2, false}, {0x10, "BPL", REL, 2, 2, false},
	{0x50, "BVC", REL, 2, 2, false}, {0x70, "BVS", REL, 2, 2, false},
	// BIT
	{0x24, "BIT", ZP, 3, 2, false}, {0x2C, "BIT", ABS, 4, 3, false},
	// BRK
	{0x00, "BRK", IMP, 7, 1, false},
	// Flag ops
	{0x18, "CLC", IMP, 2, 1, false}, {0xD8, "CLD", IMP, 2, 1, false}, {0x58, "CLI", IMP, 2, 1, false},
	{0xB8, "CLV", IMP, 2, 1, false}, {0x38, "SEC", IMP, 2, 1, false}, {0xF8, "SED", IMP, 2, 1, false},
	{0x78, "SEI", IMP, 2, 1, false},
	// Compares
	{0xC9, "CMP", IMM, 2, 2, false}, {0xC5, "CMP", ZP, 3, 2, false}, {0xD5, "CMP", ZPX, 4, 2, false},
	{0xCD, "CMP", ABS, 4, 3, false}, {0xDD, "CMP", ABSX, 4, 3, true}, {0xD9, "CMP", ABSY, 4, 3, true},
	{0xC1, "CMP", INDX, 6, 2, false}, {0xD1, "CMP", INDY, 5, 2, true},
	{0xE0, "CPX", IMM, 2, 2, false}, {0xE4, "CPX", ZP, 3, 2, false}, {0xEC, "CPX", ABS, 4, 3, false},
	{0xC0, "CPY", IMM, 2, 2, false}, {0xC4, "CPY", ZP, 3, 2, false}, {0xCC, "CPY", ABS, 4, 3, false},
	// Inc/dec memory
	{0xC6, "DEC", ZP, 5, 2, false}, {0xD6, "DEC", ZPX, 6, 2, false}, {0xCE, "DEC", ABS, 6, 3, false},
	{0xDE, "DEC", ABSX, 7, 3, false},
	{0xE6, "INC", ZP, 5, 2, false}, {0xF6, "INC", ZPX, 6, 2, false}, {0xEE, "INC", ABS, 6, 3, false},
	{0xFE, "INC", ABSX, 7, 3, false},
	// Inc/dec register
	{0xCA, "DEX", IMP, 2, 1, false}, {0x88, "DEY", IMP, 2, 1, false},
	{0xE8, "INX", IMP, 2, 1, false}, {0xC8, "INY", IMP, 2, 1, false},
	// EOR
	{0x49, "EOR", IMM, 2, 2, false}, {0x45, "EOR", ZP, 3, 2, false}, {0x55, "EOR", ZPX, 4, 2, false},
	{0x4D, "EOR", ABS, 4, 3, false}, {0x5D, "EOR", ABSX, 4, 3, true}, {0x59, "EOR", ABSY, 4, 3, true},
	{0x41, "EOR", INDX, 6, 2, false}, {0x51, "EOR", INDY, 5, 2, true},
	// Jumps
	{0x4C, "JMP", ABS, 3, 3, false}, {0x6C, "JMP", IND, 5, 3, false}, {0x20, "JSR", ABS, 6, 3, false},
	{0x40, "RTI", IMP, 6, 1, false}, {0x60, "RTS", IMP, 6, 1, false},
	// Loads
	{0xA9, "LDA", IMM, 2, 2, false}, {0xA5, "LDA", ZP, 3, 2, false}, {0xB5, "LDA", ZPX, 4, 2, false},
	{0xAD, "LDA", ABS, 4, 3, false}, {0xBD, "LDA", ABSX, 4, 3, true}, {0xB9, "LDA", ABSY, 4, 3, true},
	{0xA1, "LDA", INDX, 6, 2, false}, {0xB1, "LDA", INDY, 5, 2, true},
	{0xA2, "LDX", IMM, 2, 2, false}, {0xA6, "LDX", ZP, 3, 2, false}, {0xB6, "LDX", ZPY, 4, 2, false},
	{0xAE, "LDX", ABS, 4, 3, false}, {0xBE, "LDX", ABSY, 4, 3, true},
	{0xA0, "LDY", IMM, 2, 2, false}, {0xA4, "LDY", ZP, 3, 2, false}, {0xB4, "LDY", ZPX, 4, 2, false},
	{0xAC, "LDY", ABS, 4, 3, false}, {0xBC, "LDY", ABSX, 4, 3, true},
	// LSR
	{0x4A, "LSR", ACC, 2, 1, false}, {0x46, "LSR", ZP, 5, 2, false}, {0x56, "LSR", ZPX, 6, 2, false},
	{0x4E, "LSR", ABS, 6, 3, false}, {0x5E, "LSR", ABSX, 7, 3, false},
	// NOP
	{0xEA, "NOP", IMP, 2, 1, false},
	// ORA
	{0x09, "ORA", IMM, 2, 2, false}, {0x05, "ORA", ZP, 3, 2, false}, {0x15, "ORA", ZPX, 4, 2, false},
	{0x0D, "ORA", ABS, 4, 3, false}, {0x1D, "ORA", ABSX, 4, 3, true}, {0x19, "ORA", ABSY, 4, 3, true},
	{0x01, "ORA", INDX, 6, 2, false}, {0x11, "ORA", INDY, 5, 2, true},
	// Stack
	{0x48, "PHA", IMP, 3, 1, false}, {0x08, "PHP", IMP, 3, 1, false},
	{0x68, "PLA", IMP, 4, 1, false}, {0x28, "PLP", IMP, 4, 1, false},
	// ROL/ROR
	{0x2A, "ROL", ACC, 2, 1, false}, {0x26, "ROL", ZP, 5, 2, false}, {0x36, "ROL", ZPX, 6, 2, false},
	{0x2E, "ROL", ABS, 6, 3, false}, {0x3E, "ROL", ABSX, 7, 3, false},
	{0x6A, "ROR", ACC, 2, 1, false}, {0x66, "ROR", ZP, 5, 2, false}, {0x76, "ROR", ZPX, 6, 2, false},
	{0x6E, "ROR", ABS, 6, 3, false}, {0x7E, "ROR", ABSX, 7, 3, false},
	// SBC
	{0xE9, "SBC", IMM, 2, 2, false}, {0xE5, "SBC", ZP, 3, 2, false}, {0xF5, "SBC", ZPX, 4, 2, false},
	{0xED, "SBC", ABS, 4, 3, false}, {0xFD, "SBC", ABSX, 4, 3, true}, {0xF9, "SBC", ABSY, 4, 3, true},
	{0xE1, "SBC", INDX, 6, 2, false}, {0xF1, "SBC", INDY, 5, 2, true},
	// Stores (no page-cross penalty: stores always pay the worst case)
	{0x85, "STA", ZP, 3, 2, false}, {0x95, "STA", ZPX, 4, 2, false}, {0x8D, "STA", ABS, 4, 3, false},
	{0x9D, "STA", ABSX, 5, 3, false}, {0x99, "STA", ABSY, 5, 3, false},
	{0x81, "STA", INDX, 6, 2, false}, {0x91, "STA", INDY, 6, 2, false},
	{0x86, "STX", ZP, 3, 2, false}, {0x96, "STX", ZPY, 4, 2, false}, {0x8E, "STX", ABS, 4, 3, false},
	{0x84, "STY", ZP, 3, 2, false}, {0x94, "STY", ZPX, 4, 2, false}, {0x8C, "STY", ABS, 4, 3, false},
	// Transfers
	{0xAA, "TAX", IMP, 2, 1, false}, {0xA8, "TAY", IMP, 2, 1, false}, {0xBA, "TSX", IMP, 2, 1, false},
	{0x8A, "TXA", IMP, 2, 1, false}, {0x9A, "TXS", IMP, 2, 1, false}, {0x98, "TYA", IMP, 2, 1, false},
}
