// Package disassemble renders one 6502 instruction at a time as text,
// driven by a cpu.InstructionSet rather than a private opcode table, so
// disassembly always agrees with whatever variant actually executed the
// code.
package disassemble

import (
	"fmt"

	"github.com/sixtwo-toolchain/sixtwo/cpu"
	"github.com/sixtwo-toolchain/sixtwo/memory"
)

// Step disassembles the instruction at pc, returning its text rendering
// and the number of bytes (opcode + operand) to advance the PC by. For 2-
// and 3-byte instructions it also reads the one or two operand bytes after
// pc; an operand byte DebugRead cannot supply renders as 00. An opcode byte
// iset doesn't recognize renders as "???" with a 1-byte advance.
func Step(pc uint16, mem memory.Interface, iset *cpu.InstructionSet) (string, int) {
	o, ok := mem.DebugRead(pc)
	if !ok {
		return fmt.Sprintf("%.4X ??      ???", pc), 1
	}

	op, ok := iset.Decode(o)
	if !ok {
		return fmt.Sprintf("%.4X %.2X      ???", pc, o), 1
	}

	switch op.Mode {
	case cpu.IMP, cpu.ACC:
		return fmt.Sprintf("%.4X %.2X      %s", pc, o, op.Mnemonic), 1
	case cpu.IMM, cpu.ZP, cpu.ZPX, cpu.ZPY, cpu.INDX, cpu.INDY, cpu.REL:
		b1, _ := mem.DebugRead(pc + 1)
		return fmt.Sprintf("%.4X %.2X %.2X   %s", pc, o, b1, operandText(op.Mode, op.Mnemonic, pc, b1, 0)), 2
	case cpu.ABS, cpu.ABSX, cpu.ABSY, cpu.IND:
		b1, _ := mem.DebugRead(pc + 1)
		b2, _ := mem.DebugRead(pc + 2)
		return fmt.Sprintf("%.4X %.2X %.2X %.2X %s", pc, o, b1, b2, operandText(op.Mode, op.Mnemonic, pc, b1, b2)), 3
	}
	return fmt.Sprintf("%.4X %.2X      ???", pc, o), 1
}

func operandText(mode cpu.AddressMode, mnemonic string, pc uint16, lo, hi uint8) string {
	switch mode {
	case cpu.IMM:
		return fmt.Sprintf("%s #$%.2X", mnemonic, lo)
	case cpu.ZP:
		return fmt.Sprintf("%s $%.2X", mnemonic, lo)
	case cpu.ZPX:
		return fmt.Sprintf("%s $%.2X,X", mnemonic, lo)
	case cpu.ZPY:
		return fmt.Sprintf("%s $%.2X,Y", mnemonic, lo)
	case cpu.INDX:
		return fmt.Sprintf("%s ($%.2X,X)", mnemonic, lo)
	case cpu.INDY:
		return fmt.Sprintf("%s ($%.2X),Y", mnemonic, lo)
	case cpu.REL:
		target := pc + 2 + uint16(int16(int8(lo)))
		return fmt.Sprintf("%s $%.2X ($%.4X)", mnemonic, lo, target)
	case cpu.ABS:
		return fmt.Sprintf("%s $%.2X%.2X", mnemonic, hi, lo)
	case cpu.ABSX:
		return fmt.Sprintf("%s $%.2X%.2X,X", mnemonic, hi, lo)
	case cpu.ABSY:
		return fmt.Sprintf("%s $%.2X%.2X,Y", mnemonic, hi, lo)
	case cpu.IND:
		return fmt.Sprintf("%s ($%.2X%.2X)", mnemonic, hi, lo)
	}
	return mnemonic
}
