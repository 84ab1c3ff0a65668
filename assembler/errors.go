package assembler

import (
	"fmt"

	"github.com/sixtwo-toolchain/sixtwo/token"
)

// compileError is embedded by every assembler error type. Errors raised
// while compiling a line carry that line's source token (file, line,
// column, lexeme). Errors raised in pass 2 (UnresolvedSymbol,
// RelocationOutOfRange, and InvalidOperandSize for a ZP relocation) carry a
// token holding only the symbol name: its file, line and column are empty.
type compileError struct {
	Tok token.Token
}

func (e compileError) at() string {
	return e.Tok.String()
}

// UnknownMnemonic names a token that isn't any instruction this compiler's
// InstructionSet knows.
type UnknownMnemonic struct {
	compileError
	Mnemonic string
}

func (e UnknownMnemonic) Error() string {
	return fmt.Sprintf("%s: unknown mnemonic %q", e.at(), e.Mnemonic)
}

// InvalidOperandArgument means the operand's syntax could not be parsed
// into any recognized shape (immediate, direct, indexed, indirect).
type InvalidOperandArgument struct {
	compileError
	Text string
}

func (e InvalidOperandArgument) Error() string {
	return fmt.Sprintf("%s: invalid operand %q", e.at(), e.Text)
}

// InvalidOperandSize means a literal's width doesn't fit any mode the
// mnemonic supports (e.g. a 16-bit literal given to a ZP-only mnemonic).
type InvalidOperandSize struct {
	compileError
	Mnemonic string
}

func (e InvalidOperandSize) Error() string {
	return fmt.Sprintf("%s: operand size doesn't fit any %s addressing mode", e.at(), e.Mnemonic)
}

// OperandModeNotSupported means the operand's syntactic shape selected an
// addressing mode the mnemonic doesn't implement.
type OperandModeNotSupported struct {
	compileError
	Mnemonic string
	Mode     string
}

func (e OperandModeNotSupported) Error() string {
	return fmt.Sprintf("%s: %s does not support %s addressing", e.at(), e.Mnemonic, e.Mode)
}

// UnresolvedSymbol means a relocation's target symbol had no offset at the
// end of pass 2.
type UnresolvedSymbol struct {
	compileError
	Symbol string
}

func (e UnresolvedSymbol) Error() string {
	return fmt.Sprintf("%s: unresolved symbol %q", e.at(), e.Symbol)
}

// DuplicateLabel means NAME: was defined more than once.
type DuplicateLabel struct {
	compileError
	Label string
}

func (e DuplicateLabel) Error() string {
	return fmt.Sprintf("%s: duplicate label %q", e.at(), e.Label)
}

// RelocationOutOfRange means a Relative relocation's displacement doesn't
// fit in a signed 8-bit value.
type RelocationOutOfRange struct {
	compileError
	Displacement int
}

func (e RelocationOutOfRange) Error() string {
	return fmt.Sprintf("%s: relative displacement %d out of range [-128,127]", e.at(), e.Displacement)
}

// OverlappingEmission means two emissions wrote to the same address.
type OverlappingEmission struct {
	compileError
	Addr uint16
}

func (e OverlappingEmission) Error() string {
	return fmt.Sprintf("%s: overlapping emission at 0x%.4X", e.at(), e.Addr)
}

// MalformedToken means a directive or literal's syntax was structurally
// invalid (e.g. .byte with no operands, a non-numeric .org address). An
// unterminated string literal is not reported: the tokenizer takes the rest
// of the line as its text.
type MalformedToken struct {
	compileError
	Detail string
}

func (e MalformedToken) Error() string {
	return fmt.Sprintf("%s: malformed input: %s", e.at(), e.Detail)
}
