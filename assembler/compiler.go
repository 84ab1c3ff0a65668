// Package assembler implements the two-pass 6502 assembler: pass 1 walks
// source lines emitting bytes and recording relocations against a lazy
// token.Tokenizer, pass 2 resolves those relocations against the label
// table built in pass 1. Grounded on original_source's assembler.hpp
// two-pass structure, expressed with the teacher's error-value idiom in
// place of exceptions.
package assembler

import (
	"fmt"
	"os"
	"strings"

	"github.com/sixtwo-toolchain/sixtwo/cpu"
	"github.com/sixtwo-toolchain/sixtwo/token"
)

// Compiler assembles source text against a fixed InstructionSet.
type Compiler struct {
	iset *cpu.InstructionSet
}

// NewCompiler returns a Compiler targeting iset's mnemonic/mode catalog.
func NewCompiler(iset *cpu.InstructionSet) *Compiler {
	return &Compiler{iset: iset}
}

// compileState is the mutable state threaded through pass 1.
type compileState struct {
	prog   *Program
	origin uint16
	cursor uint16
	hasOrg bool
}

// CompileString assembles src as a single in-memory source file.
func (c *Compiler) CompileString(src string) (*Program, error) {
	return c.Compile(token.NewFromString("<string>", src))
}

// CompileFile reads and assembles the named file.
func (c *Compiler) CompileFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Compile(token.New(path, f))
}

// Compile runs both assembly passes over tok and returns the resulting
// Program, or the first error encountered.
func (c *Compiler) Compile(tok *token.Tokenizer) (*Program, error) {
	st := &compileState{prog: NewProgram()}

	for {
		line, ok := tok.Next()
		if !ok {
			break
		}
		if err := c.compileLine(st, line); err != nil {
			return nil, err
		}
	}

	if err := c.resolveRelocations(st.prog); err != nil {
		return nil, err
	}
	return st.prog, nil
}

func (c *Compiler) compileLine(st *compileState, line token.Line) error {
	var toks []token.Token
	lt := line.Tokens()
	for {
		t, ok := lt.Next()
		if !ok {
			break
		}
		toks = append(toks, t)
	}
	if len(toks) == 0 {
		return nil
	}

	// label definition: "NAME:" optionally followed by more on the same line
	if len(toks) >= 2 && toks[1].Lexeme == ":" {
		if err := c.defineLabel(st, toks[0]); err != nil {
			return err
		}
		toks = toks[2:]
		if len(toks) == 0 {
			return nil
		}
	}

	head := toks[0]
	switch strings.ToLower(head.Lexeme) {
	case ".org":
		return c.directiveOrg(st, head, toks[1:])
	case ".equ":
		return c.directiveEqu(st, head, toks[1:])
	case ".byte":
		return c.directiveBytes(st, head, toks[1:], 1)
	case ".word":
		return c.directiveBytes(st, head, toks[1:], 2)
	case ".text":
		return c.directiveText(st, head, toks[1:])
	}

	return c.compileInstruction(st, head, toks[1:])
}

func (c *Compiler) defineLabel(st *compileState, nameTok token.Token) error {
	name := nameTok.Lexeme
	lbl := st.prog.Labels[name]
	if lbl == nil {
		lbl = &Label{}
		st.prog.Labels[name] = lbl
	} else if lbl.Resolved() {
		return DuplicateLabel{compileError{nameTok}, name}
	}
	off := st.cursor
	lbl.Offset = &off
	return nil
}

func (c *Compiler) directiveOrg(st *compileState, tok token.Token, rest []token.Token) error {
	if len(rest) != 1 {
		return MalformedToken{compileError{tok}, ".org requires exactly one address operand"}
	}
	n, err := token.ParseNumber(rest[0].Lexeme)
	if err != nil {
		return MalformedToken{compileError{tok}, fmt.Sprintf("bad .org address %q", rest[0].Lexeme)}
	}
	st.origin = uint16(n)
	st.cursor = uint16(n)
	st.hasOrg = true
	return nil
}

func (c *Compiler) directiveEqu(st *compileState, tok token.Token, rest []token.Token) error {
	if len(rest) != 2 {
		return MalformedToken{compileError{tok}, ".equ requires NAME value"}
	}
	name := rest[0].Lexeme
	n, err := token.ParseNumber(rest[1].Lexeme)
	if err != nil {
		return MalformedToken{compileError{tok}, fmt.Sprintf("bad .equ value %q", rest[1].Lexeme)}
	}
	if n > 0xFF {
		st.prog.Aliases[name] = []byte{uint8(n >> 8), uint8(n)}
	} else {
		st.prog.Aliases[name] = []byte{uint8(n)}
	}
	return nil
}

func (c *Compiler) directiveBytes(st *compileState, tok token.Token, rest []token.Token, width int) error {
	if len(rest) == 0 {
		return MalformedToken{compileError{tok}, "directive requires at least one value"}
	}
	for _, t := range rest {
		if t.Lexeme == "," {
			continue
		}
		n, err := token.ParseNumber(t.Lexeme)
		if err != nil {
			return MalformedToken{compileError{tok}, fmt.Sprintf("bad literal %q", t.Lexeme)}
		}
		if width == 1 {
			if err := c.emit(st, tok, uint8(n)); err != nil {
				return err
			}
		} else {
			if err := c.emit(st, tok, uint8(n), uint8(n>>8)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) directiveText(st *compileState, tok token.Token, rest []token.Token) error {
	if len(rest) != 1 {
		return MalformedToken{compileError{tok}, ".text requires a single string literal"}
	}
	for i := 0; i < len(rest[0].Lexeme); i++ {
		if err := c.emit(st, tok, rest[0].Lexeme[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileInstruction(st *compileState, mnemonicTok token.Token, operandToks []token.Token) error {
	variants := c.iset.Variants(strings.ToUpper(mnemonicTok.Lexeme))
	if variants == nil {
		return UnknownMnemonic{compileError{mnemonicTok}, mnemonicTok.Lexeme}
	}

	shape, val, err := parseOperand(mnemonicTok, operandToks, st.prog.Aliases)
	if err != nil {
		return err
	}
	mode, err := selectMode(mnemonicTok, shape, val, variants)
	if err != nil {
		return err
	}
	op := variants[mode]

	if err := c.emit(st, mnemonicTok, op.Opcode); err != nil {
		return err
	}

	switch mode {
	case cpu.IMP, cpu.ACC:
		return nil
	case cpu.REL:
		return c.emitRelocatable(st, mnemonicTok, val, Relative, 1)
	case cpu.IMM, cpu.ZP, cpu.ZPX, cpu.ZPY, cpu.INDX, cpu.INDY:
		return c.emitRelocatable(st, mnemonicTok, val, ZP, 1)
	case cpu.ABS, cpu.ABSX, cpu.ABSY, cpu.IND:
		return c.emitRelocatable(st, mnemonicTok, val, Absolute, 2)
	}
	return nil
}

// emitRelocatable emits width placeholder bytes (or the resolved literal,
// if val is already concrete) and records a Relocation for symbol operands.
func (c *Compiler) emitRelocatable(st *compileState, tok token.Token, val ArgumentValue, mode RelocMode, width int) error {
	pos := st.cursor
	if val.Kind == ArgSymbol {
		lbl := st.prog.Labels[val.Symbol]
		if lbl == nil {
			lbl = &Label{}
			st.prog.Labels[val.Symbol] = lbl
		}
		lbl.References = append(lbl.References, Relocation{Mode: mode, Position: pos, TargetSymbol: val.Symbol})
		for i := 0; i < width; i++ {
			if err := c.emit(st, tok, 0); err != nil {
				return err
			}
		}
		return nil
	}
	if width == 1 {
		return c.emit(st, tok, uint8(val.Value))
	}
	return c.emit(st, tok, uint8(val.Value), uint8(val.Value>>8))
}

func (c *Compiler) emit(st *compileState, tok token.Token, bytes ...uint8) error {
	for _, b := range bytes {
		if _, exists := st.prog.Code[st.cursor]; exists {
			return OverlappingEmission{compileError{tok}, st.cursor}
		}
		st.prog.Code[st.cursor] = b
		st.cursor++
	}
	return nil
}

// resolveRelocations runs pass 2: every label reference is patched against
// its (now fully known) label table, per spec section 4.3.
func (c *Compiler) resolveRelocations(prog *Program) error {
	for name, lbl := range prog.Labels {
		for _, r := range lbl.References {
			target := prog.Labels[r.TargetSymbol]
			if target == nil || !target.Resolved() {
				return UnresolvedSymbol{compileError{token.Token{Lexeme: name}}, r.TargetSymbol}
			}
			if err := patchRelocation(prog, r, *target.Offset); err != nil {
				return err
			}
		}
	}
	return nil
}

func patchRelocation(prog *Program, r Relocation, targetOffset uint16) error {
	switch r.Mode {
	case Absolute:
		prog.Code[r.Position] = uint8(targetOffset)
		prog.Code[r.Position+1] = uint8(targetOffset >> 8)
	case ZP:
		if targetOffset > 0xFF {
			return InvalidOperandSize{compileError{token.Token{Lexeme: r.TargetSymbol}}, r.TargetSymbol}
		}
		prog.Code[r.Position] = uint8(targetOffset)
	case Relative:
		disp := int(targetOffset) - int(r.Position+1)
		if disp < -128 || disp > 127 {
			return RelocationOutOfRange{compileError{token.Token{Lexeme: r.TargetSymbol}}, disp}
		}
		prog.Code[r.Position] = uint8(int8(disp))
	}
	return nil
}
