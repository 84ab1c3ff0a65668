package assembler

import (
	"strings"

	"github.com/sixtwo-toolchain/sixtwo/cpu"
	"github.com/sixtwo-toolchain/sixtwo/token"
)

// ArgKind discriminates ArgumentValue's payload, replacing the
// std::variant/std::visit original_source uses for the same role.
type ArgKind int

const (
	// ArgNone means the instruction line had no operand (implied/accumulator).
	ArgNone ArgKind = iota
	// ArgBytes means the operand resolved to a concrete numeric literal.
	ArgBytes
	// ArgSymbol means the operand names a label to be resolved in pass 2.
	ArgSymbol
)

// ArgumentValue is an operand's parsed form: either nothing, a literal
// value of a known bit width, or a forward/backward symbol reference.
type ArgumentValue struct {
	Kind   ArgKind
	Value  uint64
	Width  int // 1 or 2, meaningful only when Kind == ArgBytes
	Symbol string
}

// operandShape classifies the operand's syntax, independent of whether its
// value is a literal or a symbol. It narrows which AddressModes are even
// candidates before literal width or symbol-ness breaks remaining ties, per
// spec section 4.4.
type operandShape int

const (
	shapeImplied operandShape = iota
	shapeAccumulator
	shapeImmediate
	shapeDirect
	shapeDirectX
	shapeDirectY
	shapeIndirect
	shapeIndirectX
	shapeIndirectY
)

// parseOperand consumes the tokens following a mnemonic (or directive) and
// returns the operand's syntactic shape and value. aliases resolves .equ
// names to their bound bytes, since alias substitution is not deferred to
// pass 2 (spec section 4.2).
func parseOperand(mnemonic token.Token, toks []token.Token, aliases map[string][]byte) (operandShape, ArgumentValue, error) {
	if len(toks) == 0 {
		return shapeImplied, ArgumentValue{Kind: ArgNone}, nil
	}

	if len(toks) == 1 && strings.EqualFold(toks[0].Lexeme, "A") {
		return shapeAccumulator, ArgumentValue{Kind: ArgNone}, nil
	}

	if toks[0].Lexeme == "#" || strings.HasPrefix(toks[0].Lexeme, "#") {
		val, err := parseValue(mnemonic, toks[0].Lexeme[1:], aliases)
		if err != nil {
			return 0, ArgumentValue{}, err
		}
		return shapeImmediate, val, nil
	}

	if toks[0].Lexeme == "(" {
		return parseIndirectOperand(mnemonic, toks, aliases)
	}

	// DIRECT, DIRECT,X or DIRECT,Y
	val, err := parseValue(mnemonic, toks[0].Lexeme, aliases)
	if err != nil {
		return 0, ArgumentValue{}, err
	}
	if len(toks) == 1 {
		return shapeDirect, val, nil
	}
	if len(toks) == 3 && toks[1].Lexeme == "," {
		switch strings.ToUpper(toks[2].Lexeme) {
		case "X":
			return shapeDirectX, val, nil
		case "Y":
			return shapeDirectY, val, nil
		}
	}
	return 0, ArgumentValue{}, InvalidOperandArgument{compileError{mnemonic}, joinLexemes(toks)}
}

// parseIndirectOperand handles the three indirect shapes: (ABS), (ZP,X)
// and (ZP),Y. toks[0] is the opening "(".
func parseIndirectOperand(mnemonic token.Token, toks []token.Token, aliases map[string][]byte) (operandShape, ArgumentValue, error) {
	// (ZP,X)
	if len(toks) == 5 && toks[2].Lexeme == "," && strings.EqualFold(toks[3].Lexeme, "X") && toks[4].Lexeme == ")" {
		val, err := parseValue(mnemonic, toks[1].Lexeme, aliases)
		if err != nil {
			return 0, ArgumentValue{}, err
		}
		return shapeIndirectX, val, nil
	}
	// (ZP),Y
	if len(toks) == 5 && toks[2].Lexeme == ")" && toks[3].Lexeme == "," && strings.EqualFold(toks[4].Lexeme, "Y") {
		val, err := parseValue(mnemonic, toks[1].Lexeme, aliases)
		if err != nil {
			return 0, ArgumentValue{}, err
		}
		return shapeIndirectY, val, nil
	}
	// (ABS)
	if len(toks) == 3 && toks[2].Lexeme == ")" {
		val, err := parseValue(mnemonic, toks[1].Lexeme, aliases)
		if err != nil {
			return 0, ArgumentValue{}, err
		}
		return shapeIndirect, val, nil
	}
	return 0, ArgumentValue{}, InvalidOperandArgument{compileError{mnemonic}, joinLexemes(toks)}
}

// parseValue resolves a single lexeme into an ArgumentValue: an alias
// substitutes to ArgBytes immediately; a number becomes ArgBytes sized to
// its magnitude; anything else is treated as a label reference.
func parseValue(mnemonic token.Token, lexeme string, aliases map[string][]byte) (ArgumentValue, error) {
	if b, ok := aliases[lexeme]; ok {
		return bytesToArgument(b), nil
	}
	if token.IsNumber(lexeme) {
		n, err := token.ParseNumber(lexeme)
		if err != nil {
			return ArgumentValue{}, InvalidOperandArgument{compileError{mnemonic}, lexeme}
		}
		width := 1
		if n > 0xFF {
			width = 2
		}
		if n > 0xFFFF {
			return ArgumentValue{}, InvalidOperandSize{compileError{mnemonic}, mnemonic.Lexeme}
		}
		return ArgumentValue{Kind: ArgBytes, Value: n, Width: width}, nil
	}
	return ArgumentValue{Kind: ArgSymbol, Symbol: lexeme}, nil
}

func bytesToArgument(b []byte) ArgumentValue {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	width := 1
	if len(b) > 1 {
		width = 2
	}
	return ArgumentValue{Kind: ArgBytes, Value: v, Width: width}
}

func joinLexemes(toks []token.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Lexeme)
	}
	return b.String()
}

// selectMode implements spec section 4.4's addressing-mode selection: the
// operand shape narrows the candidate set; literal width and REL
// preference for symbol operands on branch mnemonics break any remaining
// ambiguity among the mnemonic's available variants.
func selectMode(mnemonicTok token.Token, shape operandShape, val ArgumentValue, variants map[cpu.AddressMode]cpu.Opcode) (cpu.AddressMode, error) {
	mnemonic := mnemonicTok.Lexeme
	candidates := shapeCandidates(shape)

	// Branch mnemonics: a bare direct-shape symbol operand prefers REL
	// when the mnemonic supports it, over ZP/ABS.
	if shape == shapeDirect {
		if _, ok := variants[cpu.REL]; ok {
			if val.Kind == ArgSymbol {
				return cpu.REL, nil
			}
		}
	}

	var available []cpu.AddressMode
	for _, m := range candidates {
		if _, ok := variants[m]; ok {
			available = append(available, m)
		}
	}
	if len(available) == 0 {
		return 0, OperandModeNotSupported{compileError{mnemonicTok}, mnemonic, shapeName(shape)}
	}
	if len(available) == 1 {
		return checkWidth(mnemonicTok, available[0], val)
	}

	// Ambiguous only for the DIRECT-family shapes (ZP vs ABS, ZP,X vs
	// ABS,X, ZP,Y vs ABS,Y): a literal that fits one byte prefers the ZP
	// variant when available; otherwise, or for symbols whose width isn't
	// known until pass 2, ABS is used.
	if val.Kind == ArgBytes && val.Width == 1 {
		for _, m := range available {
			if m == cpu.ZP || m == cpu.ZPX || m == cpu.ZPY {
				return m, nil
			}
		}
	}
	for _, m := range available {
		if m == cpu.ABS || m == cpu.ABSX || m == cpu.ABSY {
			return m, nil
		}
	}
	return checkWidth(mnemonicTok, available[0], val)
}

func checkWidth(mnemonicTok token.Token, mode cpu.AddressMode, val ArgumentValue) (cpu.AddressMode, error) {
	if val.Kind != ArgBytes {
		return mode, nil
	}
	if mode.OperandSize() == 1 && val.Width > 1 {
		return 0, InvalidOperandSize{compileError{mnemonicTok}, mnemonicTok.Lexeme}
	}
	return mode, nil
}

func shapeCandidates(shape operandShape) []cpu.AddressMode {
	switch shape {
	case shapeImplied:
		return []cpu.AddressMode{cpu.IMP}
	case shapeAccumulator:
		return []cpu.AddressMode{cpu.ACC}
	case shapeImmediate:
		return []cpu.AddressMode{cpu.IMM}
	case shapeDirect:
		return []cpu.AddressMode{cpu.ZP, cpu.ABS, cpu.REL}
	case shapeDirectX:
		return []cpu.AddressMode{cpu.ZPX, cpu.ABSX}
	case shapeDirectY:
		return []cpu.AddressMode{cpu.ZPY, cpu.ABSY}
	case shapeIndirect:
		return []cpu.AddressMode{cpu.IND}
	case shapeIndirectX:
		return []cpu.AddressMode{cpu.INDX}
	case shapeIndirectY:
		return []cpu.AddressMode{cpu.INDY}
	}
	return nil
}

func shapeName(shape operandShape) string {
	switch shape {
	case shapeImplied:
		return "implied"
	case shapeAccumulator:
		return "accumulator"
	case shapeImmediate:
		return "immediate"
	case shapeDirect:
		return "direct"
	case shapeDirectX:
		return "direct,X"
	case shapeDirectY:
		return "direct,Y"
	case shapeIndirect:
		return "indirect"
	case shapeIndirectX:
		return "(indirect,X)"
	case shapeIndirectY:
		return "(indirect),Y"
	}
	return "unknown"
}
