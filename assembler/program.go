package assembler

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
)

// RelocMode names the byte width and patch formula a Relocation uses.
type RelocMode int

const (
	// Absolute relocations patch two little-endian bytes with the target's
	// resolved offset.
	Absolute RelocMode = iota
	// Relative relocations patch one signed byte: target - (position+1).
	Relative
	// ZP relocations patch one byte, asserting the resolved offset fits.
	ZP
)

func (m RelocMode) String() string {
	switch m {
	case Absolute:
		return "Absolute"
	case Relative:
		return "Relative"
	case ZP:
		return "ZP"
	}
	return fmt.Sprintf("RelocMode(%d)", int(m))
}

// Relocation is a deferred fix-up: position names where in the emitted
// binary TargetSymbol's resolved address must be patched, per spec
// section 3.
type Relocation struct {
	Mode         RelocMode
	Position     uint16
	TargetSymbol string
}

// Label is a symbolic name's resolution state: Offset is nil until a
// label definition binds it, at which point every reference on the
// References list can be patched in pass 2.
type Label struct {
	Offset     *uint16
	References []Relocation
}

// Resolved reports whether this label has been bound to an address.
func (l *Label) Resolved() bool {
	return l.Offset != nil
}

// Program is the assembler's output artifact: sparse emitted bytes plus
// the label and alias tables that produced them, per spec section 3.
type Program struct {
	Code    map[uint16]uint8
	Labels  map[string]*Label
	Aliases map[string][]byte
}

// NewProgram returns an empty, ready-to-populate Program.
func NewProgram() *Program {
	return &Program{
		Code:    make(map[uint16]uint8),
		Labels:  make(map[string]*Label),
		Aliases: make(map[string][]byte),
	}
}

// Complete reports whether every relocation across every label has a
// resolved target, per spec section 3's completeness invariant.
func (p *Program) Complete() bool {
	for _, l := range p.Labels {
		if len(l.References) > 0 && !l.Resolved() {
			return false
		}
	}
	return true
}

// gobProgram is the wire shape for (de)serialization: the sparse map
// canonicalized into an ascending-address slice of (addr, byte) pairs, and
// labels into a slice of (name, offset) pairs, per spec section 6 ("order
// independent, the sparse map canonicalized by ascending address").
type gobProgram struct {
	Sparse []gobByte
	Labels []gobLabel
}

type gobByte struct {
	Addr uint16
	Val  uint8
}

type gobLabel struct {
	Name     string
	Offset   uint16
	Resolved bool
}

// Marshal serializes the Program per spec section 6's artifact shape.
func (p *Program) Marshal() ([]byte, error) {
	addrs := make([]uint16, 0, len(p.Code))
	for a := range p.Code {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	g := gobProgram{Sparse: make([]gobByte, 0, len(addrs))}
	for _, a := range addrs {
		g.Sparse = append(g.Sparse, gobByte{Addr: a, Val: p.Code[a]})
	}
	names := make([]string, 0, len(p.Labels))
	for n := range p.Labels {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		l := p.Labels[n]
		gl := gobLabel{Name: n}
		if l.Resolved() {
			gl.Offset = *l.Offset
			gl.Resolved = true
		}
		g.Labels = append(g.Labels, gl)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, fmt.Errorf("assembler: marshal program: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalProgram deserializes a Program produced by Marshal. Only the
// resolved offset and sparse code survive the round trip; reference lists
// (needed only mid-compile) are not part of the artifact.
func UnmarshalProgram(data []byte) (*Program, error) {
	var g gobProgram
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("assembler: unmarshal program: %w", err)
	}
	p := NewProgram()
	for _, b := range g.Sparse {
		p.Code[b.Addr] = b.Val
	}
	for _, l := range g.Labels {
		lbl := &Label{}
		if l.Resolved {
			off := l.Offset
			lbl.Offset = &off
		}
		p.Labels[l.Name] = lbl
	}
	return p, nil
}
