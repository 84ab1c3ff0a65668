// Package cpu implements a 6502-family instruction execution core: register
// file, flag semantics, addressing-mode effective-address computation and
// the per-instruction semantic groups, grounded on the teacher's cpu.Chip
// but restructured around one call per instruction instead of a resumable
// per-tick state machine (spec Non-goal: no sub-instruction bus phases).
package cpu

import (
	"math/rand"
	"time"

	"github.com/sixtwo-toolchain/sixtwo/clock"
	"github.com/sixtwo-toolchain/sixtwo/irq"
	"github.com/sixtwo-toolchain/sixtwo/memory"
)

// Flag bits within the P register, identical encoding to real 6502 silicon.
const (
	PNegative  = uint8(0x80)
	POverflow  = uint8(0x40)
	PAlwaysOne = uint8(0x20)
	PBreak     = uint8(0x10)
	PDecimal   = uint8(0x08)
	PInterrupt = uint8(0x04)
	PZero      = uint8(0x02)
	PCarry     = uint8(0x01)
)

// Vector addresses the CPU loads PC from on reset/interrupt.
const (
	NMIVector   = uint16(0xFFFA)
	ResetVector = uint16(0xFFFC)
	IRQVector   = uint16(0xFFFE)
)

// Chip is a 6502-family CPU core. It owns the register file and drives a
// bus (memory.Interface) and a shared clock; it does not own the bus's
// backing storage.
type Chip struct {
	A, X, Y uint8
	S       uint8
	PC      uint16
	P       uint8

	bus   memory.Interface
	clk   *clock.Clock
	iset  *InstructionSet
	nmi   irq.Sender
	irq   irq.Sender
	nmiWasRaised bool

	halted   bool
	haltCode uint8
}

// Option configures a Chip at construction time.
type Option func(*Chip)

// WithNMISource attaches an edge-sensitive NMI line. A transition from not
// Raised to Raised schedules an NMI before the next instruction fetch.
func WithNMISource(s irq.Sender) Option {
	return func(c *Chip) { c.nmi = s }
}

// WithIRQSource attaches a level-sensitive IRQ line, honored only while the
// I flag is clear.
func WithIRQSource(s irq.Sender) Option {
	return func(c *Chip) { c.irq = s }
}

// New builds a Chip driving bus. The Chip itself ticks clk only for
// internal (non-bus) cycles; bus accesses are ticked by the bus (a RAM built
// with a clock, or a mapper), and cycle counts are read back from clk.
func New(bus memory.Interface, clk *clock.Clock, iset *InstructionSet, opts ...Option) *Chip {
	c := &Chip{bus: bus, clk: clk, iset: iset}
	for _, o := range opts {
		o(c)
	}
	return c
}

// InstructionSet reports the catalog this chip decodes against.
func (c *Chip) InstructionSet() *InstructionSet {
	return c.iset
}

// Halted reports whether the chip has executed a halt opcode and the code
// it halted with.
func (c *Chip) Halted() (bool, uint8) {
	return c.halted, c.haltCode
}

// PowerOn randomizes registers (undefined on real hardware at power-on) and
// then performs a Reset, grounded on the teacher's Chip.PowerOn.
func (c *Chip) PowerOn() error {
	c.A = uint8(randByte())
	c.X = uint8(randByte())
	c.Y = uint8(randByte())
	c.S = uint8(randByte())
	c.P = PAlwaysOne
	return c.Reset()
}

// Reset loads PC from ResetVector, sets SP to 0xFD, disables IRQ and
// clears halt state. Other flags are left untouched (implementation
// defined, as spec section 4.5 allows).
func (c *Chip) Reset() error {
	c.S = 0xFD
	c.P |= PInterrupt
	c.halted = false
	c.haltCode = 0
	lo, err := c.bus.Load(ResetVector)
	if err != nil {
		return err
	}
	hi, err := c.bus.Load(ResetVector + 1)
	if err != nil {
		return err
	}
	c.PC = uint16(hi)<<8 | uint16(lo)
	if c.clk != nil {
		c.clk.Tick() // one internal settle cycle; the reset sequence's other non-bus cycles are not modelled
	}
	return nil
}

var powerOnRand = rand.New(rand.NewSource(time.Now().UnixNano()))

func randByte() uint8 {
	// Power-on register contents are undefined on real hardware; matches
	// memory.RAM.PowerOn's use of math/rand for the same reason.
	return uint8(powerOnRand.Intn(256))
}

// pad ticks the clock n more times to true up the declared cycle count
// against whatever real bus accesses an instruction actually performed.
func (c *Chip) pad(n int) {
	if c.clk == nil {
		return
	}
	for i := 0; i < n; i++ {
		c.clk.Tick()
	}
}

func (c *Chip) elapsed(start uint64) int {
	if c.clk == nil {
		return 0
	}
	return int(c.clk.CurrentCycle() - start)
}

func (c *Chip) cycle() uint64 {
	if c.clk == nil {
		return 0
	}
	return c.clk.CurrentCycle()
}

// pushStack writes val at 0x0100|S and decrements S, wrapping mod 256.
func (c *Chip) pushStack(val uint8) error {
	if err := c.bus.Store(0x0100+uint16(c.S), val); err != nil {
		return err
	}
	c.S--
	return nil
}

// popStack increments S (wrapping mod 256) and reads 0x0100|S.
func (c *Chip) popStack() (uint8, error) {
	c.S++
	return c.bus.Load(0x0100 + uint16(c.S))
}

func (c *Chip) zeroCheck(v uint8) {
	c.P &^= PZero
	if v == 0 {
		c.P |= PZero
	}
}

func (c *Chip) negativeCheck(v uint8) {
	c.P &^= PNegative
	if v&PNegative != 0 {
		c.P |= PNegative
	}
}

// carryCheck sets C if an 8-bit ALU op (passed widened to 16 bits) carried
// out, i.e. res >= 0x100. BCD fixups can produce res up to 0x200 and still
// mean carry, so this is a plain comparison rather than a bit mask.
func (c *Chip) carryCheck(res uint16) {
	c.P &^= PCarry
	if res >= 0x100 {
		c.P |= PCarry
	}
}

// overflowCheck sets V when the two operands' signs agree but differ from
// the result's sign. See http://www.righto.com/2012/12/the-6502-overflow-flag-explained.html
func (c *Chip) overflowCheck(reg, arg, res uint8) {
	c.P &^= POverflow
	if (reg^res)&(arg^res)&0x80 != 0 {
		c.P |= POverflow
	}
}

func (c *Chip) loadRegister(reg *uint8, v uint8) {
	*reg = v
	c.zeroCheck(v)
	c.negativeCheck(v)
}

// ExecuteInstruction services a pending interrupt if one is latched,
// otherwise fetches, decodes and executes one instruction. It returns the
// number of cycles spent. A previously halted chip returns ExecutionHalted
// immediately without touching the bus.
func (c *Chip) ExecuteInstruction() (int, error) {
	if c.halted {
		return 0, ExecutionHalted{c.haltCode}
	}

	if c.nmi != nil {
		raised := c.nmi.Raised()
		if raised && !c.nmiWasRaised {
			c.nmiWasRaised = raised
			return c.serviceInterrupt(NMIVector, false)
		}
		c.nmiWasRaised = raised
	}
	if c.irq != nil && c.irq.Raised() && c.P&PInterrupt == 0 {
		return c.serviceInterrupt(IRQVector, false)
	}

	start := c.cycle()
	pc := c.PC
	opByte, err := c.bus.Load(c.PC)
	if err != nil {
		return c.elapsed(start), err
	}
	c.PC++

	op, ok := c.iset.Decode(opByte)
	if !ok {
		return c.elapsed(start), InvalidOpcode{Byte: opByte, PC: pc}
	}

	if op.Mnemonic == "HLT" || op.Mnemonic == "HLT_ACC" || op.Mnemonic == "HLT_IM" {
		return c.executeHalt(op, start)
	}

	cycles, err := c.executeDecoded(op, start)
	return cycles, err
}

// executeHalt implements the synthetic NMOS6502Emu halt opcodes: HLT halts
// with code 0, HLT_IM consumes one operand byte as the code, HLT_ACC uses
// the current accumulator.
func (c *Chip) executeHalt(op Opcode, start uint64) (int, error) {
	code := uint8(0)
	switch op.Mnemonic {
	case "HLT_IM":
		v, err := c.bus.Load(c.PC)
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC++
		code = v
	case "HLT_ACC":
		code = c.A
	}
	c.halted = true
	c.haltCode = code
	c.pad(int(op.BaseCycles) - c.elapsed(start))
	return c.elapsed(start), ExecutionHalted{code}
}

// ExecuteWithTimeout runs instructions until the chip halts (returns
// ExecutionHalted), a bus fault propagates, or d elapses on the wall
// clock (returns ExecutionTimeout), whichever comes first.
func (c *Chip) ExecuteWithTimeout(d time.Duration) (uint64, error) {
	deadline := time.Now().Add(d)
	var spent uint64
	for {
		if time.Now().After(deadline) {
			return spent, ExecutionTimeout{CyclesElapsed: spent}
		}
		n, err := c.ExecuteInstruction()
		spent += uint64(n)
		if err != nil {
			return spent, err
		}
	}
}

// serviceInterrupt pushes PCH, PCL and P (with B clear, since this path is
// never taken for BRK) and loads PC from vector. Always 7 cycles.
func (c *Chip) serviceInterrupt(vector uint16, setBreak bool) (int, error) {
	start := c.cycle()
	c.pad(1) // first internal cycle; the final pad below brings the total to 7
	if err := c.pushStack(uint8(c.PC >> 8)); err != nil {
		return c.elapsed(start), err
	}
	if err := c.pushStack(uint8(c.PC & 0xFF)); err != nil {
		return c.elapsed(start), err
	}
	push := c.P | PAlwaysOne
	if setBreak {
		push |= PBreak
	} else {
		push &^= PBreak
	}
	if err := c.pushStack(push); err != nil {
		return c.elapsed(start), err
	}
	c.P |= PInterrupt
	lo, err := c.bus.Load(vector)
	if err != nil {
		return c.elapsed(start), err
	}
	hi, err := c.bus.Load(vector + 1)
	if err != nil {
		return c.elapsed(start), err
	}
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.pad(7 - c.elapsed(start))
	return c.elapsed(start), nil
}
